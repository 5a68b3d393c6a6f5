package registrar

import (
	"errors"
	"fmt"
	"hash"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// DefaultRecordType is the registry record holding a name's address.
const DefaultRecordType = "A"

// ErrDigestSize is returned for hash functions whose digest is not 32 bytes.
var ErrDigestSize = errors.New("key hash must produce 32-byte digests")

// Key identifies one registry record: the hashed name and the record type
// stored under it. Records of different types for the same name share Hash
// but never the Key.
type Key struct {
	Hash       common.Hash
	RecordType string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Hash.Hex(), k.RecordType)
}

// KeyDeriver hashes names into registry keys.
type KeyDeriver struct {
	newHash func() hash.Hash
}

// NewKeyDeriver returns a deriver using newHash, which must produce 32-byte
// digests. A nil newHash selects legacy Keccak-256, the registry's own hash.
func NewKeyDeriver(newHash func() hash.Hash) (*KeyDeriver, error) {
	if newHash == nil {
		newHash = sha3.NewLegacyKeccak256
	}
	if size := newHash().Size(); size != common.HashLength {
		return nil, fmt.Errorf("%w: got %d", ErrDigestSize, size)
	}
	return &KeyDeriver{newHash: newHash}, nil
}

// HashName returns the digest of the name's bytes as given.
func (d *KeyDeriver) HashName(name string) common.Hash {
	h := d.newHash()
	h.Write([]byte(name))
	return common.BytesToHash(h.Sum(nil))
}

// Derive returns the key for name under recordType. An empty recordType
// selects DefaultRecordType.
func (d *KeyDeriver) Derive(name string, recordType string) Key {
	if recordType == "" {
		recordType = DefaultRecordType
	}
	return Key{
		Hash:       d.HashName(name),
		RecordType: recordType,
	}
}

var defaultKeyDeriver = &KeyDeriver{newHash: sha3.NewLegacyKeccak256}

// DeriveKey derives a registry key with the default Keccak-256 deriver.
func DeriveKey(name string, recordType string) Key {
	return defaultKeyDeriver.Derive(name, recordType)
}
