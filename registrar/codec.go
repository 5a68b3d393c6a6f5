package registrar

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	registrarbindings "github.com/ruteri/onchain-registrar/bindings/registrar"
	"github.com/ruteri/onchain-registrar/interfaces"
)

const (
	methodGetAddress = "getAddress"
	methodGetData    = "getData"
	methodGetOwner   = "getOwner"
	methodReverse    = "reverse"

	wordSize = 32
)

var requiredMethods = []string{methodGetAddress, methodGetData, methodGetOwner, methodReverse}

// Codec packs registry calls and unpacks their return data using the
// registry's ABI description.
type Codec struct {
	abi *abi.ABI
}

// NewCodec builds a codec from the generated registrar bindings.
func NewCodec() (*Codec, error) {
	parsed, err := registrarbindings.RegistrarMetaData.GetAbi()
	if err != nil {
		return nil, &EncodingError{Method: "abi", Err: err}
	}
	return NewCodecFromABI(parsed)
}

// NewCodecFromABI builds a codec from an already parsed ABI. The ABI must
// declare every method the resolver calls.
func NewCodecFromABI(parsed *abi.ABI) (*Codec, error) {
	if parsed == nil {
		return nil, &EncodingError{Method: "abi", Err: fmt.Errorf("nil ABI")}
	}
	for _, name := range requiredMethods {
		if _, ok := parsed.Methods[name]; !ok {
			return nil, &EncodingError{Method: name, Err: ErrMissingMethod}
		}
	}
	return &Codec{abi: parsed}, nil
}

func (c *Codec) pack(method string, args ...interface{}) ([]byte, error) {
	payload, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, &EncodingError{Method: method, Err: err}
	}
	return payload, nil
}

// EncodeLookup builds the getAddress call for key.
func (c *Codec) EncodeLookup(key Key) ([]byte, error) {
	return c.pack(methodGetAddress, [32]byte(key.Hash), key.RecordType)
}

// EncodeData builds the getData call for key.
func (c *Codec) EncodeData(key Key) ([]byte, error) {
	return c.pack(methodGetData, [32]byte(key.Hash), key.RecordType)
}

// EncodeOwner builds the getOwner call for a hashed name.
func (c *Codec) EncodeOwner(name common.Hash) ([]byte, error) {
	return c.pack(methodGetOwner, [32]byte(name))
}

// EncodeReverse builds the reverse call for addr.
func (c *Codec) EncodeReverse(addr common.Address) ([]byte, error) {
	return c.pack(methodReverse, addr)
}

// EncodeResult packs values as method's return data, the way the registry
// contract would answer.
func (c *Codec) EncodeResult(method string, values ...interface{}) ([]byte, error) {
	m, ok := c.abi.Methods[method]
	if !ok {
		return nil, &EncodingError{Method: method, Err: ErrMissingMethod}
	}
	out, err := m.Outputs.Pack(values...)
	if err != nil {
		return nil, &EncodingError{Method: method, Err: err}
	}
	return out, nil
}

// EncodeAddress packs addr as getAddress return data.
func (c *Codec) EncodeAddress(addr common.Address) ([]byte, error) {
	return c.EncodeResult(methodGetAddress, addr)
}

func (c *Codec) unpackWord(method string, raw []byte) (interface{}, error) {
	if len(raw) != wordSize {
		return nil, &DecodingError{Method: method, Len: len(raw), Err: ErrInvalidLength}
	}
	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, &DecodingError{Method: method, Len: len(raw), Err: err}
	}
	if len(out) != 1 {
		return nil, &DecodingError{Method: method, Len: len(raw), Err: fmt.Errorf("expected 1 return value, got %d", len(out))}
	}
	return out[0], nil
}

func (c *Codec) decodeAddressWord(method string, raw []byte) (interfaces.ResolvedAddress, error) {
	if len(raw) == wordSize && !bytes.Equal(raw[:wordSize-common.AddressLength], make([]byte, wordSize-common.AddressLength)) {
		return interfaces.ResolvedAddress{}, &DecodingError{Method: method, Len: len(raw), Err: ErrDirtyPadding}
	}
	value, err := c.unpackWord(method, raw)
	if err != nil {
		return interfaces.ResolvedAddress{}, err
	}
	addr, ok := value.(common.Address)
	if !ok {
		return interfaces.ResolvedAddress{}, &DecodingError{Method: method, Len: len(raw), Err: fmt.Errorf("unexpected return type %T", value)}
	}
	return interfaces.Present(addr), nil
}

// DecodeAddress unpacks getAddress return data. An all-zero word decodes to
// the absent marker.
func (c *Codec) DecodeAddress(raw []byte) (interfaces.ResolvedAddress, error) {
	return c.decodeAddressWord(methodGetAddress, raw)
}

// DecodeOwner unpacks getOwner return data.
func (c *Codec) DecodeOwner(raw []byte) (interfaces.ResolvedAddress, error) {
	return c.decodeAddressWord(methodGetOwner, raw)
}

// DecodeData unpacks getData return data.
func (c *Codec) DecodeData(raw []byte) (interfaces.ResolvedHash, error) {
	value, err := c.unpackWord(methodGetData, raw)
	if err != nil {
		return interfaces.ResolvedHash{}, err
	}
	word, ok := value.([32]byte)
	if !ok {
		return interfaces.ResolvedHash{}, &DecodingError{Method: methodGetData, Len: len(raw), Err: fmt.Errorf("unexpected return type %T", value)}
	}
	return interfaces.Present(common.Hash(word)), nil
}

// DecodeReverse unpacks reverse return data. An empty string decodes to the
// absent marker.
func (c *Codec) DecodeReverse(raw []byte) (interfaces.ResolvedName, error) {
	if len(raw) < 2*wordSize || len(raw)%wordSize != 0 {
		return interfaces.ResolvedName{}, &DecodingError{Method: methodReverse, Len: len(raw), Err: ErrInvalidLength}
	}
	out, err := c.abi.Unpack(methodReverse, raw)
	if err != nil {
		return interfaces.ResolvedName{}, &DecodingError{Method: methodReverse, Len: len(raw), Err: err}
	}
	if len(out) != 1 {
		return interfaces.ResolvedName{}, &DecodingError{Method: methodReverse, Len: len(raw), Err: fmt.Errorf("expected 1 return value, got %d", len(out))}
	}
	name, ok := out[0].(string)
	if !ok {
		return interfaces.ResolvedName{}, &DecodingError{Method: methodReverse, Len: len(raw), Err: fmt.Errorf("unexpected return type %T", out[0])}
	}
	return interfaces.Present(name), nil
}
