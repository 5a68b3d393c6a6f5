package transport

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoBatchClient answers each eth_call with its own input.
type echoBatchClient struct {
	mu       sync.Mutex
	batches  [][]rpc.BatchElem
	batchErr error
	elemErr  map[int]error
}

func (c *echoBatchClient) BatchCallContext(ctx context.Context, b []rpc.BatchElem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, b)
	if c.batchErr != nil {
		return c.batchErr
	}
	for i := range b {
		if err, found := c.elemErr[i]; found {
			b[i].Error = err
			continue
		}
		arg := b[i].Args[0].(map[string]interface{})
		input, _ := arg["input"].(hexutil.Bytes)
		*b[i].Result.(*hexutil.Bytes) = append(hexutil.Bytes{}, input...)
	}
	return nil
}

func (c *echoBatchClient) sizes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, len(c.batches))
	for i, b := range c.batches {
		out[i] = len(b)
	}
	return out
}

func TestBatchCaller_CoalescesWithinWindow(t *testing.T) {
	client := &echoBatchClient{}
	batcher := NewBatchCaller(client, BatchCallerOpts{Window: 50 * time.Millisecond, Log: discardLogger()})
	defer batcher.Close()

	to := common.HexToAddress("0x01")
	first := batcher.CallAsync(context.Background(), to, []byte{0x01})
	second := batcher.CallAsync(context.Background(), to, []byte{0x02})
	third := batcher.CallAsync(context.Background(), to, []byte{0x03})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i, p := range []struct {
		want []byte
		out  func(context.Context) ([]byte, error)
	}{
		{[]byte{0x01}, first.Wait},
		{[]byte{0x02}, second.Wait},
		{[]byte{0x03}, third.Wait},
	} {
		out, err := p.out(ctx)
		require.NoError(t, err, "call %d", i)
		assert.Equal(t, p.want, out)
	}

	assert.Equal(t, []int{3}, client.sizes())

	elem := client.batches[0][0]
	assert.Equal(t, "eth_call", elem.Method)
	assert.Equal(t, "latest", elem.Args[1])
	assert.Equal(t, to, elem.Args[0].(map[string]interface{})["to"])
}

func TestBatchCaller_FlushesFullBatch(t *testing.T) {
	client := &echoBatchClient{}
	batcher := NewBatchCaller(client, BatchCallerOpts{Window: time.Hour, MaxBatch: 2, Log: discardLogger()})
	defer batcher.Close()

	to := common.HexToAddress("0x01")
	a := batcher.CallAsync(context.Background(), to, []byte{0x0a})
	b := batcher.CallAsync(context.Background(), to, []byte{0x0b})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, err := a.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a}, out)
	out, err = b.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0b}, out)

	assert.Equal(t, []int{2}, client.sizes())
}

func TestBatchCaller_Errors(t *testing.T) {
	to := common.HexToAddress("0x01")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	t.Run("whole batch fails", func(t *testing.T) {
		errDown := errors.New("node down")
		batcher := NewBatchCaller(&echoBatchClient{batchErr: errDown}, BatchCallerOpts{Log: discardLogger()})
		defer batcher.Close()

		a := batcher.CallAsync(ctx, to, []byte{0x01})
		b := batcher.CallAsync(ctx, to, []byte{0x02})

		_, err := a.Wait(ctx)
		require.ErrorIs(t, err, errDown)
		_, err = b.Wait(ctx)
		require.ErrorIs(t, err, errDown)
	})

	t.Run("single element fails", func(t *testing.T) {
		errReverted := errors.New("execution reverted")
		batcher := NewBatchCaller(&echoBatchClient{elemErr: map[int]error{1: errReverted}}, BatchCallerOpts{
			Window:   time.Hour,
			MaxBatch: 2,
			Log:      discardLogger(),
		})
		defer batcher.Close()

		a := batcher.CallAsync(ctx, to, []byte{0x01})
		b := batcher.CallAsync(ctx, to, []byte{0x02})

		out, err := a.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01}, out)
		_, err = b.Wait(ctx)
		require.ErrorIs(t, err, errReverted)
	})

	t.Run("cancelled before send", func(t *testing.T) {
		client := &echoBatchClient{}
		batcher := NewBatchCaller(client, BatchCallerOpts{Window: time.Hour, Log: discardLogger()})

		callCtx, callCancel := context.WithCancel(context.Background())
		p := batcher.CallAsync(callCtx, to, []byte{0x01})
		callCancel()
		batcher.Close()

		_, err := p.Wait(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, client.sizes())
	})

	t.Run("closed", func(t *testing.T) {
		batcher := NewBatchCaller(&echoBatchClient{}, BatchCallerOpts{Log: discardLogger()})
		batcher.Close()

		_, err := batcher.CallAsync(ctx, to, []byte{0x01}).Wait(ctx)
		require.ErrorIs(t, err, ErrBatchClosed)
	})
}

func TestBatchCaller_CloseFlushesQueue(t *testing.T) {
	client := &echoBatchClient{}
	batcher := NewBatchCaller(client, BatchCallerOpts{Window: time.Hour, Log: discardLogger()})

	p := batcher.CallAsync(context.Background(), common.HexToAddress("0x01"), []byte{0x07})
	batcher.Close()

	out, ok, err := p.Poll()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x07}, out)
}

func TestBatchCaller_PinnedBlock(t *testing.T) {
	client := &echoBatchClient{}
	batcher := NewBatchCaller(client, BatchCallerOpts{Block: big.NewInt(17), Log: discardLogger()})

	p := batcher.CallAsync(context.Background(), common.HexToAddress("0x01"), []byte{0x07})
	batcher.Close()

	_, ok, err := p.Poll()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "0x11", client.batches[0][0].Args[1])
}
