package toolhost

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestCall_UnknownToolReturnsError(t *testing.T) {
	h := New(time.Second, arbor.NewLogger())
	result := h.Call(context.Background(), "does-not-exist", nil)
	assert.Equal(t, "error", result.Status)
	require.Error(t, result.Err)
}

func TestCall_ReturnsHandlerValue(t *testing.T) {
	h := New(time.Second, arbor.NewLogger())
	h.Register("echo", func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return args["query"], nil
	})

	result := h.Call(context.Background(), "echo", map[string]interface{}{"query": "hello"})
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "hello", result.Value)
	assert.NoError(t, result.Err)
}

func TestCall_HandlerErrorIsReported(t *testing.T) {
	h := New(time.Second, arbor.NewLogger())
	h.Register("fails", func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	})

	result := h.Call(context.Background(), "fails", nil)
	assert.Equal(t, "error", result.Status)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "boom")
}

func TestCall_TimesOutSlowHandler(t *testing.T) {
	h := New(10*time.Millisecond, arbor.NewLogger())
	h.Register("slow", func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	result := h.Call(context.Background(), "slow", nil)
	assert.Equal(t, "error", result.Status)
	assert.Contains(t, result.Err.Error(), "timed out")
}

func TestCallBatch_PreservesOrderAndIsolatesFailures(t *testing.T) {
	h := New(time.Second, arbor.NewLogger())
	h.Register("a", func(ctx context.Context, args map[string]interface{}) (interface{}, error) { return "a", nil })
	h.Register("b", func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return nil, errors.New("b failed")
	})
	h.Register("c", func(ctx context.Context, args map[string]interface{}) (interface{}, error) { return "c", nil })

	results := h.CallBatch(context.Background(), []Call{{Name: "a"}, {Name: "b"}, {Name: "c"}})
	require.Len(t, results, 3)
	assert.Equal(t, "ok", results[0].Status)
	assert.Equal(t, "error", results[1].Status)
	assert.Equal(t, "ok", results[2].Status)
}

func TestNew_ZeroTimeoutUsesDefault(t *testing.T) {
	h := New(0, arbor.NewLogger())
	assert.Equal(t, defaultCallTimeout, h.timeout)
}
