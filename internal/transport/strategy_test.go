package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstSuccess_StopsAtWinner(t *testing.T) {
	var tried []int
	result, idx, ok := FirstSuccess(context.Background(), []int{1, 2, 3, 4}, func(ctx context.Context, n int) (string, bool) {
		tried = append(tried, n)
		return "won", n == 2
	})

	assert.True(t, ok)
	assert.Equal(t, "won", result)
	assert.Equal(t, 1, idx)
	assert.Equal(t, []int{1, 2}, tried)
}

func TestFirstSuccess_AllFail(t *testing.T) {
	result, idx, ok := FirstSuccess(context.Background(), []string{"a", "b"}, func(ctx context.Context, s string) (int, bool) {
		return 42, false
	})

	assert.False(t, ok)
	assert.Equal(t, -1, idx)
	assert.Zero(t, result)
}

func TestFirstSuccess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, _, ok := FirstSuccess(ctx, []int{1, 2}, func(ctx context.Context, n int) (int, bool) {
		calls++
		return n, true
	})

	assert.False(t, ok)
	assert.Zero(t, calls)
}
