package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		tr, err := New("trade-1", "seller", "buyer", 10, 2)
		assert.NoError(t, err)
		assert.Equal(t, int64(20), tr.TotalPrice)
		assert.Equal(t, StatusPending, tr.Status)
		assert.False(t, tr.IsCompleted())
		assert.Empty(t, tr.ExternalTxRef)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := New("", "seller", "buyer", 10, 2)
		assert.ErrorIs(t, err, ErrEmptyTradeID)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := New("trade-1", "seller", "buyer", 0, 2)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = New("trade-1", "seller", "buyer", -5, 2)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("non-positive price", func(t *testing.T) {
		_, err := New("trade-1", "seller", "buyer", 10, 0)
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("same counterpart", func(t *testing.T) {
		_, err := New("trade-1", "solar-01", "solar-01", 10, 2)
		assert.ErrorIs(t, err, ErrSameCounterpart)
	})
}

func TestTrade_IsCompleted(t *testing.T) {
	tr := &Trade{Status: StatusPending}
	assert.False(t, tr.IsCompleted())

	tr.Status = StatusCompleted
	assert.True(t, tr.IsCompleted())
}
