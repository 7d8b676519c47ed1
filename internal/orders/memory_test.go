package orders

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_FindOrCreate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, created, err := s.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)
	assert.True(t, created)

	dup := sampleOrder()
	dup.Number = "ORD-2-other"
	second, created, err := s.CreateOrder(ctx, dup)
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.Number, second.Number)
	assert.Equal(t, 1, s.Len())

	byNum, err := s.GetByNumber(ctx, first.Number)
	require.NoError(t, err)
	assert.Equal(t, "cs_1", byNum.SessionID)

	_, err = s.GetByNumber(ctx, "ORD-2-other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_NumberCollision(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _, err := s.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)

	other := sampleOrder()
	other.SessionID = "cs_2"
	_, _, err = s.CreateOrder(ctx, other)

	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryStore_ConcurrentCreateSameSession(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	numbers := make([]string, 16)
	for i := range numbers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o := sampleOrder()
			o.Number = fmt.Sprintf("ORD-%d", i)
			got, _, err := s.CreateOrder(context.Background(), o)
			assert.NoError(t, err)
			numbers[i] = got.Number
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, s.Len())
	for _, n := range numbers {
		assert.Equal(t, numbers[0], n)
	}
}

func TestUnitPrice(t *testing.T) {
	assert.True(t, decimal.RequireFromString("20").Equal(UnitPrice(4000, 2)))
	assert.True(t, decimal.RequireFromString("40").Equal(UnitPrice(4000, 0)))
	assert.True(t, decimal.RequireFromString("3.33").Equal(UnitPrice(1000, 3)))
}
