package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

func rbPoint(ts int64) models.MSensorPoint {
	return models.MSensorPoint{Timestamp: ts, Value: float64(ts) / 10}
}

func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer(4)

	for ts := int64(1); ts <= 6; ts++ {
		rb.Append(rbPoint(ts))
	}

	require.True(t, rb.IsFull())
	assert.Equal(t, 4, rb.Size())

	all := rb.GetAll()
	require.Len(t, all, 4)
	for i, want := range []int64{3, 4, 5, 6} {
		assert.Equal(t, want, all[i].Timestamp)
	}
}

func TestRingBufferGetLatestOrder(t *testing.T) {
	rb := NewRingBuffer(8)
	for ts := int64(10); ts <= 50; ts += 10 {
		rb.Append(rbPoint(ts))
	}

	latest := rb.GetLatest(3)
	require.Len(t, latest, 3)
	assert.Equal(t, int64(30), latest[0].Timestamp)
	assert.Equal(t, int64(40), latest[1].Timestamp)
	assert.Equal(t, int64(50), latest[2].Timestamp)

	// Asking for more than stored returns everything.
	assert.Len(t, rb.GetLatest(100), 5)
	assert.Empty(t, rb.GetLatest(0))
}

func TestRingBufferEmpty(t *testing.T) {
	rb := NewRingBuffer(4)

	assert.Empty(t, rb.GetAll())
	assert.Empty(t, rb.GetLatest(3))
	assert.Equal(t, 0, rb.Size())
	assert.False(t, rb.IsFull())
}

func TestRingBufferClear(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Append(rbPoint(1))
	rb.Append(rbPoint(2))

	rb.Clear()

	assert.Equal(t, 0, rb.Size())
	assert.Empty(t, rb.GetAll())

	// Reusable after a clear.
	rb.Append(rbPoint(3))
	all := rb.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, int64(3), all[0].Timestamp)
}

func TestRingBufferDefaultCapacity(t *testing.T) {
	rb := NewRingBuffer(0)
	assert.Equal(t, DefaultRingCapacity, rb.Capacity())
}
