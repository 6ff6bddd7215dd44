package utils

import (
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of recent live readings.
// True ring buffer - no resizing allowed!
// -----------------------------------------------------------------------------

type RingBuffer struct {
	// Data storage as 2D slice (rows x features)
	data     [][models.RB_NUM_FEATURES]float64
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}

	return &RingBuffer{
		data:     make([][models.RB_NUM_FEATURES]float64, capacity),
		capacity: capacity,
		index:    0,
		size:     0,
	}
}

// -----------------------------------------------------------------------------

// Append adds a reading (Strict Type)
func (rb *RingBuffer) Append(point models.MSensorPoint) {
	rb.data[rb.index] = [models.RB_NUM_FEATURES]float64{
		float64(point.Timestamp),
		point.Value,
	}

	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns the n latest readings, oldest first
func (rb *RingBuffer) GetLatest(n int) models.MSeries {
	if rb.size == 0 || n <= 0 {
		return models.MSeries{}
	}

	// Calculate how many to return
	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make(models.MSeries, count)

	// Calculate starting index (latest data is at index-1)
	startIdx := (rb.index - count + rb.capacity) % rb.capacity

	for i := 0; i < count; i++ {
		idx := (startIdx + i) % rb.capacity
		row := rb.data[idx]

		result[i] = models.MSensorPoint{
			Timestamp: int64(row[models.RB_IDX_TIMESTAMP]),
			Value:     row[models.RB_IDX_VALUE],
		}
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all readings in insertion order (oldest to newest)
func (rb *RingBuffer) GetAll() models.MSeries {
	if rb.size == 0 {
		return models.MSeries{}
	}

	result := make(models.MSeries, rb.size)

	// Calculate start index (oldest element)
	var startIdx int
	if rb.size == rb.capacity {
		// Buffer is full, oldest is at current index (wrap-around)
		startIdx = rb.index
	} else {
		// Buffer not full, oldest is at index 0
		startIdx = 0
	}

	// Extract in order
	for i := 0; i < rb.size; i++ {
		idx := (startIdx + i) % rb.capacity
		row := rb.data[idx]

		result[i] = models.MSensorPoint{
			Timestamp: int64(row[models.RB_IDX_TIMESTAMP]),
			Value:     row[models.RB_IDX_VALUE],
		}
	}

	return result
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RingBuffer) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// IsFull returns whether buffer is full
func (rb *RingBuffer) IsFull() bool {
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *RingBuffer) Clear() {
	rb.index = 0
	rb.size = 0
}
