package models

// RingBuffer indices and constants
const (
	RB_IDX_TIMESTAMP = 0
	RB_IDX_VALUE     = 1
	RB_NUM_FEATURES  = 2
)
