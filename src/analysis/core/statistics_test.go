package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMeanStd(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		wantMean float64
		wantStd  float64
	}{
		{"empty", nil, 0, 0},
		{"single", []float64{42.5}, 42.5, 0},
		{"constant", []float64{3, 3, 3, 3}, 3, 0},
		{"known", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := CalculateMeanStd(tt.data)
			assert.InDelta(t, tt.wantMean, mean, 1e-9)
			assert.InDelta(t, tt.wantStd, std, 1e-9)
		})
	}
}

func TestMinMax(t *testing.T) {
	min, max := MinMax([]float64{3.5, -2, 7, 0})
	assert.Equal(t, -2.0, min)
	assert.Equal(t, 7.0, max)

	min, max = MinMax(nil)
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 0.0, max)

	min, max = MinMax([]float64{1.25})
	assert.Equal(t, 1.25, min)
	assert.Equal(t, 1.25, max)
}
