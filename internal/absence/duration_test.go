package absence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"01:30", 1.5},
		{"00:45", 0.75},
		{"10:00", 10},
		{" 02:15 ", 2.25},
		{"01:30:00", 1.5},
		{"", 0},
		{"00:00", 0},
		{"garbage", 0},
		{"1:75", 0},
		{"-1:30", 0},
		{"12", 0},
		{"a:b", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseDuration(tt.in), 1e-9)
		})
	}
}

func TestFindDuration(t *testing.T) {
	assert.InDelta(t, 1.25, FindDuration("Atraso 01:15"), 1e-9)
	assert.InDelta(t, 0.5, FindDuration("00:30"), 1e-9)
	assert.Equal(t, 0.0, FindDuration("Atraso"))
	assert.Equal(t, 0.0, FindDuration(""))
}
