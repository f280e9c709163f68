package repository

import "testing"

func TestLimitOrDefault(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, defaultListLimit},
		{-3, defaultListLimit},
		{25, 25},
		{1000, 1000},
		{1001, defaultListLimit},
	}
	for _, tt := range tests {
		if got := limitOrDefault(tt.in); got != tt.want {
			t.Errorf("limitOrDefault(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
