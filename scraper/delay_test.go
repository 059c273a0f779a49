package scraper

import (
	"testing"
	"time"
)

func TestPageDelaySteps(t *testing.T) {
	tests := []struct {
		page     int
		expected time.Duration
	}{
		{page: 1, expected: time.Second},
		{page: 5, expected: time.Second},
		{page: 6, expected: 2 * time.Second},
		{page: 10, expected: 2 * time.Second},
		{page: 11, expected: 2500 * time.Millisecond},
		{page: 15, expected: 2500 * time.Millisecond},
		{page: 16, expected: 3 * time.Second},
		{page: 100, expected: 3 * time.Second},
	}

	for _, tt := range tests {
		if got := PageDelay(tt.page); got != tt.expected {
			t.Errorf("PageDelay(%d) = %v, want %v", tt.page, got, tt.expected)
		}
	}
}
