package timeutil

import (
	"testing"
	"time"
)

func TestNow_AlwaysUTC(t *testing.T) {
	now := Now()

	if now.Location() != time.UTC {
		t.Errorf("Now() returned non-UTC timezone: %v", now.Location())
	}
}

func TestEpochMillis(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "epoch",
			input:    time.Unix(0, 0),
			expected: "0",
		},
		{
			name:     "whole seconds",
			input:    time.Unix(1700000000, 0),
			expected: "1700000000000",
		},
		{
			name:     "sub-millisecond truncated",
			input:    time.Unix(1700000000, 123999999),
			expected: "1700000000123",
		},
		{
			name:     "non-UTC location",
			input:    time.Date(2023, 11, 14, 17, 13, 20, 0, time.FixedZone("EST", -5*3600)),
			expected: "1700000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EpochMillis(tt.input); got != tt.expected {
				t.Errorf("EpochMillis() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2025, 11, 20, 12, 30, 45, 0, time.FixedZone("PST", -8*3600))
	clock := FixedClock{At: at}

	got := clock.Now()
	if !got.Equal(at) {
		t.Errorf("FixedClock.Now() = %v, want %v", got, at)
	}
	if got.Location() != time.UTC {
		t.Errorf("FixedClock.Now() returned non-UTC timezone: %v", got.Location())
	}
}

func TestSystemClock_AlwaysUTC(t *testing.T) {
	var clock Clock = SystemClock{}

	if clock.Now().Location() != time.UTC {
		t.Errorf("SystemClock.Now() returned non-UTC timezone: %v", clock.Now().Location())
	}
}
