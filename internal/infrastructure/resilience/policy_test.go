package resilience

import (
	"testing"
	"time"
)

func TestNormalizeFillsZeroValues(t *testing.T) {
	got := Config{}.normalize()
	want := DefaultConfig()
	want.BreakerEnabled = false

	if got != want {
		t.Fatalf("normalize() = %+v, want %+v", got, want)
	}
}

func TestNormalizeClampsBackoffWindow(t *testing.T) {
	got := Config{
		RetryInitialBackoff: time.Second,
		RetryMaxBackoff:     100 * time.Millisecond,
	}.normalize()

	if got.RetryMaxBackoff != time.Second {
		t.Fatalf("max backoff = %v, want clamped to initial %v", got.RetryMaxBackoff, time.Second)
	}
}

func TestNormalizeRejectsBadFailureRatio(t *testing.T) {
	got := Config{BreakerFailureRatio: 1.5}.normalize()
	if got.BreakerFailureRatio != DefaultConfig().BreakerFailureRatio {
		t.Fatalf("failure ratio = %v, want default", got.BreakerFailureRatio)
	}
}
