package ratelimiter

import (
	"testing"
	"time"
)

func TestFixedWindowLimiter(t *testing.T) {
	rl := NewFixedWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if allowed, _ := rl.Allow("10.0.0.1"); !allowed {
			t.Fatalf("request %d denied below the limit", i+1)
		}
	}

	allowed, retryAfter := rl.Allow("10.0.0.1")
	if allowed {
		t.Fatal("request above the limit was allowed")
	}
	if retryAfter != time.Minute {
		t.Errorf("retry after = %v, want %v", retryAfter, time.Minute)
	}

	// Other clients have their own window.
	if allowed, _ := rl.Allow("10.0.0.2"); !allowed {
		t.Error("unrelated client denied")
	}
}
