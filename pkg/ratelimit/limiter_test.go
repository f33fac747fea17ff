package ratelimit_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/proshot/pkg/ratelimit"
)

func TestAllowRespectsBurst(t *testing.T) {
	l := ratelimit.New(1, 2)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("a") {
		t.Error("third event should be limited")
	}
	if !l.Allow("b") {
		t.Error("keys should not share buckets")
	}
}

func TestDisabledLimiter(t *testing.T) {
	l := ratelimit.New(0, 0)
	for i := range 100 {
		if !l.Allow("a") {
			t.Fatalf("event %d limited with limiting disabled", i)
		}
	}
}

func TestForget(t *testing.T) {
	l := ratelimit.New(1, 1)
	l.Allow("old")

	if n := l.Forget(time.Now().Add(time.Second)); n != 1 {
		t.Errorf("removed = %d, want 1", n)
	}
	if !l.Allow("old") {
		t.Error("forgotten key should start with a fresh bucket")
	}
}

func TestDelay(t *testing.T) {
	l := ratelimit.New(60, 1)

	if d := l.Delay("a"); d != 0 {
		t.Errorf("fresh bucket delay = %v", d)
	}
	l.Allow("a")
	if d := l.Delay("a"); d <= 0 || d > time.Second {
		t.Errorf("empty bucket delay = %v, want (0, 1s]", d)
	}

	if d := ratelimit.New(0, 0).Delay("a"); d != 0 {
		t.Errorf("disabled limiter delay = %v", d)
	}
}
