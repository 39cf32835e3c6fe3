package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"commitmsg/llmerr"
)

func TestDelayFormula(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 5 * time.Second}, // capped
		{10, 5 * time.Second},
		{63, 5 * time.Second}, // shift overflow still capped
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v; want %v", tt.attempt, got, tt.want)
		}
	}
}

// script returns an attempt func that replays the given outcomes in order;
// a nil error means success with the given body.
func script(t *testing.T, calls *int, outcomes ...error) func(context.Context) (string, error) {
	t.Helper()
	return func(context.Context) (string, error) {
		if *calls >= len(outcomes) {
			t.Fatalf("unexpected attempt %d", *calls)
		}
		err := outcomes[*calls]
		*calls++
		if err != nil {
			return "", err
		}
		return "ok", nil
	}
}

func fastPolicy(maxRetries int) Policy {
	return Policy{MaxRetries: maxRetries, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDoSucceedsAfterRetryableFailures(t *testing.T) {
	calls := 0
	body, err := Do(context.Background(), fastPolicy(2), zap.NewNop(), script(t, &calls,
		&llmerr.Error{Category: llmerr.TLSHandshake},
		&llmerr.Error{Category: llmerr.ConnectionReset},
		nil,
	))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if body != "ok" {
		t.Errorf("body = %q; want %q", body, "ok")
	}
	if calls != 3 {
		t.Errorf("attempts = %d; want 3", calls)
	}
}

func TestDoExhaustsRetryBudget(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(1), nil, script(t, &calls,
		&llmerr.Error{Category: llmerr.Timeout},
		&llmerr.Error{Category: llmerr.Timeout},
	))
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 2 {
		t.Errorf("attempts = %d; want 2", calls)
	}
	if got := llmerr.CategoryOf(err); got != llmerr.Timeout {
		t.Errorf("terminal category = %v; want %v", got, llmerr.Timeout)
	}
	if !strings.Contains(err.Error(), llmerr.Timeout.Advice()) {
		t.Errorf("terminal message %q does not use the timeout template", err.Error())
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	for _, category := range []llmerr.Category{llmerr.Auth, llmerr.MalformedResponse, llmerr.RateLimit} {
		calls := 0
		_, err := Do(context.Background(), fastPolicy(5), zap.NewNop(), script(t, &calls,
			&llmerr.Error{Category: category},
		))
		if err == nil {
			t.Fatalf("%v: expected error", category)
		}
		if calls != 1 {
			t.Errorf("%v: attempts = %d; want 1", category, calls)
		}
	}
}

func TestDoZeroRetries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(0), zap.NewNop(), script(t, &calls,
		&llmerr.Error{Category: llmerr.ServerError},
	))
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("attempts = %d; want 1", calls)
	}
}

func TestDoUnclassifiedErrorIsNotRetried(t *testing.T) {
	calls := 0
	raw := errors.New("boom")
	_, err := Do(context.Background(), fastPolicy(3), zap.NewNop(), script(t, &calls, raw))
	if !errors.Is(err, raw) {
		t.Errorf("err = %v; want the raw cause preserved", err)
	}
	if calls != 1 {
		t.Errorf("attempts = %d; want 1", calls)
	}
}

func TestDoBacksOffBetweenAttempts(t *testing.T) {
	p := Policy{MaxRetries: 2, BaseDelay: 20 * time.Millisecond, MaxDelay: 100 * time.Millisecond}
	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), p, zap.NewNop(), script(t, &calls,
		&llmerr.Error{Category: llmerr.ServerError},
		&llmerr.Error{Category: llmerr.ServerError},
		nil,
	))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	// Two backoffs: 20ms then 40ms.
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("elapsed = %v; want at least 60ms of backoff", elapsed)
	}
}

func TestDoHonorsContextDuringBackoff(t *testing.T) {
	p := Policy{MaxRetries: 3, BaseDelay: time.Minute, MaxDelay: time.Minute}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	calls := 0
	start := time.Now()
	_, err := Do(ctx, p, zap.NewNop(), script(t, &calls,
		&llmerr.Error{Category: llmerr.ServerError},
	))
	if err == nil {
		t.Fatal("expected error when context expires during backoff")
	}
	if calls != 1 {
		t.Errorf("attempts = %d; want 1", calls)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Do slept %v instead of honoring the context", elapsed)
	}
	if got := llmerr.CategoryOf(err); got != llmerr.Timeout {
		t.Errorf("category = %v; want %v", got, llmerr.Timeout)
	}
}
