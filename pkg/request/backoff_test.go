package request

import (
	"context"
	"testing"
	"time"
)

func TestBackoffPenaltyDoubles(t *testing.T) {
	b := NewProviderBackoff(1*time.Second, 60*time.Second)

	// Expected hold-off after n consecutive failures, with room for the
	// 10% jitter and test scheduling.
	steps := []struct {
		minMs, maxMs int64
	}{
		{900, 1200},  // 1s
		{1900, 2400}, // 2s
		{3900, 4800}, // 4s
		{7800, 9600}, // 8s
	}

	for i, step := range steps {
		b.RecordFailure("open-meteo")

		failures, until := b.State("open-meteo")
		if failures != i+1 {
			t.Fatalf("after %d failures: count = %d", i+1, failures)
		}
		ms := time.Until(until).Milliseconds()
		if ms < step.minMs || ms > step.maxMs {
			t.Errorf("failure %d: hold-off %dms, want %d..%dms", i+1, ms, step.minMs, step.maxMs)
		}
	}
}

func TestBackoffCapped(t *testing.T) {
	b := NewProviderBackoff(1*time.Second, 10*time.Second)

	for i := 0; i < 20; i++ {
		b.RecordFailure("opentopodata")
	}

	_, until := b.State("opentopodata")
	if ms := time.Until(until).Milliseconds(); ms > 11500 {
		t.Errorf("hold-off %dms exceeds cap plus jitter", ms)
	}
}

func TestBackoffUnwindsOnSuccess(t *testing.T) {
	b := NewProviderBackoff(1*time.Second, 60*time.Second)

	b.RecordFailure("open-meteo")
	b.RecordFailure("open-meteo")
	b.RecordFailure("open-meteo")

	b.RecordSuccess("open-meteo")
	if failures, _ := b.State("open-meteo"); failures != 2 {
		t.Errorf("after one success: count = %d, want 2", failures)
	}

	b.RecordSuccess("open-meteo")
	b.RecordSuccess("open-meteo")
	failures, until := b.State("open-meteo")
	if failures != 0 || !until.IsZero() {
		t.Errorf("fully recovered provider still held: count=%d until=%v", failures, until)
	}
}

func TestBackoffProvidersIndependent(t *testing.T) {
	b := NewProviderBackoff(1*time.Second, 60*time.Second)

	b.RecordFailure("open-meteo")
	b.RecordFailure("open-meteo")

	if failures, _ := b.State("opentopodata"); failures != 0 {
		t.Errorf("untouched provider has %d failures", failures)
	}
}

func TestBackoffWaitRespectsCancellation(t *testing.T) {
	b := NewProviderBackoff(5*time.Second, 60*time.Second)
	b.RecordFailure("open-meteo")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := b.Wait(ctx, "open-meteo")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Wait returned nil for a cancelled context")
	}
	if elapsed > 1*time.Second {
		t.Errorf("Wait blocked %v after cancellation instead of returning", elapsed)
	}
}

func TestBackoffWaitPassesCleanProvider(t *testing.T) {
	b := NewProviderBackoff(5*time.Second, 60*time.Second)

	start := time.Now()
	if err := b.Wait(context.Background(), "open-meteo"); err != nil {
		t.Fatalf("Wait on clean provider: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Wait on clean provider blocked %v", elapsed)
	}
}
