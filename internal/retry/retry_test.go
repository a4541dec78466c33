package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSleeper struct {
	waits []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	return ctx.Err()
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	fs := &fakeSleeper{}
	p := Policy{MaxAttempts: 3, Delay: 2 * time.Second, Sleep: fs.Sleep}

	var attempts []int
	err := p.Do(context.Background(), func(attempt int) error {
		attempts = append(attempts, attempt)
		if attempt < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, fs.waits)
}

func TestDo_ReturnsLastError(t *testing.T) {
	fs := &fakeSleeper{}
	p := Policy{MaxAttempts: 3, Delay: time.Second, Sleep: fs.Sleep}

	calls := 0
	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		return errors.New("fail " + string(rune('0'+attempt)))
	})
	assert.EqualError(t, err, "fail 3")
	assert.Equal(t, 3, calls)
	assert.Len(t, fs.waits, 2, "no wait after the final attempt")
}

func TestDo_ImmediateSkipsDelay(t *testing.T) {
	fs := &fakeSleeper{}
	p := Policy{MaxAttempts: 3, Delay: time.Second, Sleep: fs.Sleep}
	bad := errors.New("bad json")

	err := p.Do(context.Background(), func(int) error { return Immediate(bad) })
	assert.Same(t, bad, err)
	assert.Empty(t, fs.waits)
}

func TestDo_PermanentStops(t *testing.T) {
	p := Policy{MaxAttempts: 5, Delay: time.Second, Sleep: (&fakeSleeper{}).Sleep}
	calls := 0
	denied := errors.New("denied")
	err := p.Do(context.Background(), func(int) error {
		calls++
		return Permanent(denied)
	})
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, 1, calls)
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, Delay: time.Hour}

	calls := 0
	err := p.Do(ctx, func(int) error {
		calls++
		cancel()
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, calls)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
