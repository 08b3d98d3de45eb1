package autosave

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podium/internal/content/models"
	"podium/internal/identity"
	"podium/pkg/domain"
)

// flushRecorder is a controllable FlushFunc double.
type flushRecorder struct {
	mu        sync.Mutex
	calls     []models.Fields
	inFlight  int
	maxInFlit int
	delay     time.Duration
	failures  int // fail this many calls, then succeed
}

func (f *flushRecorder) flush(ctx context.Context, _ identity.Principal, _ domain.ResourceID, fields models.Fields) (time.Time, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlit {
		f.maxInFlit = f.inFlight
	}
	delay := f.delay
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	f.inFlight--
	if !fail {
		f.calls = append(f.calls, fields)
	}
	f.mu.Unlock()

	if fail {
		return time.Time{}, errors.New("store unavailable")
	}
	return time.Now(), nil
}

func (f *flushRecorder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func strptr(s string) *string { return &s }

func newTestPrincipal(t *testing.T) identity.Principal {
	t.Helper()
	p, err := identity.NewAuthenticated(domain.NewPrincipalID())
	require.NoError(t, err)
	return p
}

func TestBurstCoalescesIntoOneFlush(t *testing.T) {
	rec := &flushRecorder{}
	coord := New(rec.flush, slog.New(slog.DiscardHandler), WithWindow(30*time.Millisecond))
	defer coord.Close()
	p := newTestPrincipal(t)
	id := domain.NewResourceID()

	require.NoError(t, coord.Schedule(p, id, models.Fields{Title: strptr("v1")}))
	require.NoError(t, coord.Schedule(p, id, models.Fields{Body: strptr("draft body")}))
	require.NoError(t, coord.Schedule(p, id, models.Fields{Title: strptr("v3")}))

	require.Eventually(t, func() bool { return rec.callCount() == 1 }, time.Second, 5*time.Millisecond)
	// Quiet period: no second flush appears.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, rec.callCount())

	got := rec.calls[0]
	assert.Equal(t, "v3", *got.Title, "later fields override earlier ones")
	assert.Equal(t, "draft body", *got.Body)
}

func TestScheduleDuringFlightQueuesSecondFlush(t *testing.T) {
	rec := &flushRecorder{delay: 80 * time.Millisecond}
	coord := New(rec.flush, slog.New(slog.DiscardHandler), WithWindow(10*time.Millisecond))
	defer coord.Close()
	p := newTestPrincipal(t)
	id := domain.NewResourceID()

	require.NoError(t, coord.Schedule(p, id, models.Fields{Title: strptr("first")}))

	// Wait until the first flush is in flight, then schedule more edits.
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.inFlight == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, coord.Schedule(p, id, models.Fields{Title: strptr("second")}))

	require.Eventually(t, func() bool { return rec.callCount() == 2 }, 2*time.Second, 5*time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.maxInFlit, "never two concurrent flushes for one resource")
	assert.Equal(t, "first", *rec.calls[0].Title)
	assert.Equal(t, "second", *rec.calls[1].Title)
}

func TestIndependentResourcesFlushIndependently(t *testing.T) {
	rec := &flushRecorder{}
	coord := New(rec.flush, slog.New(slog.DiscardHandler), WithWindow(20*time.Millisecond))
	defer coord.Close()
	p := newTestPrincipal(t)

	require.NoError(t, coord.Schedule(p, domain.NewResourceID(), models.Fields{Title: strptr("a")}))
	require.NoError(t, coord.Schedule(p, domain.NewResourceID(), models.Fields{Title: strptr("b")}))

	require.Eventually(t, func() bool { return rec.callCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestFailedFlushKeepsBufferForSaveNow(t *testing.T) {
	rec := &flushRecorder{failures: 1}
	var failedID domain.ResourceID
	var failMu sync.Mutex
	coord := New(rec.flush, slog.New(slog.DiscardHandler),
		WithWindow(10*time.Millisecond),
		WithErrorFunc(func(id domain.ResourceID, err error) {
			failMu.Lock()
			failedID = id
			failMu.Unlock()
		}),
	)
	defer coord.Close()
	p := newTestPrincipal(t)
	id := domain.NewResourceID()

	require.NoError(t, coord.Schedule(p, id, models.Fields{Title: strptr("unsaved")}))

	// The failure surfaces and the buffer stays pending; no automatic retry loop.
	require.Eventually(t, func() bool {
		failMu.Lock()
		defer failMu.Unlock()
		return failedID == id
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, rec.callCount())
	require.True(t, coord.Pending(id))

	// Explicit retry flushes the preserved buffer.
	ts, err := coord.SaveNow(context.Background(), p, id, models.Fields{})
	require.NoError(t, err)
	assert.False(t, ts.IsZero())
	require.Equal(t, 1, rec.callCount())
	assert.Equal(t, "unsaved", *rec.calls[0].Title)
	assert.False(t, coord.Pending(id))
}

func TestSaveNowWaitsForInFlightWrite(t *testing.T) {
	rec := &flushRecorder{delay: 60 * time.Millisecond}
	coord := New(rec.flush, slog.New(slog.DiscardHandler), WithWindow(5*time.Millisecond))
	defer coord.Close()
	p := newTestPrincipal(t)
	id := domain.NewResourceID()

	require.NoError(t, coord.Schedule(p, id, models.Fields{Title: strptr("background")}))
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.inFlight == 1
	}, time.Second, time.Millisecond)

	_, err := coord.SaveNow(context.Background(), p, id, models.Fields{Title: strptr("urgent")})
	require.NoError(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.maxInFlit)
	require.Len(t, rec.calls, 2)
	assert.Equal(t, "urgent", *rec.calls[1].Title)
}

func TestSaveNowWithoutBufferIsRejected(t *testing.T) {
	rec := &flushRecorder{}
	coord := New(rec.flush, slog.New(slog.DiscardHandler))
	defer coord.Close()

	_, err := coord.SaveNow(context.Background(), newTestPrincipal(t), domain.NewResourceID(), models.Fields{})
	require.Error(t, err)
}

func TestCloseCancelsPendingTimers(t *testing.T) {
	rec := &flushRecorder{}
	coord := New(rec.flush, slog.New(slog.DiscardHandler), WithWindow(time.Hour))
	p := newTestPrincipal(t)

	require.NoError(t, coord.Schedule(p, domain.NewResourceID(), models.Fields{Title: strptr("never flushed")}))
	coord.Close()

	assert.Equal(t, 0, rec.callCount())
	assert.ErrorContains(t, coord.Schedule(p, domain.NewResourceID(), models.Fields{Title: strptr("late")}), "shut down")
}

func TestTimerFiringDuringCloseStartsNoFlush(t *testing.T) {
	rec := &flushRecorder{}
	coord := New(rec.flush, slog.New(slog.DiscardHandler), WithWindow(time.Hour))
	p := newTestPrincipal(t)
	id := domain.NewResourceID()

	require.NoError(t, coord.Schedule(p, id, models.Fields{Title: strptr("late edit")}))

	coord.mu.Lock()
	sl := coord.slots[id]
	coord.mu.Unlock()

	coord.Close()

	// Drive the timer callback by hand, standing in for a fire that already
	// left the timer queue when Close stopped the timers. It must not start a
	// flush once Close has begun waiting on the flight group.
	sl.fire()

	assert.Equal(t, 0, rec.callCount())
	assert.True(t, sl.hasPending, "the unflushed buffer is simply left behind")
}

func TestCloseWaitsForInFlightFlush(t *testing.T) {
	rec := &flushRecorder{delay: 50 * time.Millisecond}
	coord := New(rec.flush, slog.New(slog.DiscardHandler), WithWindow(time.Millisecond))
	p := newTestPrincipal(t)
	id := domain.NewResourceID()

	require.NoError(t, coord.Schedule(p, id, models.Fields{Title: strptr("must land")}))
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.inFlight == 1
	}, time.Second, time.Millisecond)

	coord.Close()
	assert.Equal(t, 1, rec.callCount(), "in-flight write ran to completion")
}
