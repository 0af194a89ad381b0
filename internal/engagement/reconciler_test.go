package engagement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	likeFn   func(ctx context.Context, postID int64) error
	unlikeFn func(ctx context.Context, postID int64) error
	statusFn func(ctx context.Context, postID int64) (State, error)

	likes, unlikes, statuses atomic.Int32
}

func (f *fakeAPI) Like(ctx context.Context, postID int64) error {
	f.likes.Add(1)
	if f.likeFn == nil {
		return nil
	}
	return f.likeFn(ctx, postID)
}

func (f *fakeAPI) Unlike(ctx context.Context, postID int64) error {
	f.unlikes.Add(1)
	if f.unlikeFn == nil {
		return nil
	}
	return f.unlikeFn(ctx, postID)
}

func (f *fakeAPI) Status(ctx context.Context, postID int64) (State, error) {
	f.statuses.Add(1)
	if f.statusFn == nil {
		return State{}, errors.New("no status")
	}
	return f.statusFn(ctx, postID)
}

func newTestReconciler(api API, cfg Config) *Reconciler {
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReconciler(api, cfg)
}

func record(r *Reconciler) func() []LikeChanged {
	var (
		mu  sync.Mutex
		evs []LikeChanged
	)
	r.Subscribe(func(ev LikeChanged) {
		mu.Lock()
		evs = append(evs, ev)
		mu.Unlock()
	})
	return func() []LikeChanged {
		mu.Lock()
		defer mu.Unlock()
		return append([]LikeChanged(nil), evs...)
	}
}

func TestToggleSuccessKeepsOptimisticState(t *testing.T) {
	api := &fakeAPI{}
	r := newTestReconciler(api, Config{})
	r.Seed(1, State{Liked: false, Count: 3})
	events := record(r)

	require.NoError(t, r.Toggle(context.Background(), 1))

	got, _ := r.State(1)
	assert.Equal(t, State{Liked: true, Count: 4}, got)
	assert.Equal(t, []LikeChanged{{PostID: 1, State: State{Liked: true, Count: 4}, Change: ChangeOptimistic}}, events())
	assert.EqualValues(t, 1, api.likes.Load())
	assert.False(t, r.InFlight(1))
}

func TestToggleFailureRestoresExactState(t *testing.T) {
	api := &fakeAPI{likeFn: func(context.Context, int64) error { return errors.New("500 internal") }}
	r := newTestReconciler(api, Config{})
	r.Seed(1, State{Liked: false, Count: 3})
	events := record(r)

	err := r.Toggle(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrToggleFailed))

	got, _ := r.State(1)
	assert.Equal(t, State{Liked: false, Count: 3}, got)
	assert.Equal(t, []Change{ChangeOptimistic, ChangeRollback}, changes(events()))
	assert.False(t, r.InFlight(1))
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	r := newTestReconciler(&fakeAPI{}, Config{})
	r.Seed(9, State{Count: 7})
	ctx := context.Background()

	require.NoError(t, r.Toggle(ctx, 9))
	got, _ := r.State(9)
	assert.Equal(t, State{Liked: true, Count: 8}, got)

	require.NoError(t, r.Toggle(ctx, 9))
	got, _ = r.State(9)
	assert.Equal(t, State{Liked: false, Count: 7}, got)
}

func TestToggleRequiresLogin(t *testing.T) {
	api := &fakeAPI{}
	r := newTestReconciler(api, Config{LoggedIn: func() bool { return false }})
	r.Seed(1, State{Count: 2})

	err := r.Toggle(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.EqualValues(t, 0, api.likes.Load())
	got, _ := r.State(1)
	assert.Equal(t, State{Count: 2}, got)
}

func TestSecondToggleWhileInFlightIsDropped(t *testing.T) {
	release := make(chan struct{})
	api := &fakeAPI{likeFn: func(context.Context, int64) error {
		<-release
		return nil
	}}
	r := newTestReconciler(api, Config{})
	r.Seed(1, State{Count: 3})

	done := make(chan error, 1)
	go func() { done <- r.Toggle(context.Background(), 1) }()
	require.Eventually(t, func() bool { return r.InFlight(1) }, time.Second, time.Millisecond)

	assert.NoError(t, r.Toggle(context.Background(), 1))
	got, _ := r.State(1)
	assert.Equal(t, State{Liked: true, Count: 4}, got)

	close(release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, api.likes.Load())
	assert.EqualValues(t, 0, api.unlikes.Load())
}

func TestHungToggleTimesOutAndRollsBack(t *testing.T) {
	api := &fakeAPI{likeFn: func(ctx context.Context, _ int64) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	r := newTestReconciler(api, Config{ToggleTimeout: 20 * time.Millisecond})
	r.Seed(1, State{Count: 3})

	err := r.Toggle(context.Background(), 1)
	assert.ErrorIs(t, err, ErrToggleFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, r.InFlight(1))

	got, _ := r.State(1)
	assert.Equal(t, State{Count: 3}, got)
}

func TestToggleIgnoringContextStillTimesOut(t *testing.T) {
	stuck := make(chan struct{})
	defer close(stuck)
	var hang atomic.Bool
	hang.Store(true)
	api := &fakeAPI{likeFn: func(context.Context, int64) error {
		if hang.Load() {
			<-stuck
		}
		return nil
	}}
	r := newTestReconciler(api, Config{ToggleTimeout: 20 * time.Millisecond})
	r.Seed(1, State{Count: 3})
	events := record(r)

	err := r.Toggle(context.Background(), 1)
	assert.ErrorIs(t, err, ErrToggleFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, r.InFlight(1))

	got, _ := r.State(1)
	assert.Equal(t, State{Count: 3}, got)
	assert.Equal(t, []Change{ChangeOptimistic, ChangeRollback}, changes(events()))

	// the guard is released, so the next toggle goes out
	hang.Store(false)
	require.NoError(t, r.Toggle(context.Background(), 1))
	assert.Equal(t, int32(2), api.likes.Load())
}

func TestCheckStatusTrustsServerCount(t *testing.T) {
	server := State{Liked: true, Count: 1}
	api := &fakeAPI{statusFn: func(context.Context, int64) (State, error) { return server, nil }}
	r := newTestReconciler(api, Config{})
	r.Seed(1, State{Liked: false, Count: 12})
	events := record(r)

	r.CheckStatus(context.Background(), 1, ReasonMount)

	got, _ := r.State(1)
	assert.Equal(t, server, got)
	assert.Equal(t, []Change{ChangeRefreshed}, changes(events()))
}

func TestCheckStatusIsThrottledPerReason(t *testing.T) {
	api := &fakeAPI{statusFn: func(context.Context, int64) (State, error) { return State{Count: 1}, nil }}
	r := newTestReconciler(api, Config{Cooldowns: map[Reason]time.Duration{
		ReasonMount: 30 * time.Millisecond,
	}})
	ctx := context.Background()

	r.CheckStatus(ctx, 1, ReasonMount)
	r.CheckStatus(ctx, 1, ReasonMount)
	assert.EqualValues(t, 1, api.statuses.Load())

	// other reasons and other posts have their own windows
	r.CheckStatus(ctx, 1, ReasonFocus)
	r.CheckStatus(ctx, 2, ReasonMount)
	assert.EqualValues(t, 3, api.statuses.Load())

	r.CheckStatus(ctx, 1, ReasonFocus)
	assert.EqualValues(t, 3, api.statuses.Load())

	time.Sleep(40 * time.Millisecond)
	r.CheckStatus(ctx, 1, ReasonMount)
	assert.EqualValues(t, 4, api.statuses.Load())
}

func TestCheckStatusFailureKeepsState(t *testing.T) {
	r := newTestReconciler(&fakeAPI{}, Config{})
	r.Seed(1, State{Liked: true, Count: 5})

	r.CheckStatus(context.Background(), 1, ReasonVisibility)

	got, _ := r.State(1)
	assert.Equal(t, State{Liked: true, Count: 5}, got)
}

func TestCheckStatusDoesNotOverwriteInFlightToggle(t *testing.T) {
	release := make(chan struct{})
	api := &fakeAPI{
		likeFn: func(context.Context, int64) error {
			<-release
			return nil
		},
		statusFn: func(context.Context, int64) (State, error) { return State{Liked: false, Count: 3}, nil },
	}
	r := newTestReconciler(api, Config{})
	r.Seed(1, State{Count: 3})

	done := make(chan error, 1)
	go func() { done <- r.Toggle(context.Background(), 1) }()
	require.Eventually(t, func() bool { return r.InFlight(1) }, time.Second, time.Millisecond)

	r.CheckStatus(context.Background(), 1, ReasonFocus)
	got, _ := r.State(1)
	assert.Equal(t, State{Liked: true, Count: 4}, got)

	close(release)
	require.NoError(t, <-done)
	got, _ = r.State(1)
	assert.Equal(t, State{Liked: true, Count: 4}, got)
}

func TestStaleStatusAfterToggleIsDiscarded(t *testing.T) {
	statusStarted := make(chan struct{})
	statusRelease := make(chan struct{})
	api := &fakeAPI{statusFn: func(context.Context, int64) (State, error) {
		close(statusStarted)
		<-statusRelease
		return State{Liked: false, Count: 3}, nil
	}}
	r := newTestReconciler(api, Config{})
	r.Seed(1, State{Count: 3})

	checked := make(chan struct{})
	go func() {
		r.CheckStatus(context.Background(), 1, ReasonMount)
		close(checked)
	}()
	<-statusStarted
	require.NoError(t, r.Toggle(context.Background(), 1))
	close(statusRelease)
	<-checked

	got, _ := r.State(1)
	assert.Equal(t, State{Liked: true, Count: 4}, got)
}

// blockFirstStatus holds the first status call until release is closed and
// answers with before; every later call answers with after at once.
func blockFirstStatus(before, after State) (api *fakeAPI, started, release chan struct{}) {
	started = make(chan struct{})
	release = make(chan struct{})
	var calls atomic.Int32
	api = &fakeAPI{statusFn: func(context.Context, int64) (State, error) {
		if calls.Add(1) > 1 {
			return after, nil
		}
		close(started)
		<-release
		return before, nil
	}}
	return api, started, release
}

func TestVerifyAfterToggleDoesNotJoinOlderCheck(t *testing.T) {
	api, started, release := blockFirstStatus(State{Count: 3}, State{Liked: true, Count: 4})
	r := newTestReconciler(api, Config{VerifyAfterToggle: true})
	r.Seed(1, State{Count: 3})

	checked := make(chan struct{})
	go func() {
		r.CheckStatus(context.Background(), 1, ReasonMount)
		close(checked)
	}()
	<-started

	toggled := make(chan error, 1)
	go func() { toggled <- r.Toggle(context.Background(), 1) }()
	require.Eventually(t, func() bool { return api.statuses.Load() == 2 }, time.Second, time.Millisecond,
		"verify should issue its own status request")

	close(release)
	<-checked
	require.NoError(t, <-toggled)

	got, _ := r.State(1)
	assert.Equal(t, State{Liked: true, Count: 4}, got)
}

func TestLaterCheckDoesNotApplyOlderAnswer(t *testing.T) {
	api, started, release := blockFirstStatus(State{Count: 3}, State{Liked: true, Count: 4})
	r := newTestReconciler(api, Config{})
	r.Seed(1, State{Count: 3})

	mounted := make(chan struct{})
	go func() {
		r.CheckStatus(context.Background(), 1, ReasonMount)
		close(mounted)
	}()
	<-started
	require.NoError(t, r.Toggle(context.Background(), 1))

	focused := make(chan struct{})
	go func() {
		r.CheckStatus(context.Background(), 1, ReasonFocus)
		close(focused)
	}()
	require.Eventually(t, func() bool { return api.statuses.Load() == 2 }, time.Second, time.Millisecond)
	<-focused

	close(release)
	<-mounted

	got, _ := r.State(1)
	assert.Equal(t, State{Liked: true, Count: 4}, got)
}

func TestCancelledCallerDoesNotFailSharedCheck(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{statusFn: func(ctx context.Context, _ int64) (State, error) {
		close(started)
		select {
		case <-ctx.Done():
			return State{}, ctx.Err()
		case <-release:
			return State{Liked: true, Count: 9}, nil
		}
	}}
	r := newTestReconciler(api, Config{Cooldowns: map[Reason]time.Duration{ReasonFocus: 0}})
	r.Seed(1, State{Count: 8})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan struct{})
	go func() {
		r.CheckStatus(ctx, 1, ReasonFocus)
		close(first)
	}()
	<-started

	second := make(chan struct{})
	go func() {
		r.CheckStatus(context.Background(), 1, ReasonFocus)
		close(second)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-first
	<-second

	assert.Equal(t, int32(1), api.statuses.Load())
	got, _ := r.State(1)
	assert.Equal(t, State{Liked: true, Count: 9}, got)
}

func TestConcurrentChecksShareOneRequest(t *testing.T) {
	release := make(chan struct{})
	api := &fakeAPI{statusFn: func(context.Context, int64) (State, error) {
		<-release
		return State{Liked: true, Count: 2}, nil
	}}
	// a zero cooldown never throttles, so only singleflight can collapse the calls
	r := newTestReconciler(api, Config{Cooldowns: map[Reason]time.Duration{ReasonFocus: 0}})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.CheckStatus(context.Background(), 1, ReasonFocus)
		}()
	}
	require.Eventually(t, func() bool { return api.statuses.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, api.statuses.Load())
	got, _ := r.State(1)
	assert.Equal(t, State{Liked: true, Count: 2}, got)
}

func TestVerifyAfterToggleCorrectsSilently(t *testing.T) {
	api := &fakeAPI{statusFn: func(context.Context, int64) (State, error) {
		return State{Liked: true, Count: 40}, nil
	}}
	r := newTestReconciler(api, Config{VerifyAfterToggle: true})
	r.Seed(1, State{Count: 3})

	require.NoError(t, r.Toggle(context.Background(), 1))
	got, _ := r.State(1)
	assert.Equal(t, State{Liked: true, Count: 40}, got)
}

func TestSeedOnlyOnce(t *testing.T) {
	r := newTestReconciler(&fakeAPI{}, Config{})
	r.Seed(1, State{Count: 3})
	assert.Equal(t, State{Count: 3}, r.Seed(1, State{Count: 99}))
}

func changes(evs []LikeChanged) []Change {
	out := make([]Change, len(evs))
	for i, ev := range evs {
		out[i] = ev.Change
	}
	return out
}
