package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var (
	ErrNotAuthenticated = errors.New("must be logged in")
	ErrToggleFailed     = errors.New("like toggle failed")
)

// API is the server side of a like toggle. Implementations should return once
// ctx is done; a call that does not is abandoned after ToggleTimeout and its
// result is ignored.
type API interface {
	Like(ctx context.Context, postID int64) error
	Unlike(ctx context.Context, postID int64) error
	Status(ctx context.Context, postID int64) (State, error)
}

// State is what the client shows for one post.
type State struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}

// Reason says what triggered a status check. Each reason has its own cooldown.
type Reason string

const (
	ReasonMount      Reason = "mount"
	ReasonFocus      Reason = "focus"
	ReasonVisibility Reason = "visibility"
)

// Change tells observers why the state moved.
type Change string

const (
	ChangeSeeded     Change = "seeded"
	ChangeOptimistic Change = "optimistic"
	ChangeRollback   Change = "rollback"
	ChangeRefreshed  Change = "refreshed"
)

type LikeChanged struct {
	PostID int64
	State  State
	Change Change
}

type Config struct {
	// ToggleTimeout bounds a like/unlike call and a status check. An expired
	// toggle rolls back.
	ToggleTimeout time.Duration
	// Cooldowns is the minimum gap between status checks per post and reason.
	Cooldowns map[Reason]time.Duration
	// VerifyAfterToggle runs a status check after every successful toggle.
	VerifyAfterToggle bool
	// LoggedIn reports whether there is an acting user.
	LoggedIn func() bool
	Logger   *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		ToggleTimeout: 10 * time.Second,
		Cooldowns: map[Reason]time.Duration{
			ReasonMount:      500 * time.Millisecond,
			ReasonFocus:      2 * time.Second,
			ReasonVisibility: time.Second,
		},
	}
}

type post struct {
	state    State
	inFlight bool
	// generation moves on every toggle so a status response that started
	// before the toggle is discarded.
	generation uint64
	limiters   map[Reason]*rate.Limiter
}

// Reconciler applies like toggles optimistically and reconciles them with the server.
type Reconciler struct {
	api API
	cfg Config
	log *slog.Logger

	mu    sync.Mutex
	posts map[int64]*post

	checks singleflight.Group
	bus    *Bus[LikeChanged]
}

func NewReconciler(api API, cfg Config) *Reconciler {
	def := DefaultConfig()
	if cfg.ToggleTimeout <= 0 {
		cfg.ToggleTimeout = def.ToggleTimeout
	}
	cooldowns := make(map[Reason]time.Duration, len(def.Cooldowns))
	for reason, d := range def.Cooldowns {
		cooldowns[reason] = d
	}
	for reason, d := range cfg.Cooldowns {
		cooldowns[reason] = d
	}
	cfg.Cooldowns = cooldowns
	if cfg.LoggedIn == nil {
		cfg.LoggedIn = func() bool { return true }
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{
		api:   api,
		cfg:   cfg,
		log:   log,
		posts: make(map[int64]*post),
		bus:   NewBus[LikeChanged](),
	}
}

// Subscribe registers an observer of state changes.
func (r *Reconciler) Subscribe(fn func(LikeChanged)) func() {
	return r.bus.Subscribe(fn)
}

// Seed records the server values a post was first rendered with. Later seeds are ignored.
func (r *Reconciler) Seed(postID int64, s State) State {
	r.mu.Lock()
	if p, ok := r.posts[postID]; ok {
		cur := p.state
		r.mu.Unlock()
		return cur
	}
	r.posts[postID] = &post{state: s, limiters: make(map[Reason]*rate.Limiter)}
	r.mu.Unlock()

	r.bus.Publish(LikeChanged{PostID: postID, State: s, Change: ChangeSeeded})
	return s
}

func (r *Reconciler) State(postID int64) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return State{}, false
	}
	return p.state, true
}

// InFlight reports whether a toggle for postID is waiting on the server.
func (r *Reconciler) InFlight(postID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	return ok && p.inFlight
}

// Toggle flips the like on postID. A toggle issued while another one for the
// same post is in flight is dropped and returns nil.
func (r *Reconciler) Toggle(ctx context.Context, postID int64) error {
	if !r.cfg.LoggedIn() {
		return ErrNotAuthenticated
	}

	r.mu.Lock()
	p := r.entry(postID)
	if p.inFlight {
		r.mu.Unlock()
		return nil
	}
	prev := p.state
	p.inFlight = true
	p.generation++
	p.state.Liked = !prev.Liked
	if p.state.Liked {
		p.state.Count++
	} else if p.state.Count > 0 {
		p.state.Count--
	}
	next := p.state
	r.mu.Unlock()

	r.bus.Publish(LikeChanged{PostID: postID, State: next, Change: ChangeOptimistic})

	err := r.send(ctx, postID, next.Liked)

	r.mu.Lock()
	p.inFlight = false
	if err != nil {
		p.state = prev
	}
	r.mu.Unlock()

	if err != nil {
		r.log.Warn("like toggle rolled back", "post_id", postID, "liked", next.Liked, "error", err)
		r.bus.Publish(LikeChanged{PostID: postID, State: prev, Change: ChangeRollback})
		return fmt.Errorf("%w: %w", ErrToggleFailed, err)
	}

	if r.cfg.VerifyAfterToggle {
		r.refresh(ctx, postID)
	}
	return nil
}

// send issues the like or unlike and gives up at the deadline even when the
// API call ignores its context.
func (r *Reconciler) send(ctx context.Context, postID int64, like bool) error {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.ToggleTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		if like {
			done <- r.api.Like(callCtx, postID)
		} else {
			done <- r.api.Unlike(callCtx, postID)
		}
	}()
	select {
	case err := <-done:
		return err
	case <-callCtx.Done():
		return callCtx.Err()
	}
}

// CheckStatus asks the server for the post's state unless the cooldown for
// reason has not elapsed. Concurrent checks for one post share a request.
// Failures leave the current state in place.
func (r *Reconciler) CheckStatus(ctx context.Context, postID int64, reason Reason) {
	r.mu.Lock()
	p := r.entry(postID)
	lim, ok := p.limiters[reason]
	if !ok {
		lim = rate.NewLimiter(rate.Every(r.cfg.Cooldowns[reason]), 1)
		p.limiters[reason] = lim
	}
	r.mu.Unlock()

	if !lim.Allow() {
		return
	}
	r.refresh(ctx, postID)
}

// refresh only shares a request with checks started at the same generation, so
// a check issued after a toggle never receives an answer from before it. The
// shared call runs detached from any one caller's cancellation.
func (r *Reconciler) refresh(ctx context.Context, postID int64) {
	r.mu.Lock()
	gen := r.entry(postID).generation
	r.mu.Unlock()

	key := strconv.FormatInt(postID, 10) + ":" + strconv.FormatUint(gen, 10)
	v, err, _ := r.checks.Do(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.ToggleTimeout)
		defer cancel()
		return r.api.Status(callCtx, postID)
	})
	if err != nil {
		r.log.Warn("like status check failed", "post_id", postID, "error", err)
		return
	}
	server := v.(State)

	r.mu.Lock()
	p := r.entry(postID)
	if p.inFlight || p.generation != gen || p.state == server {
		r.mu.Unlock()
		return
	}
	p.state = server
	r.mu.Unlock()

	r.bus.Publish(LikeChanged{PostID: postID, State: server, Change: ChangeRefreshed})
}

// entry must be called with mu held.
func (r *Reconciler) entry(postID int64) *post {
	p, ok := r.posts[postID]
	if !ok {
		p = &post{limiters: make(map[Reason]*rate.Limiter)}
		r.posts[postID] = p
	}
	return p
}
