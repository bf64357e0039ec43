package usecase

import (
	"context"
	"time"

	"DashSync/internal/domain/feederr"
	"DashSync/internal/domain/models"
	drepo "DashSync/internal/domain/repository"
	"DashSync/pkg/clock"
	"DashSync/pkg/logger"
	"DashSync/pkg/loop"
)

// FetchFunc performs one fetch. It runs off the loop goroutine.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Handle identifies one run of a FeedController. Stopping with a handle from
// an older run is a no-op.
type Handle struct {
	Key        string
	Generation uint64
}

// Result of one fetch, delivered on the loop goroutine.
type Result[T any] struct {
	Key        string
	Generation uint64
	Value      T
	Err        error
	ObservedAt time.Time
}

// FeedState is the observable lifecycle state of a controller.
type FeedState struct {
	InstrumentKey string        `json:"instrument"`
	Interval      time.Duration `json:"interval_ns"`
	Generation    uint64        `json:"generation"`
	Active        bool          `json:"active"`
}

// FeedEnv carries what every controller needs from its owner.
type FeedEnv struct {
	Loop    loop.Poster
	Clock   clock.Clock
	Ctx     context.Context // lifetime of in-flight fetches
	Metrics drepo.Metrics
	Log     *logger.Logger
}

// FeedController polls one fetch function on a fixed interval and drops any
// result whose generation was superseded before it completed.
//
// Every method must be called on the loop goroutine named in FeedEnv.
type FeedController[T any] struct {
	feed models.Feed
	env  FeedEnv

	state       FeedState
	timer       clock.Timer
	fetch       FetchFunc[T]
	onResult    func(Result[T])
	onAuthError func()
}

// NewFeedController creates an idle controller for feed.
func NewFeedController[T any](feed models.Feed, env FeedEnv) *FeedController[T] {
	return &FeedController[T]{feed: feed, env: env}
}

// Start begins a new generation: fetch runs immediately, then every interval
// after the previous fetch completes. An interval of zero fetches once.
// A running generation is stopped first.
func (c *FeedController[T]) Start(key string, interval time.Duration, fetch FetchFunc[T], onResult func(Result[T]), onAuthError func()) Handle {
	if c.state.Active {
		c.halt()
	}
	c.state.Generation++
	c.state.InstrumentKey = key
	c.state.Interval = interval
	c.state.Active = true
	c.fetch = fetch
	c.onResult = onResult
	c.onAuthError = onAuthError

	c.env.Log.Debug("feed started",
		logger.String("feed", string(c.feed)),
		logger.String("key", key),
		logger.Uint64("generation", c.state.Generation),
		logger.Duration("interval_ms", interval),
	)

	c.tick(c.state.Generation)
	return Handle{Key: key, Generation: c.state.Generation}
}

// Stop cancels the pending tick and retires the generation named by h.
// It reports false when h is not the live generation.
func (c *FeedController[T]) Stop(h Handle) bool {
	if !c.state.Active || h.Generation != c.state.Generation {
		return false
	}
	c.halt()
	c.env.Log.Debug("feed stopped",
		logger.String("feed", string(c.feed)),
		logger.String("key", h.Key),
		logger.Uint64("generation", h.Generation),
	)
	return true
}

// State returns a copy of the lifecycle state.
func (c *FeedController[T]) State() FeedState { return c.state }

// halt cancels the timer and bumps the generation so in-flight results are stale.
func (c *FeedController[T]) halt() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state.Active = false
	c.state.Generation++
}

func (c *FeedController[T]) live(gen uint64) bool {
	return c.state.Active && c.state.Generation == gen
}

func (c *FeedController[T]) tick(gen uint64) {
	if !c.live(gen) {
		return
	}
	c.timer = nil

	fetch := c.fetch
	ctx := c.env.Ctx
	start := c.env.Clock.Now()
	go func() {
		v, err := fetch(ctx)
		c.env.Loop.Post(func() { c.complete(gen, v, err, start) })
	}()
}

func (c *FeedController[T]) complete(gen uint64, v T, err error, start time.Time) {
	feed := string(c.feed)
	if !c.live(gen) {
		c.env.Metrics.RecordStaleDrop(feed)
		return
	}

	now := c.env.Clock.Now()
	c.env.Metrics.RecordFetch(feed, feederr.Kind(err))
	c.env.Metrics.RecordLatency("fetch_"+feed, now.Sub(start).Seconds())

	if feederr.IsAuth(err) {
		c.env.Log.Warn("feed rejected by auth backend",
			logger.String("feed", feed),
			logger.String("key", c.state.InstrumentKey),
			logger.Error(err),
		)
		onAuthError := c.onAuthError
		c.halt()
		if onAuthError != nil {
			onAuthError()
		}
		return
	}

	if err != nil {
		c.env.Metrics.RecordError(feed + "_" + feederr.Kind(err))
	}

	// The next tick is armed before delivery; onResult may still stop it.
	if c.state.Interval > 0 {
		c.timer = c.env.Clock.AfterFunc(c.state.Interval, func() {
			c.env.Loop.Post(func() { c.tick(gen) })
		})
	}
	c.onResult(Result[T]{
		Key:        c.state.InstrumentKey,
		Generation: gen,
		Value:      v,
		Err:        err,
		ObservedAt: now,
	})
}
