package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"DashSync/internal/domain/feederr"
	"DashSync/internal/domain/models"
	drepo "DashSync/internal/domain/repository"
	"DashSync/internal/service/cache"
	"DashSync/internal/service/session"
	"DashSync/pkg/clock"
	"DashSync/pkg/logger"
	"DashSync/pkg/loop"
	"DashSync/pkg/metrics"
)

var (
	ErrNotActive         = errors.New("engine: no active session")
	ErrUnknownInstrument = errors.New("engine: unknown instrument")
)

var errNoToken = errors.New("no session token")

// EngineConfig holds feed cadences and the instrument catalog.
type EngineConfig struct {
	PriceInterval      time.Duration
	NewsInterval       time.Duration
	PredictionInterval time.Duration
	HistoryInterval    time.Duration
	NewsTTL            time.Duration
	NewsLimit          int
	HistoryRange       drepo.HistoryRange
	Catalog            models.Catalog
}

// DefaultEngineConfig returns the production cadences.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		PriceInterval:      time.Second,
		NewsInterval:       300 * time.Second,
		PredictionInterval: 300 * time.Second,
		HistoryInterval:    60 * time.Second,
		NewsTTL:            cache.NewsTTL,
		NewsLimit:          10,
		HistoryRange:       drepo.DefaultHistoryRange(),
		Catalog:            models.DefaultCatalog(),
	}
}

// EngineSnapshot is a point-in-time copy of everything the dashboard shows.
type EngineSnapshot struct {
	State      models.EngineState        `json:"state"`
	Instrument models.Instrument         `json:"instrument"`
	Role       models.Role               `json:"role"`
	Quote      models.PriceQuote         `json:"quote"`
	News       models.NewsBatch          `json:"news"`
	Prediction *models.Prediction        `json:"prediction,omitempty"`
	Sentiment  *models.SentimentReading  `json:"sentiment,omitempty"`
	History    models.PriceHistory       `json:"history"`
	Errors     map[models.Feed]string    `json:"errors,omitempty"`
	Feeds      map[models.Feed]FeedState `json:"feeds,omitempty"`
}

// EngineOption configures a SyncEngine.
type EngineOption func(*SyncEngine)

func WithEngineConfig(cfg EngineConfig) EngineOption {
	return func(e *SyncEngine) { e.cfg = cfg }
}

func WithClock(c clock.Clock) EngineOption {
	return func(e *SyncEngine) { e.clock = c }
}

func WithMetrics(m drepo.Metrics) EngineOption {
	return func(e *SyncEngine) { e.metrics = m }
}

func WithLogger(l *logger.Logger) EngineOption {
	return func(e *SyncEngine) { e.log = l }
}

// SyncEngine owns the selected instrument and the auth-driven state machine,
// and keeps one FeedController per feed running while a session is valid.
//
// All mutable state below the loop field is owned by the loop goroutine.
type SyncEngine struct {
	cfg     EngineConfig
	clock   clock.Clock
	session *session.Store
	market  drepo.MarketAPI
	auth    drepo.AuthAPI
	metrics drepo.Metrics
	log     *logger.Logger
	news    *cache.TTLCache[string, models.NewsBatch]

	ctx    context.Context
	cancel context.CancelFunc
	loop   *loop.Loop

	state      models.EngineState
	instrument models.Instrument
	// feedToken is the session token the running feeds were started under.
	feedToken  string
	quote      models.PriceQuote
	newsBatch  models.NewsBatch
	prediction *models.Prediction
	sentiment  *models.SentimentReading
	history    models.PriceHistory
	errs       map[models.Feed]string
	subs       map[int]chan models.Update
	nextSub    int

	priceFeed      *FeedController[models.PriceSample]
	newsFeed       *FeedController[models.NewsBatch]
	predictionFeed *FeedController[models.Prediction]
	sentimentFeed  *FeedController[models.SentimentReading]
	historyFeed    *FeedController[models.PriceHistory]
	stops          []func() bool
}

// NewSyncEngine wires the engine. Nothing runs until Run is called.
func NewSyncEngine(sess *session.Store, market drepo.MarketAPI, auth drepo.AuthAPI, opts ...EngineOption) *SyncEngine {
	e := &SyncEngine{
		cfg:     DefaultEngineConfig(),
		clock:   clock.New(),
		session: sess,
		market:  market,
		auth:    auth,
		metrics: metrics.Nop{},
		log:     logger.Nop(),
		loop:    loop.New(),
		state:   models.StateUnauthenticated,
		errs:    make(map[models.Feed]string),
		subs:    make(map[int]chan models.Update),
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.cfg.Catalog) == 0 {
		e.cfg.Catalog = models.DefaultCatalog()
	}
	if sess.Restoring() {
		e.state = models.StateAuthenticating
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.news = cache.NewTTLCache[string, models.NewsBatch](e.cfg.NewsTTL, e.clock)

	env := FeedEnv{Loop: e.loop, Clock: e.clock, Ctx: e.ctx, Metrics: e.metrics, Log: e.log}
	e.priceFeed = NewFeedController[models.PriceSample](models.FeedPrice, env)
	e.newsFeed = NewFeedController[models.NewsBatch](models.FeedNews, env)
	e.predictionFeed = NewFeedController[models.Prediction](models.FeedPrediction, env)
	e.sentimentFeed = NewFeedController[models.SentimentReading](models.FeedSentiment, env)
	e.historyFeed = NewFeedController[models.PriceHistory](models.FeedHistory, env)

	sess.OnChange(func(models.Session) { e.loop.Post(e.applySession) })
	return e
}

// Run processes engine events until ctx is canceled or Close is called. A
// persisted token is validated in the background once Run starts.
func (e *SyncEngine) Run(ctx context.Context) error {
	if e.session.Restoring() {
		go func() {
			if err := e.session.Restore(e.ctx); err != nil {
				e.log.Info("engine: persisted session not restored", logger.Error(err))
			}
		}()
	}
	e.loop.Post(e.applySession)

	e.log.Info("engine: running", logger.String("state", string(e.initialState())))
	err := e.loop.Run(ctx)
	e.shutdown()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (e *SyncEngine) initialState() models.EngineState {
	if e.session.Restoring() {
		return models.StateAuthenticating
	}
	return models.StateUnauthenticated
}

// Close stops the engine loop; Run returns shortly after.
func (e *SyncEngine) Close() { e.loop.Close() }

// Done is closed once the engine loop has stopped.
func (e *SyncEngine) Done() <-chan struct{} { return e.loop.Done() }

// shutdown runs after the loop exited, so it is the sole owner of engine state.
func (e *SyncEngine) shutdown() {
	e.stopFeeds()
	e.cancel()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.log.Info("engine: stopped")
}

// Instruments returns the supported catalog.
func (e *SyncEngine) Instruments() models.Catalog { return e.cfg.Catalog }

// Subscribe registers a channel that receives every update, starting with the
// current state. Updates that do not fit the buffer are dropped. The returned
// func unsubscribes and closes the channel.
func (e *SyncEngine) Subscribe(buffer int) (<-chan models.Update, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.Update, buffer)

	var id int
	err := e.loop.Call(func() {
		id = e.nextSub
		e.nextSub++
		e.subs[id] = ch
		ch <- e.update(models.UpdateState, 0)
	})
	if err != nil {
		close(ch)
		return ch, func() {}
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.loop.Post(func() {
				if c, ok := e.subs[id]; ok {
					delete(e.subs, id)
					close(c)
				}
			})
		})
	}
}

// Snapshot returns a copy of the engine state.
func (e *SyncEngine) Snapshot() (EngineSnapshot, error) {
	var snap EngineSnapshot
	err := e.loop.Call(func() {
		snap = EngineSnapshot{
			State:      e.state,
			Instrument: e.instrument,
			Role:       e.session.Snapshot().Role,
			Quote:      e.quote,
			News:       e.newsBatch,
			Prediction: e.prediction,
			Sentiment:  e.sentiment,
			History:    e.history,
			Feeds: map[models.Feed]FeedState{
				models.FeedPrice:      e.priceFeed.State(),
				models.FeedNews:       e.newsFeed.State(),
				models.FeedPrediction: e.predictionFeed.State(),
				models.FeedSentiment:  e.sentimentFeed.State(),
				models.FeedHistory:    e.historyFeed.State(),
			},
		}
		if len(e.errs) > 0 {
			snap.Errors = make(map[models.Feed]string, len(e.errs))
			for k, v := range e.errs {
				snap.Errors[k] = v
			}
		}
	})
	return snap, err
}

// Login exchanges credentials for a token and activates the engine.
func (e *SyncEngine) Login(ctx context.Context, username, password string) error {
	creds, err := e.auth.Token(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return e.startSession(ctx, creds)
}

// Register creates an account and activates the engine with the returned token.
func (e *SyncEngine) Register(ctx context.Context, username, email, password string) error {
	creds, err := e.auth.Register(ctx, username, email, password)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return e.startSession(ctx, creds)
}

func (e *SyncEngine) startSession(ctx context.Context, creds models.Credentials) error {
	if err := e.session.Login(ctx, creds.Token, creds.Role); err != nil {
		// The in-memory session is valid; only a restart would lose it.
		e.log.Error("engine: session not persisted", logger.Error(err))
	}
	return e.loop.Call(e.applySession)
}

// Logout drops the session and stops every feed.
func (e *SyncEngine) Logout(ctx context.Context) error {
	e.session.Invalidate(ctx)
	return e.loop.Call(e.applySession)
}

// SetInstrument switches the synchronized instrument. Every feed of the old
// instrument is stopped before the first fetch for the new one.
func (e *SyncEngine) SetInstrument(symbol string) error {
	inst, ok := e.cfg.Catalog.Lookup(symbol)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownInstrument, symbol)
	}
	var err error
	if cerr := e.loop.Call(func() { err = e.switchInstrument(inst) }); cerr != nil {
		return cerr
	}
	return err
}

func (e *SyncEngine) switchInstrument(inst models.Instrument) error {
	if e.state != models.StateActive {
		return ErrNotActive
	}
	if inst == e.instrument {
		return nil
	}

	e.log.Info("engine: switching instrument",
		logger.String("from", e.instrument.Symbol),
		logger.String("to", inst.Symbol),
	)
	e.stopFeeds()
	e.clearValues()
	e.instrument = inst
	e.emit(e.update(models.UpdateState, 0))
	e.startFeeds()
	return nil
}

// applySession derives the engine state from the session. It is idempotent
// and is posted on every session transition.
func (e *SyncEngine) applySession() {
	snap := e.session.Snapshot()
	switch {
	case snap.Valid:
		switch {
		case e.state != models.StateActive:
			e.activate(e.cfg.Catalog.Default(), snap.Token)
		case snap.Token != e.feedToken:
			e.restartFeeds(snap.Token)
		}
	case e.session.Restoring():
		e.setState(models.StateAuthenticating)
	default:
		e.deactivate()
	}
}

func (e *SyncEngine) activate(inst models.Instrument, token string) {
	e.clearValues()
	e.instrument = inst
	e.feedToken = token
	e.setState(models.StateActive)
	e.startFeeds()
}

// restartFeeds moves the running feeds to a new session token. Results still
// in flight under the old token land in a superseded generation and are
// dropped, so a late 401 cannot end the new session.
func (e *SyncEngine) restartFeeds(token string) {
	e.log.Info("engine: session replaced, restarting feeds", logger.String("instrument", e.instrument.Symbol))
	e.stopFeeds()
	e.clearValues()
	e.feedToken = token
	e.emit(e.update(models.UpdateState, 0))
	e.startFeeds()
}

func (e *SyncEngine) deactivate() {
	e.stopFeeds()
	e.clearValues()
	e.instrument = models.Instrument{}
	e.feedToken = ""
	e.setState(models.StateUnauthenticated)
}

// onAuthError is called by a controller that saw a 401. The feed itself has
// already stopped; invalidating the session stops the rest. A 401 for a token
// that was already replaced only restarts the feeds on the new one.
func (e *SyncEngine) onAuthError() {
	if e.session.InvalidateToken(e.ctx, e.feedToken) {
		e.log.Warn("engine: session rejected, logging out", logger.String("instrument", e.instrument.Symbol))
	}
	e.applySession()
}

func (e *SyncEngine) setState(s models.EngineState) {
	if e.state == s {
		return
	}
	e.log.Info("engine: state changed",
		logger.String("from", string(e.state)),
		logger.String("to", string(s)),
	)
	e.state = s
	e.metrics.RecordStateTransition(string(s))
	e.emit(e.update(models.UpdateState, 0))
}

func (e *SyncEngine) clearValues() {
	e.quote = models.PriceQuote{}
	e.newsBatch = nil
	e.prediction = nil
	e.sentiment = nil
	e.history = nil
	e.errs = make(map[models.Feed]string)
}

func (e *SyncEngine) startFeeds() {
	inst := e.instrument
	key := inst.Symbol

	h := e.priceFeed.Start(key, e.cfg.PriceInterval, e.fetchPrice(inst), e.onPrice, e.onAuthError)
	e.stops = append(e.stops, func() bool { return e.priceFeed.Stop(h) })

	hn := e.newsFeed.Start(key, e.cfg.NewsInterval, e.fetchNews(inst), e.onNews, e.onAuthError)
	e.stops = append(e.stops, func() bool { return e.newsFeed.Stop(hn) })

	hp := e.predictionFeed.Start(key, e.cfg.PredictionInterval, e.fetchPrediction(inst), e.onPrediction, e.onAuthError)
	e.stops = append(e.stops, func() bool { return e.predictionFeed.Stop(hp) })

	hs := e.sentimentFeed.Start(key, 0, e.fetchSentiment(inst), e.onSentiment, e.onAuthError)
	e.stops = append(e.stops, func() bool { return e.sentimentFeed.Stop(hs) })

	hh := e.historyFeed.Start(key, e.cfg.HistoryInterval, e.fetchHistory(inst), e.onHistory, e.onAuthError)
	e.stops = append(e.stops, func() bool { return e.historyFeed.Stop(hh) })
}

func (e *SyncEngine) stopFeeds() {
	for _, stop := range e.stops {
		stop()
	}
	e.stops = nil
}

// token is read by fetch goroutines; feeds never write session state.
func (e *SyncEngine) token() (string, error) {
	tok, ok := e.session.CurrentToken()
	if !ok {
		return "", feederr.Auth("session", errNoToken)
	}
	return tok, nil
}

func (e *SyncEngine) fetchPrice(inst models.Instrument) FetchFunc[models.PriceSample] {
	return func(ctx context.Context) (models.PriceSample, error) {
		tok, err := e.token()
		if err != nil {
			return models.PriceSample{}, err
		}
		return e.market.Price(ctx, tok, inst)
	}
}

func (e *SyncEngine) fetchNews(inst models.Instrument) FetchFunc[models.NewsBatch] {
	code := inst.NewsCode()
	return func(ctx context.Context) (models.NewsBatch, error) {
		if batch, ok := e.news.Get(code); ok {
			e.metrics.RecordCacheLookup("news", true)
			return batch, nil
		}
		e.metrics.RecordCacheLookup("news", false)

		tok, err := e.token()
		if err != nil {
			return nil, err
		}
		batch, err := e.market.News(ctx, tok, code, e.cfg.NewsLimit)
		if err != nil {
			return nil, err
		}
		e.news.Put(code, batch)
		return batch, nil
	}
}

func (e *SyncEngine) fetchPrediction(inst models.Instrument) FetchFunc[models.Prediction] {
	return func(ctx context.Context) (models.Prediction, error) {
		tok, err := e.token()
		if err != nil {
			return models.Prediction{}, err
		}
		return e.market.Prediction(ctx, tok, inst)
	}
}

func (e *SyncEngine) fetchSentiment(inst models.Instrument) FetchFunc[models.SentimentReading] {
	return func(ctx context.Context) (models.SentimentReading, error) {
		tok, err := e.token()
		if err != nil {
			return models.SentimentReading{}, err
		}
		return e.market.Sentiment(ctx, tok, inst)
	}
}

func (e *SyncEngine) fetchHistory(inst models.Instrument) FetchFunc[models.PriceHistory] {
	window := e.cfg.HistoryRange
	return func(ctx context.Context) (models.PriceHistory, error) {
		tok, err := e.token()
		if err != nil {
			return nil, err
		}
		return e.market.History(ctx, tok, inst, window)
	}
}

// failed handles a non-auth error. Shape errors keep the last good value
// silently; network errors are reported but also keep it.
func (e *SyncEngine) failed(feed models.Feed, kind models.UpdateKind, gen uint64, err error) bool {
	if err == nil {
		delete(e.errs, feed)
		return false
	}
	if feederr.IsDataShape(err) {
		e.log.Debug("engine: no data this tick", logger.String("feed", string(feed)), logger.Error(err))
		return true
	}
	e.log.Warn("engine: fetch failed",
		logger.String("feed", string(feed)),
		logger.String("instrument", e.instrument.Symbol),
		logger.Error(err),
	)
	e.errs[feed] = err.Error()
	u := e.update(kind, gen)
	u.Err = err
	e.emit(u)
	return true
}

func (e *SyncEngine) onPrice(r Result[models.PriceSample]) {
	if e.failed(models.FeedPrice, models.UpdatePrice, r.Generation, r.Err) {
		return
	}
	s := r.Value
	s.ObservedAt = r.ObservedAt
	e.quote = e.quote.Push(s)
	e.metrics.RecordLastPrice(r.Key, s.PriceUSD)

	q := e.quote
	u := e.update(models.UpdatePrice, r.Generation)
	u.Quote = &q
	e.emit(u)
}

func (e *SyncEngine) onNews(r Result[models.NewsBatch]) {
	if e.failed(models.FeedNews, models.UpdateNews, r.Generation, r.Err) {
		return
	}
	e.newsBatch = r.Value
	u := e.update(models.UpdateNews, r.Generation)
	u.News = r.Value
	e.emit(u)
}

func (e *SyncEngine) onPrediction(r Result[models.Prediction]) {
	if e.failed(models.FeedPrediction, models.UpdatePrediction, r.Generation, r.Err) {
		return
	}
	u := e.update(models.UpdatePrediction, r.Generation)
	if r.Value.Available() {
		p := r.Value
		e.prediction = &p
		u.Prediction = &p
	} else {
		e.prediction = nil
	}
	e.emit(u)
}

func (e *SyncEngine) onSentiment(r Result[models.SentimentReading]) {
	if e.failed(models.FeedSentiment, models.UpdateSentiment, r.Generation, r.Err) {
		return
	}
	s := r.Value
	e.sentiment = &s
	u := e.update(models.UpdateSentiment, r.Generation)
	u.Sentiment = &s
	e.emit(u)
}

func (e *SyncEngine) onHistory(r Result[models.PriceHistory]) {
	if e.failed(models.FeedHistory, models.UpdateHistory, r.Generation, r.Err) {
		return
	}
	e.history = r.Value
	u := e.update(models.UpdateHistory, r.Generation)
	u.History = r.Value
	e.emit(u)
}

func (e *SyncEngine) update(kind models.UpdateKind, gen uint64) models.Update {
	return models.Update{
		Kind:       kind,
		State:      e.state,
		Instrument: e.instrument,
		Generation: gen,
		At:         e.clock.Now(),
	}
}

func (e *SyncEngine) emit(u models.Update) {
	for _, ch := range e.subs {
		select {
		case ch <- u:
		default:
			e.metrics.RecordSubscriberDrop()
			e.log.Debug("engine: subscriber full, update dropped", logger.String("kind", string(u.Kind)))
		}
	}
}
