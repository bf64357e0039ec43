package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync/atomic"

	"github.com/labstack/echo/v4"

	"DashSync/internal/domain/feederr"
	"DashSync/internal/domain/models"
	"DashSync/internal/service/ratelimit"
	"DashSync/internal/usecase"
	xhttp "DashSync/pkg/http"
	xlogger "DashSync/pkg/logger"
	"DashSync/pkg/loop"
)

// Engine is the part of the sync engine the HTTP layer drives.
type Engine interface {
	Snapshot() (usecase.EngineSnapshot, error)
	Instruments() models.Catalog
	SetInstrument(symbol string) error
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, email, password string) error
	Logout(ctx context.Context) error
	Subscribe(buffer int) (<-chan models.Update, func())
}

var _ Engine = (*usecase.SyncEngine)(nil)

// pruneEvery is how many login attempts pass between limiter cleanups.
const pruneEvery = 256

// DashboardHandler serves the dashboard state, session commands and the
// update stream.
type DashboardHandler struct {
	logger   *xlogger.Logger
	engine   Engine
	limiter  *ratelimit.Limiter
	attempts atomic.Uint64
}

func NewDashboardHandler(logger *xlogger.Logger, engine Engine, limiter *ratelimit.Limiter) *DashboardHandler {
	return &DashboardHandler{logger: logger, engine: engine, limiter: limiter}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/ws", h.Stream)

	g := e.Group("/api")
	g.GET("/state", h.State)
	g.GET("/instruments", h.Instruments)
	g.POST("/instrument", h.SetInstrument)
	g.POST("/login", h.Login)
	g.POST("/register", h.Register)
	g.POST("/logout", h.Logout)
}

func (h *DashboardHandler) Health(c echo.Context) error {
	snap, err := h.engine.Snapshot()
	if err != nil {
		return xhttp.AppErrorResponse(c, engineError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"engine": string(snap.State)})
}

func (h *DashboardHandler) State(c echo.Context) error {
	snap, err := h.engine.Snapshot()
	if err != nil {
		return xhttp.AppErrorResponse(c, engineError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, newStateView(snap))
}

func (h *DashboardHandler) Instruments(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.SuccessResponse(c, h.engine.Instruments())
}

func (h *DashboardHandler) SetInstrument(c echo.Context) error {
	req := &models.InstrumentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.engine.SetInstrument(req.Symbol); err != nil {
		return xhttp.AppErrorResponse(c, engineError(err))
	}
	return h.State(c)
}

func (h *DashboardHandler) Login(c echo.Context) error {
	if h.limited(c) {
		return nil
	}
	req := &models.LoginRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.engine.Login(c.Request().Context(), req.Username, req.Password); err != nil {
		h.logger.Warn("login failed", xlogger.String("username", req.Username), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, engineError(err))
	}
	return h.State(c)
}

func (h *DashboardHandler) Register(c echo.Context) error {
	if h.limited(c) {
		return nil
	}
	req := &models.RegisterRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.engine.Register(c.Request().Context(), req.Username, req.Email, req.Password); err != nil {
		h.logger.Warn("register failed", xlogger.String("username", req.Username), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, engineError(err))
	}
	snap, err := h.engine.Snapshot()
	if err != nil {
		return xhttp.AppErrorResponse(c, engineError(err))
	}
	return xhttp.CreatedResponse(c, newStateView(snap))
}

func (h *DashboardHandler) Logout(c echo.Context) error {
	if err := h.engine.Logout(c.Request().Context()); err != nil {
		return xhttp.AppErrorResponse(c, engineError(err))
	}
	return xhttp.NoContentResponse(c)
}

// limited writes a 429 and returns true when the caller is out of attempts.
func (h *DashboardHandler) limited(c echo.Context) bool {
	if h.limiter == nil {
		return false
	}
	if h.attempts.Add(1)%pruneEvery == 0 {
		h.limiter.Prune()
	}
	key := c.RealIP()
	if h.limiter.Allow(key) {
		return false
	}
	wait := h.limiter.RetryAfter(key)
	c.Response().Header().Set("Retry-After", fmt.Sprint(int(math.Ceil(wait.Seconds()))))
	_ = xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many attempts, retry later").
		WithParam("retry_after_seconds", math.Ceil(wait.Seconds())))
	return true
}

// engineError maps engine and backend failures onto HTTP errors.
func engineError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, usecase.ErrUnknownInstrument):
		return xhttp.NewAppError("ERR_UNKNOWN_INSTRUMENT", "symbol", "unknown instrument", http.StatusBadRequest).WithError(err)
	case errors.Is(err, usecase.ErrNotActive):
		return xhttp.ConflictError("no active session").WithError(err)
	case errors.Is(err, loop.ErrStopped):
		return xhttp.ServiceUnavailableError("engine stopped").WithError(err)
	case feederr.IsAuth(err):
		return xhttp.UnauthorizedError("invalid credentials").WithError(err)
	case feederr.Kind(err) == "network", feederr.IsDataShape(err):
		return xhttp.BadGatewayError("backend unavailable").WithError(err)
	default:
		return xhttp.InternalErrorf("unexpected error").WithError(err)
	}
}
