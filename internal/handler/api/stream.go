package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"DashSync/internal/domain/models"
	xhttp "DashSync/pkg/http"
	xlogger "DashSync/pkg/logger"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 90 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The stream is read-only; any origin may subscribe.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Stream upgrades to a websocket and pushes every engine update as JSON.
// The first frame is the current state. The stream ends when the client goes
// away or the engine stops.
func (h *DashboardHandler) Stream(c echo.Context) error {
	req := &models.StreamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Debug("ws upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	updates, unsubscribe := h.engine.Subscribe(req.Buffer)
	defer unsubscribe()

	remote := c.RealIP()
	h.logger.Debug("ws client connected", xlogger.String("remote", remote))
	defer h.logger.Debug("ws client disconnected", xlogger.String("remote", remote))

	gone := make(chan struct{})
	go readPump(conn, gone)

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "engine stopped"),
					time.Now().Add(writeWait))
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(newUpdateView(u)); err != nil {
				h.logger.Debug("ws write failed", xlogger.Error(err))
				return nil
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case <-gone:
			return nil
		}
	}
}

// readPump discards client frames and keeps the read deadline alive on pong.
// It closes gone when the connection fails.
func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
