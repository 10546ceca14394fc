package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	drepo "SignalOps/internal/domain/repository"
	xlogger "SignalOps/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const streamClientBuffer = 64

// StreamHandler relays the signal channel to websocket clients. It subscribes
// once, on the first client, and fans every envelope out to all connected
// sockets. Slow clients get messages dropped rather than stalling the relay.
type StreamHandler struct {
	channel  string
	sub      drepo.Subscriber
	logger   *xlogger.Logger
	upgrader websocket.Upgrader

	mu         sync.Mutex
	clients    map[chan []byte]struct{}
	subscribed bool
}

func NewStreamHandler(channel string, sub drepo.Subscriber, lgr *xlogger.Logger) *StreamHandler {
	return &StreamHandler{
		channel: channel,
		sub:     sub,
		logger:  lgr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[chan []byte]struct{}),
	}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/signals/stream", h.Serve)
}

// Serve upgrades the connection and pumps signal envelopes until the client
// disconnects.
func (h *StreamHandler) Serve(c echo.Context) error {
	if err := h.ensureSubscribed(); err != nil {
		h.logger.Error("signal stream subscribe failed", xlogger.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "signal stream unavailable")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch := make(chan []byte, streamClientBuffer)
	h.register(ch)
	defer h.unregister(ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case payload := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return nil
			}
		case <-done:
			return nil
		}
	}
}

// ensureSubscribed attaches the relay to the signal channel. The subscription
// outlives individual requests, so it runs on a background context.
func (h *StreamHandler) ensureSubscribed() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribed {
		return nil
	}
	if err := h.sub.Subscribe(context.Background(), h.channel, h.fanOut); err != nil {
		return err
	}
	h.subscribed = true
	return nil
}

func (h *StreamHandler) fanOut(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (h *StreamHandler) register(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ch] = struct{}{}
}

func (h *StreamHandler) unregister(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ch)
}

// Close detaches the relay from the signal channel.
func (h *StreamHandler) Close() {
	h.mu.Lock()
	subscribed := h.subscribed
	h.subscribed = false
	h.mu.Unlock()
	if subscribed {
		if err := h.sub.Unsubscribe(h.channel); err != nil {
			h.logger.Warn("signal stream unsubscribe", xlogger.Error(err))
		}
	}
}
