/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package signaling

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/visionconnect/pkg/logger"
	"github.com/carverauto/visionconnect/pkg/models"
)

var errBinaryFrame = fmt.Errorf("%w: binary frames are not supported", ErrInvalidEnvelope)

// IdentityVerifier turns a bearer token into the user it was issued to.
type IdentityVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}

// Options tune the websocket transport.
type Options struct {
	SendBuffer      int
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageBytes int64
	AllowedOrigins  []string
	RequireUserAuth bool
}

// OptionsFromConfig converts the service config, applying defaults for unset values.
func OptionsFromConfig(cfg models.SignalingConfig) Options {
	cfg.SendBuffer = defaultInt(cfg.SendBuffer, models.DefaultSendBuffer)
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = models.Duration(models.DefaultWriteTimeout)
	}

	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = models.Duration(models.DefaultPongTimeout)
	}

	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongTimeout {
		cfg.PingInterval = cfg.PongTimeout * 9 / 10
	}

	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = models.DefaultMaxMessageBytes
	}

	return Options{
		SendBuffer:      cfg.SendBuffer,
		WriteTimeout:    time.Duration(cfg.WriteTimeout),
		PongTimeout:     time.Duration(cfg.PongTimeout),
		PingInterval:    time.Duration(cfg.PingInterval),
		MaxMessageBytes: cfg.MaxMessageBytes,
		AllowedOrigins:  cfg.AllowedOrigins,
		RequireUserAuth: cfg.RequireUserAuth,
	}
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}

	return v
}

// Handler upgrades HTTP requests to signaling sessions.
type Handler struct {
	relay    *Relay
	verifier IdentityVerifier
	opts     Options
	upgrader websocket.Upgrader
	logger   logger.Logger

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// NewHandler builds the /ws endpoint. verifier may be nil when accounts are disabled.
func NewHandler(relay *Relay, verifier IdentityVerifier, opts Options, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewTestLogger()
	}

	h := &Handler{
		relay:    relay,
		verifier: verifier,
		opts:     opts,
		logger:   log,
		conns:    make(map[*Conn]struct{}),
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin admits non-browser clients (no Origin header) and any listed origin.
// An empty allow list admits everything.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}

	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	h.logger.Warn().Str("origin", origin).Msg("Rejected websocket origin")

	return false
}

func bearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var verifiedUserID string

	if token := bearerToken(r); token != "" && h.verifier != nil {
		user, err := h.verifier.VerifyToken(ctx, token)
		if err != nil {
			h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Rejected websocket token")
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)

			return
		}

		verifiedUserID = user.ID
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Str("origin", r.Header.Get("Origin")).
			Msg("Failed to upgrade to WebSocket")

		return
	}

	conn := newConn(ws, h.opts, h.logger)
	h.track(conn)

	go conn.writePump()

	session := NewSession(h.relay, conn, SessionOptions{
		VerifiedUserID:  verifiedUserID,
		RequireUserAuth: h.opts.RequireUserAuth,
	})

	defer func() {
		session.Close(ctx)
		conn.Close()
		h.untrack(conn)
	}()

	h.readLoop(ctx, conn, session, r.RemoteAddr)
}

func (h *Handler) readLoop(ctx context.Context, conn *Conn, session *Session, remote string) {
	ws := conn.ws
	ws.SetReadLimit(h.opts.MaxMessageBytes)

	extend := func() error {
		return ws.SetReadDeadline(time.Now().Add(h.opts.PongTimeout))
	}

	_ = extend()

	ws.SetPongHandler(func(string) error { return extend() })

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			h.logReadError(err, session, remote)
			return
		}

		_ = extend()

		if mt != websocket.TextMessage {
			h.reject(ctx, conn, session, remote, errBinaryFrame)
			return
		}

		if err := session.Handle(ctx, data); err != nil {
			h.reject(ctx, conn, session, remote, err)
			return
		}

		if session.State() == StateRegistered {
			role, key := session.Identity()
			h.logger.Debug().Str("role", string(role)).Str("key", key).Msg("Signaling message handled")
		}
	}
}

func (h *Handler) reject(ctx context.Context, conn *Conn, session *Session, remote string, err error) {
	role, key := session.Identity()

	code := websocket.CloseInternalServerErr
	if errors.Is(err, ErrInvalidEnvelope) {
		code = websocket.ClosePolicyViolation

		recordInvalid(ctx)
	}

	h.logger.Warn().
		Err(err).
		Str("remote_addr", remote).
		Str("state", session.State().String()).
		Str("role", string(role)).
		Str("key", key).
		Msg("Closing signaling connection")

	conn.CloseWith(code, err.Error())
}

func (h *Handler) logReadError(err error, session *Session, remote string) {
	role, key := session.Identity()

	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		h.logger.Info().
			Err(err).
			Str("remote_addr", remote).
			Str("role", string(role)).
			Str("key", key).
			Msg("Signaling connection dropped")

		return
	}

	h.logger.Debug().
		Str("remote_addr", remote).
		Str("role", string(role)).
		Str("key", key).
		Msg("Signaling connection closed")
}

func (h *Handler) track(c *Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Handler) untrack(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

// Close sends going-away to every live connection. Hijacked sockets are not
// closed by http.Server.Shutdown, so the process calls this on the way out.
func (h *Handler) Close() error {
	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup

	for _, c := range conns {
		wg.Add(1)

		go func(c *Conn) {
			defer wg.Done()
			c.CloseWith(websocket.CloseGoingAway, "server shutting down")
		}(c)
	}

	wg.Wait()

	return nil
}
