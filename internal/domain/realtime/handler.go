package realtime

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/admin"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/response"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Handler serves the live redemption feed
type Handler struct {
	hub      *Hub
	jwt      *admin.JWTService
	policy   *admin.Policy
	upgrader websocket.Upgrader
}

// NewHandler creates the feed handler. An empty allowedOrigins accepts any origin.
func NewHandler(hub *Hub, jwtSvc *admin.JWTService, policy *admin.Policy, allowedOrigins []string) *Handler {
	return &Handler{
		hub:    hub,
		jwt:    jwtSvc,
		policy: policy,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(allowedOrigins) == 0 || origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || origin == allowed {
						return true
					}
				}
				log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
				return false
			},
		},
	}
}

// Routes returns /ws routes. Browsers cannot set headers on a websocket
// handshake, so the token may also arrive as ?token=.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/redemptions", h.Feed)
	return r
}

// Feed handles WS /ws/redemptions
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	id, err := h.jwt.ValidateToken(bearerToken(r))
	if err != nil {
		if errors.Is(err, admin.ErrExpiredToken) {
			response.Unauthorized(w, "Token expired")
		} else {
			response.Unauthorized(w, "Invalid token")
		}
		return
	}
	if !h.policy.Allows(id.Role, admin.PermViewRedemptions) {
		response.Forbidden(w, "Permission denied")
		return
	}

	var masonID *uuid.UUID
	if v := r.URL.Query().Get("mason_id"); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(w, "Invalid mason ID")
			return
		}
		masonID = &parsed
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &Client{
		AdminID: id.AdminID,
		MasonID: masonID,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
	}
	if !h.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go h.reader(client)
	go h.writer(client)
}

func bearerToken(r *http.Request) string {
	if parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return r.URL.Query().Get("token")
}

// reader drains client frames so pongs and close messages are processed.
func (h *Handler) reader(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("admin_id", c.AdminID.String()).Msg("WebSocket read error")
			}
			return
		}
	}
}

func (h *Handler) writer(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
