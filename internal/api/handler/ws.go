package handler

import (
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/feed"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// checkOrigin accepts requests without an Origin header (non-browser
// clients), same-host requests, and the configured origins.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		origin = strings.TrimRight(origin, "/")
		return slices.ContainsFunc(allowed, func(a string) bool {
			return a == "*" || strings.EqualFold(strings.TrimRight(a, "/"), origin)
		})
	}
}

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(h.AllowedOrigins),
	}
}

// ServeWebSocket streams the caller's default complaint view.
// Students get their own complaints, teachers their assigned ones, admins everything.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	p, err := h.Auth.Authenticate(c.Request.Context(), bearerToken(c))
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "user_id", p.UserID, "err", err)
		return
	}

	sub, err := h.Hub.Subscribe(c.Request.Context(), complaint.ViewFor(p))
	if err != nil {
		slog.Warn("live view subscribe failed", "user_id", p.UserID, "err", err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "live view unavailable"))
		conn.Close()
		return
	}

	client := &feed.WSClient{Conn: conn, Sub: sub}
	client.Run()
}
