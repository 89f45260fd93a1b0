package realtime

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

const writeWait = 10 * time.Second

// TokenValidator parses access tokens passed as a query parameter.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// FeedAuthorizer decides whether the caller may watch an event's live feed.
type FeedAuthorizer interface {
	AuthorizeLiveFeed(ctx context.Context, eventID string, claims *models.JWTClaims) error
}

// Client is one websocket connection subscribed to a room.
type Client struct {
	ID     string
	Room   string
	UserID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
	logger *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, room, userID string, logger *zap.Logger) *Client {
	return &Client{
		ID:     uuid.NewString(),
		Room:   room,
		UserID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan Message, sendBuffer),
		logger: logger,
	}
}

// ServeWs upgrades GET /attendance/events/:eventId/live?token= to a websocket
// streaming attendance_marked messages for that event.
func ServeWs(hub *Hub, tokens TokenValidator, authz FeedAuthorizer, allowedOrigins []string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(c *gin.Context) {
		eventID := c.Param("eventId")
		token := c.Query("token")
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "token query parameter required"))
			return
		}
		claims, err := tokens.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			return
		}
		if err := authz.AuthorizeLiveFeed(c.Request.Context(), eventID, claims); err != nil {
			response.Error(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := newClient(hub, conn, RoomForEvent(eventID), claims.UserID, logger)
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// readPump only services control frames; the feed is server to client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket closed", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
