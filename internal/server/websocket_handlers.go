package server

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"circles/internal/cache"
	"circles/internal/middleware"
	"circles/internal/models"
	"circles/internal/notifications"
	"circles/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var wsLogger = observability.NewWSLogger("notification hub")

// WSTicketResponse carries a single-use websocket ticket.
type WSTicketResponse struct {
	Ticket    string `json:"ticket"`
	ExpiresIn int    `json:"expires_in"`
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue websocket ticket
// @Description Returns a single-use ticket valid for 60 seconds. Pass it as ?ticket= on GET /api/ws.
// @Tags realtime
// @Security BearerAuth
// @Produce json
// @Success 200 {object} WSTicketResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewUpstreamError("redis", errors.New("realtime notifications unavailable")))
	}

	ticket := uuid.NewString()
	userID := currentUserID(c)
	if err := s.redis.Set(c.UserContext(), cache.WSTicketKey(ticket),
		strconv.FormatUint(uint64(userID), 10), cache.WSTicketTTL).Err(); err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.JSON(WSTicketResponse{Ticket: ticket, ExpiresIn: int(cache.WSTicketTTL.Seconds())})
}

// WebSocketUpgrade admits websocket upgrades that present a valid ticket.
func (s *Server) WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		userID, err := s.consumeWSTicket(c.UserContext(), c.Query("ticket"))
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				slog.WarnContext(c.UserContext(), "websocket ticket lookup failed", slog.Any("error", err))
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
		}
		middleware.WithUserID(c, userID)
		return c.Next()
	}
}

// WebsocketHandler streams the caller's notifications. Client frames are
// read only to detect disconnects.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		wsLogger.LogConnect(ctx, userID, s.hub.Connections(userID))

		if hello, err := (notifications.Event{
			Type:    "connected",
			Payload: map[string]any{"user_id": userID},
		}).Encode(); err == nil {
			client.TrySend([]byte(hello))
		}

		go client.WritePump()
		client.ReadPump()
		wsLogger.LogDisconnect(ctx, userID, "read loop ended")
	})
}
