package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/maxhub/max-backend/internal/config"
	"github.com/maxhub/max-backend/internal/model"
	"github.com/maxhub/max-backend/internal/response"
	"github.com/maxhub/max-backend/internal/service"
	ws "github.com/maxhub/max-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live attendance events for a group over
// WebSocket. Events originate from attendance saves, travel through a
// per-group Redis Pub/Sub channel and are forwarded verbatim.
type MonitorHandler struct {
	rdb          *redis.Client
	groupService *service.GroupService
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, groupService *service.GroupService, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		rdb:          rdb,
		groupService: groupService,
		log:          log.With().Str("component", "monitor_handler").Logger(),
		upgrader:     buildUpgrader(allowedOrigins),
	}
}

// GroupMonitorStream godoc
// WS /ws/v1/groups/:id/attendance
// Admins may watch any group; teachers only groups they curate.
func (h *MonitorHandler) GroupMonitorStream(c *gin.Context) {
	claims := getClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	groupID, ok := idParam(c)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	group, err := h.groupService.GetByID(c.Request.Context(), groupID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if claims.Role != model.RoleAdmin {
		if group.CuratorID == nil || *group.CuratorID != claims.UserID {
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	reqCtx := c.Request.Context()

	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.GroupMonitorChannel(groupID))
	defer pubsub.Close()

	events := pubsub.Channel()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Int("group_id", groupID).
		Logger()
	wsLog.Info().Msg("Monitor attached")

	// Reader goroutine: answers pings and signals disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			switch msg.Action {
			case ws.ActionPing:
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			default:
				ws.WriteError(conn, "unknown action: "+string(msg.Action))
			}
		}
	}()

	for {
		select {
		case <-reqCtx.Done():
			wsLog.Info().Msg("Monitor detached")
			return
		case <-done:
			wsLog.Debug().Msg("Monitor connection closed")
			return
		case msg, open := <-events:
			if !open {
				wsLog.Warn().Msg("Monitor channel closed")
				return
			}
			// Payload is already the serialized event; forward as-is.
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Monitor write failed")
				return
			}
		}
	}
}
