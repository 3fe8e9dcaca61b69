package notifier

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
)

const (
	websocketPingInterval = 10 * time.Second
	sendQueueSize         = 16
)

var upgrader = &websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebsocketClient wraps a single websocket connection registered on the manager
type WebsocketClient struct {
	GenericClient
	Socket *websocket.Conn
	once   sync.Once
}

// BuildWebsocketClient upgrades the HTTP connection and renders the matching client
func BuildWebsocketClient(w http.ResponseWriter, r *http.Request, user *users.UserWithPermissions) (*WebsocketClient, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &WebsocketClient{
		GenericClient: GenericClient{
			ID:   uuid.New().String(),
			Send: make(chan []byte, sendQueueSize),
			User: user,
		},
		Socket: conn,
	}, nil
}

// Write pushes every queued message on the socket and keeps the connection
// alive with periodic pings. It returns, and tears the client down, as soon
// as the socket errors out or the Send channel closes.
func (c *WebsocketClient) Write() {
	ticker := time.NewTicker(websocketPingInterval)
	defer func() {
		ticker.Stop()
		c.destroy()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.Socket.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// Read discards every inbound frame until the peer goes away. The feed is
// one-way, the pump only exists to process close and control frames.
func (c *WebsocketClient) Read() {
	defer c.destroy()

	for {
		if _, _, err := c.Socket.ReadMessage(); err != nil {
			var closeError *websocket.CloseError
			if errors.As(err, &closeError) &&
				(closeError.Code == websocket.CloseNormalClosure || closeError.Code == websocket.CloseGoingAway) {
				return
			}
			zap.L().Debug("Websocket read ended", zap.Error(err), zap.String("id", c.ID))
			return
		}
	}
}

// destroy unregisters the client and closes the socket. Write and Read both
// call it, only the first call does the work.
func (c *WebsocketClient) destroy() {
	c.once.Do(func() {
		if err := C().Unregister(c); err != nil {
			zap.L().Warn("Unregister websocket client", zap.Error(err), zap.String("id", c.ID))
		}
		if err := c.Socket.Close(); err != nil {
			zap.L().Debug("Close websocket", zap.Error(err), zap.String("id", c.ID))
		}
	})
}
