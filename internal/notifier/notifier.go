package notifier

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/notifier/notification"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
)

var (
	_globalNotifierMu sync.RWMutex
	_globalNotifier   *Notifier
)

// C is used to access the global notifier singleton
func C() *Notifier {
	_globalNotifierMu.RLock()
	defer _globalNotifierMu.RUnlock()

	return _globalNotifier
}

// ReplaceGlobals affects a new notifier to the global singleton and returns
// a function restoring the previous one
func ReplaceGlobals(notifier *Notifier) func() {
	_globalNotifierMu.Lock()
	defer _globalNotifierMu.Unlock()

	prev := _globalNotifier
	_globalNotifier = notifier
	return func() { ReplaceGlobals(prev) }
}

// Notifier pushes notifications to the connected websocket and SSE clients
type Notifier struct {
	clientManager *ClientManager
	cooldownMu    sync.Mutex
	cooldowns     map[string]time.Time
}

// NewNotifier returns a pointer to a new instance of Notifier
func NewNotifier() *Notifier {
	return &Notifier{
		clientManager: NewClientManager(),
		cooldowns:     make(map[string]time.Time),
	}
}

// Register adds a new client to the pool
func (notifier *Notifier) Register(client Client) error {
	zap.L().Info("Notifier client registered", zap.String("login", clientLogin(client)))
	return notifier.clientManager.Register(client)
}

// Unregister disconnects an existing client from the pool
func (notifier *Notifier) Unregister(client Client) error {
	zap.L().Info("Notifier client unregistered", zap.String("login", clientLogin(client)))
	return notifier.clientManager.Unregister(client)
}

// allowSend checks that the key is not in a cooldown period, and arms a new
// cooldown when it is not. An empty key is always allowed.
func (notifier *Notifier) allowSend(key string, cooldown time.Duration) bool {
	if key == "" {
		return true
	}

	notifier.cooldownMu.Lock()
	defer notifier.cooldownMu.Unlock()

	if until, ok := notifier.cooldowns[key]; ok && time.Now().UTC().Before(until) {
		return false
	}
	notifier.cooldowns[key] = time.Now().UTC().Add(cooldown)
	return true
}

// Broadcast sends a notification to every connected client
func (notifier *Notifier) Broadcast(notif notification.Notification) {
	for _, client := range notifier.clientManager.GetClients() {
		notifier.sendToClient(notif, client)
	}
}

// BroadcastThrottled sends a notification to every connected client, unless
// the cache key is still in a cooldown period. The healthcheck job relies on
// it to keep a flapping rule from flooding the feed.
func (notifier *Notifier) BroadcastThrottled(cacheKey string, cooldown time.Duration, notif notification.Notification) {
	if !notifier.allowSend(cacheKey, cooldown) {
		zap.L().Debug("Notification skipped by cooldown", zap.String("cacheKey", cacheKey))
		return
	}
	notifier.Broadcast(notif)
}

// SendToUsers sends a notification to every connected session of the given users
func (notifier *Notifier) SendToUsers(notif notification.Notification, userIDs []uuid.UUID) {
	for _, userID := range userIDs {
		for _, client := range notifier.findClients(func(user *users.UserWithPermissions) bool {
			return user.ID == userID
		}) {
			notifier.sendToClient(notif, client)
		}
	}
}

// SendToRoles sends a notification to every connected user holding one of the
// given roles, under the same cooldown rules as BroadcastThrottled
func (notifier *Notifier) SendToRoles(cacheKey string, cooldown time.Duration, notif notification.Notification, roleNames []string) {
	if !notifier.allowSend(cacheKey, cooldown) {
		zap.L().Debug("Notification skipped by cooldown", zap.String("cacheKey", cacheKey))
		return
	}

	sent := make(map[Client]struct{})
	for _, role := range roleNames {
		for _, client := range notifier.findClients(func(user *users.UserWithPermissions) bool {
			return user.Role == role
		}) {
			if _, done := sent[client]; done {
				continue
			}
			sent[client] = struct{}{}
			notifier.sendToClient(notif, client)
		}
	}
}

// sendToClient serializes the notification and queues it on the client send
// channel, every targeting method above ends up here. The send never blocks:
// a client with a full queue loses the message instead of stalling the caller.
func (notifier *Notifier) sendToClient(notif notification.Notification, client Client) {
	if client == nil {
		return
	}
	message, err := notif.ToBytes()
	if err != nil {
		zap.L().Error("Serialize notification", zap.Error(err))
		return
	}
	select {
	case client.GetSendChannel() <- message:
	default:
		zap.L().Warn("Notification dropped, client send queue is full", zap.String("login", clientLogin(client)))
	}
}

func (notifier *Notifier) findClients(match func(*users.UserWithPermissions) bool) []Client {
	clients := make([]Client, 0)
	for _, client := range notifier.clientManager.GetClients() {
		if user := client.GetUser(); user != nil && match(user) {
			clients = append(clients, client)
		}
	}
	return clients
}

func clientLogin(client Client) string {
	if user := client.GetUser(); user != nil {
		return user.Login
	}
	return ""
}
