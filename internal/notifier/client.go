package notifier

import "github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"

// Client is a single connected notification consumer. Implementations carry
// the transport (websocket, SSE), the notifier only talks to the Send channel.
type Client interface {
	GetUser() *users.UserWithPermissions
	GetSendChannel() chan []byte
	Read()
	Write()
}

// GenericClient carries the transport-agnostic part of a connection
type GenericClient struct {
	ID   string
	Send chan []byte
	User *users.UserWithPermissions
}

// GetSendChannel returns the channel the notifier pushes messages on
func (c *GenericClient) GetSendChannel() chan []byte {
	return c.Send
}

// GetUser returns the authenticated user attached to the connection
func (c *GenericClient) GetUser() *users.UserWithPermissions {
	return c.User
}
