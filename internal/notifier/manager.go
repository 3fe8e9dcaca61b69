package notifier

import (
	"errors"
	"sync"
)

// ClientManager holds the set of currently connected notification clients,
// websocket and SSE alike, behind a single lock.
type ClientManager struct {
	mutex   sync.RWMutex
	clients map[Client]struct{}
}

// NewClientManager renders an empty client pool
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[Client]struct{}),
	}
}

// GetClients returns a snapshot of the connected clients
func (m *ClientManager) GetClients() []Client {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	clients := make([]Client, 0, len(m.clients))
	for client := range m.clients {
		clients = append(clients, client)
	}
	return clients
}

// Register adds a client to the pool. Registering the same client twice is an error.
func (m *ClientManager) Register(client Client) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.clients[client]; ok {
		return errors.New("this client already exists")
	}
	m.clients[client] = struct{}{}
	return nil
}

// Unregister removes a client from the pool. Removing an absent client is a
// no-op: the connection close watcher and the write loop may both attempt it.
func (m *ClientManager) Unregister(client Client) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.clients, client)
	return nil
}
