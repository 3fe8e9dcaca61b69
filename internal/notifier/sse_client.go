package notifier

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
)

// SSEClient streams notifications over a long-lived server-sent events response
type SSEClient struct {
	GenericClient
	w    http.ResponseWriter
	done <-chan struct{}
}

// BuildSSEClient renders a new SSE client bound to the caller response writer.
// It fails when the underlying connection does not support streaming.
func BuildSSEClient(w http.ResponseWriter, r *http.Request, user *users.UserWithPermissions) (*SSEClient, error) {
	if _, ok := w.(http.Flusher); !ok {
		return nil, errors.New("streaming is not supported by the underlying connection")
	}
	return &SSEClient{
		GenericClient: GenericClient{
			ID:   uuid.New().String(),
			User: user,
			Send: make(chan []byte, sendQueueSize),
		},
		w:    w,
		done: r.Context().Done(),
	}, nil
}

// Write streams every queued message in the EventSource wire format
// ("data: <content>\n\n") until the client disconnects
func (c *SSEClient) Write() {
	flusher := c.w.(http.Flusher)
	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				return
			}
			fmt.Fprintf(c.w, "data: %s\n\n", message)
			flusher.Flush()
		case <-c.done:
			return
		}
	}
}

// Read is a no-op, server-sent events are one-way
func (c *SSEClient) Read() {}
