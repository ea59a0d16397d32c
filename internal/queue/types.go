package queue

import (
	"time"

	"github.com/ternarybob/venari/internal/models"
)

// ErrNoMessage is returned when no message is visible in the queue.
var ErrNoMessage = models.ErrNoMessage

// envelope is the internal record stored in Badger around one run message.
type envelope struct {
	ID           string            `json:"id"`
	Body         models.RunMessage `json:"body"`
	EnqueuedAt   time.Time         `json:"enqueued_at"`
	VisibleAt    time.Time         `json:"visible_at"`
	ReceiveCount int               `json:"receive_count"`
}

// Delivery is one received message. ReceiveCount includes this delivery, so
// a first receive carries 1.
type Delivery struct {
	ID           string
	Body         models.RunMessage
	ReceiveCount int
}
