// Package queue carries transactional email jobs over RabbitMQ: handlers
// publish EmailEvents and the worker process consumes and sends them.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/plant-maintenance/internal/mailer"
)

// EmailQueue is the durable queue holding pending emails.
const EmailQueue = "notifications.email"

// EmailEvent wraps a message with an id for de-duplication in logs.
type EmailEvent struct {
	ID        string         `json:"id"`
	Message   mailer.Message `json:"message"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewEmailEvent(msg mailer.Message) EmailEvent {
	return EmailEvent{ID: uuid.NewString(), Message: msg, CreatedAt: time.Now().UTC()}
}
