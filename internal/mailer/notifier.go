package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers a single message, either directly or through a queue.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier is what the auth handlers call at each account lifecycle step.
type Notifier interface {
	SendVerification(ctx context.Context, to, name, code string) error
	SendWelcome(ctx context.Context, to, name string) error
	SendPasswordReset(ctx context.Context, to, name, link string) error
	SendPasswordChanged(ctx context.Context, to, name string) error
}

// Dispatcher adapts a Sender to the Notifier interface.
type Dispatcher struct {
	sender Sender
}

func NewDispatcher(s Sender) *Dispatcher { return &Dispatcher{sender: s} }

func (d *Dispatcher) SendVerification(ctx context.Context, to, name, code string) error {
	return d.sender.Send(ctx, Message{Kind: KindVerification, To: to, Name: name, Code: code})
}

func (d *Dispatcher) SendWelcome(ctx context.Context, to, name string) error {
	return d.sender.Send(ctx, Message{Kind: KindWelcome, To: to, Name: name})
}

func (d *Dispatcher) SendPasswordReset(ctx context.Context, to, name, link string) error {
	return d.sender.Send(ctx, Message{Kind: KindPasswordReset, To: to, Name: name, Link: link})
}

func (d *Dispatcher) SendPasswordChanged(ctx context.Context, to, name string) error {
	return d.sender.Send(ctx, Message{Kind: KindPasswordChanged, To: to, Name: name})
}

// LogSender writes messages to the log instead of sending them. It is used
// when neither a broker nor an SMTP relay is configured. Codes and links are
// only logged when ShowSecrets is set.
type LogSender struct {
	Log         *zap.Logger
	ShowSecrets bool
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	fields := []zap.Field{
		zap.String("kind", string(msg.Kind)),
		zap.String("to", msg.To),
	}
	if s.ShowSecrets {
		fields = append(fields, zap.String("code", msg.Code), zap.String("link", msg.Link))
	}
	s.Log.Info("email not sent, no relay configured", fields...)
	return nil
}
