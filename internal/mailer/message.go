// Package mailer renders and delivers the transactional emails of the
// account lifecycle.
package mailer

// Kind names one of the fixed transactional messages.
type Kind string

const (
	KindVerification    Kind = "verification"
	KindWelcome         Kind = "welcome"
	KindPasswordReset   Kind = "password_reset"
	KindPasswordChanged Kind = "password_changed"
)

// Message is everything needed to render and send one email. It is also
// the payload carried over the email queue.
type Message struct {
	Kind Kind   `json:"kind"`
	To   string `json:"to"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
	Link string `json:"link,omitempty"`
}
