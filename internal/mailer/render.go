package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var subjects = map[Kind]string{
	KindVerification:    "Verify your email",
	KindWelcome:         "Welcome to Plant Maintenance",
	KindPasswordReset:   "Reset your password",
	KindPasswordChanged: "Your password was changed",
}

// Render returns the subject and HTML body for msg.
func Render(msg Message) (subject, body string, err error) {
	subject, ok := subjects[msg.Kind]
	if !ok {
		return "", "", fmt.Errorf("unknown email kind %q", msg.Kind)
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(msg.Kind)+".html", msg); err != nil {
		return "", "", fmt.Errorf("render %s email: %w", msg.Kind, err)
	}
	return subject, buf.String(), nil
}
