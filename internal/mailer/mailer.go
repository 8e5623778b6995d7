package mailer

import "embed"

const (
	FromName          = "SentiFeedback"
	maxRetries        = 3
	ResetCodeTemplate = "reset_code.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
