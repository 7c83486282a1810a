// Package email dispatches assignment notifications via SMTP.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Service provides email sending
type Service struct {
	config Config
	server string
	auth   smtp.Auth
}

// NewService creates a new email service
func NewService(config Config) *Service {
	auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)

	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
	}
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

// SendHTMLEmail sends an HTML email with a plain text fallback part
func (s *Service) SendHTMLEmail(to []string, subject, htmlBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	boundary := "boundary-intranet"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "Abra este email em um cliente com suporte a HTML.\r\n")
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return smtp.SendMail(s.server, s.auth, s.config.From, to, msg.Bytes())
}

// AssignmentData holds the activity fields rendered into both templates
type AssignmentData struct {
	ActivityTitle       string
	ActivityDescription string
	ProjectName         string
	PriorityLabel       string
	StartDate           string
	ActorName           string
}

// SendAssignedEmail notifies a responsible assigned on activity creation
func (s *Service) SendAssignedEmail(to string, data AssignmentData) error {
	subject := fmt.Sprintf("Nova tarefa atribuída: %s", data.ActivityTitle)
	html, err := renderTemplate(assignedEmailTemplate, data)
	if err != nil {
		return fmt.Errorf("render assigned template: %w", err)
	}
	return s.SendHTMLEmail([]string{to}, subject, html)
}

// SendNewResponsibleEmail notifies a responsible added to an existing activity
func (s *Service) SendNewResponsibleEmail(to string, data AssignmentData) error {
	subject := fmt.Sprintf("Você foi adicionado como responsável: %s", data.ActivityTitle)
	html, err := renderTemplate(newResponsibleEmailTemplate, data)
	if err != nil {
		return fmt.Errorf("render new responsible template: %w", err)
	}
	return s.SendHTMLEmail([]string{to}, subject, html)
}

func renderTemplate(tmpl string, data interface{}) (string, error) {
	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const assignedEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Nova tarefa atribuída</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        .card { background: #f6f8fa; padding: 16px; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Intranet</h1>
    </div>

    <h2>Nova tarefa atribuída a você</h2>

    <p>{{.ActorName}} atribuiu a você a tarefa abaixo.</p>

    <div class="card">
        <p><strong>Tarefa:</strong> {{.ActivityTitle}}</p>
        <p><strong>Descrição:</strong> {{.ActivityDescription}}</p>
        <p><strong>Projeto:</strong> {{.ProjectName}}</p>
        <p><strong>Prioridade:</strong> {{.PriorityLabel}}</p>
        <p><strong>Início:</strong> {{.StartDate}}</p>
    </div>

    <div class="footer">
        <p>Este é um aviso automático do quadro de atividades. Não responda este email.</p>
    </div>
</body>
</html>`

const newResponsibleEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Novo responsável</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        .card { background: #f6f8fa; padding: 16px; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Intranet</h1>
    </div>

    <h2>Você foi adicionado como responsável</h2>

    <p>{{.ActorName}} adicionou você como responsável pela tarefa abaixo.</p>

    <div class="card">
        <p><strong>Tarefa:</strong> {{.ActivityTitle}}</p>
        <p><strong>Descrição:</strong> {{.ActivityDescription}}</p>
        <p><strong>Projeto:</strong> {{.ProjectName}}</p>
        <p><strong>Prioridade:</strong> {{.PriorityLabel}}</p>
        <p><strong>Início:</strong> {{.StartDate}}</p>
    </div>

    <div class="footer">
        <p>Este é um aviso automático do quadro de atividades. Não responda este email.</p>
    </div>
</body>
</html>`
