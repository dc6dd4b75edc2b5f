package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/ezhulati/liftout-platform-sub011/internal/config"
	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailNotifier mails notifications to the recipient's account address.
type EmailNotifier struct {
	db     *gorm.DB
	config *config.Config
	log    *logger.Logger
	tmpl   *template.Template
}

func NewEmailNotifier(db *gorm.DB, cfg *config.Config, log *logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		db:     db,
		config: cfg,
		log:    log,
		tmpl:   template.Must(template.New("email").Parse(BaseEmailTemplate)),
	}
}

// EmailData contains common email template data
type EmailData struct {
	AppName     string
	AppURL      string
	UserName    string
	UserEmail   string
	Subject     string
	Content     template.HTML
	ActionURL   string
	ActionLabel string
}

// BaseEmailTemplate is the base HTML email template
const BaseEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1f3a5f; color: white; padding: 30px; text-align: center; border-radius: 8px 8px 0 0; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 8px 8px; }
        .button { display: inline-block; background: #1f3a5f; color: white; padding: 12px 30px; text-decoration: none; border-radius: 6px; margin: 20px 0; }
        .footer { text-align: center; color: #888; font-size: 12px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.AppName}}</h1>
        </div>
        <div class="content">
            <p>Hi {{.UserName}},</p>
            {{.Content}}
            {{if .ActionURL}}
            <p style="text-align: center;">
                <a href="{{.ActionURL}}" class="button">{{.ActionLabel}}</a>
            </p>
            {{end}}
        </div>
        <div class="footer">
            <p>&copy; {{.AppName}}. All rights reserved.</p>
            <p>This is an automated message. Please do not reply.</p>
        </div>
    </div>
</body>
</html>
`

func (n *EmailNotifier) Emit(ctx context.Context, userID uuid.UUID, kind models.NotificationType, payload map[string]any) error {
	var user models.User
	if err := n.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return fmt.Errorf("load recipient %s: %w", userID, err)
	}

	data := n.compose(&user, kind, payload)
	body, err := n.renderEmail(data)
	if err != nil {
		return err
	}
	return n.sendEmail(ctx, user.Email, data.Subject, body)
}

// compose picks subject, body and link for a notification type.
func (n *EmailNotifier) compose(user *models.User, kind models.NotificationType, payload map[string]any) EmailData {
	str := func(key string) string {
		if v, ok := payload[key]; ok {
			return fmt.Sprint(v)
		}
		return ""
	}

	data := EmailData{
		UserName:    user.FirstName,
		UserEmail:   user.Email,
		ActionLabel: "Open Liftout",
		ActionURL:   n.config.AppURL,
	}

	switch kind {
	case models.NotifyApplicationSubmitted:
		data.Subject = fmt.Sprintf("New team application for %s", str("opportunity"))
		data.Content = template.HTML(fmt.Sprintf("<p>The team <strong>%s</strong> applied to <strong>%s</strong>.</p>",
			template.HTMLEscapeString(str("team_name")), template.HTMLEscapeString(str("opportunity"))))
		data.ActionURL = fmt.Sprintf("%s/applications/%s", n.config.AppURL, str("application_id"))
		data.ActionLabel = "Review Application"
	case models.NotifyApplicationStatus:
		data.Subject = fmt.Sprintf("Application update: %s", str("opportunity"))
		data.Content = template.HTML(fmt.Sprintf("<p>%s.</p><p>Current status: <strong>%s</strong>.</p>",
			template.HTMLEscapeString(str("message")), template.HTMLEscapeString(str("status"))))
		data.ActionURL = fmt.Sprintf("%s/applications/%s", n.config.AppURL, str("application_id"))
		data.ActionLabel = "View Application"
	case models.NotifyOfferExtended:
		data.Subject = fmt.Sprintf("Offer received for %s", str("opportunity"))
		data.Content = template.HTML(fmt.Sprintf(`
		<p>Great news! Your team <strong>%s</strong> has received an offer for <strong>%s</strong>.</p>
		<p>Please respond by <strong>%s</strong>.</p>
	`, template.HTMLEscapeString(str("team_name")), template.HTMLEscapeString(str("opportunity")), template.HTMLEscapeString(str("response_deadline"))))
		data.ActionURL = fmt.Sprintf("%s/applications/%s/offer", n.config.AppURL, str("application_id"))
		data.ActionLabel = "Review Offer"
	case models.NotifyOfferAccepted, models.NotifyOfferDeclined:
		status := "accepted"
		if kind == models.NotifyOfferDeclined {
			status = "declined"
		}
		data.Subject = fmt.Sprintf("Your offer for %s has been %s", str("opportunity"), status)
		data.Content = template.HTML(fmt.Sprintf("<p>The team <strong>%s</strong> has <strong>%s</strong> your offer.</p>",
			template.HTMLEscapeString(str("team_name")), status))
		data.ActionURL = fmt.Sprintf("%s/applications/%s", n.config.AppURL, str("application_id"))
		data.ActionLabel = "View Details"
	case models.NotifyEOIReceived:
		data.Subject = "You received an expression of interest"
		data.Content = template.HTML(fmt.Sprintf("<p>%s</p><p>Interest level: <strong>%s</strong>.</p>",
			template.HTMLEscapeString(str("message")), template.HTMLEscapeString(str("interest_level"))))
		data.ActionURL = fmt.Sprintf("%s/eoi/%s", n.config.AppURL, str("eoi_id"))
		data.ActionLabel = "Respond"
	case models.NotifyEOIResponded:
		data.Subject = fmt.Sprintf("Your expression of interest was %s", str("status"))
		data.Content = template.HTML(fmt.Sprintf("<p>Your expression of interest has been <strong>%s</strong>.</p>",
			template.HTMLEscapeString(str("status"))))
		data.ActionURL = fmt.Sprintf("%s/eoi/%s", n.config.AppURL, str("eoi_id"))
		data.ActionLabel = "View"
	case models.NotifyTeamMemberLeft:
		data.Subject = fmt.Sprintf("A member left %s", str("team_name"))
		data.Content = template.HTML(fmt.Sprintf("<p>A member has left <strong>%s</strong>. The team now has %s members.</p>",
			template.HTMLEscapeString(str("team_name")), template.HTMLEscapeString(str("team_size"))))
		data.ActionURL = fmt.Sprintf("%s/teams/%s", n.config.AppURL, str("team_id"))
		data.ActionLabel = "View Team"
	default:
		data.Subject = "You have a new notification"
		data.Content = template.HTML("<p>Something changed on one of your engagements.</p>")
	}

	return data
}

// sendEmail delivers one message over SMTP. The whole exchange, dial
// included, is bounded by ctx.
func (n *EmailNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	if n.config.SMTPHost == "" {
		// Log email instead of sending in development
		n.log.Debug("email not sent, SMTP disabled", "to", to, "subject", subject)
		return nil
	}

	from := n.config.FromEmail
	msg := formatMessage(from, to, subject, body)

	host := n.config.SMTPHost
	addr := net.JoinHostPort(host, strconv.Itoa(n.config.SMTPPort))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp greeting from %s: %w", addr, err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if n.config.SMTPUser != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", n.config.SMTPUser, n.config.SMTPPassword, host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(headerSafe(from)); err != nil {
		return err
	}
	if err := client.Rcpt(headerSafe(to)); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// formatMessage builds the raw message. Header values come from user input
// and are flattened to a single line.
func formatMessage(from, to, subject, body string) []byte {
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		headerSafe(from), headerSafe(to), headerSafe(subject))
	return []byte(headers + body)
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func headerSafe(v string) string {
	return headerBreaks.Replace(v)
}

// renderEmail renders an email using the base template
func (n *EmailNotifier) renderEmail(data EmailData) (string, error) {
	data.AppName = n.config.AppName
	data.AppURL = n.config.AppURL

	var buf bytes.Buffer
	if err := n.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
