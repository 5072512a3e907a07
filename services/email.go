package services

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/utils"
)

// Mailer sends one email. Implementations do not retry.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// ============================================================================
// RESEND
// ============================================================================

type ResendMailer struct {
	client    *resend.Client
	fromEmail string
}

func NewResendMailer(apiKey, fromEmail string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), fromEmail: fromEmail}
}

func (m *ResendMailer) Send(ctx context.Context, to, subject, html, text string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("MindSpend <%s>", m.fromEmail),
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}

	utils.SafeInfo("[Email] Sent via Resend to %s (id %s)", utils.MaskEmail(to), sent.Id)
	return nil
}

// ============================================================================
// SENDGRID
// ============================================================================

type SendGridMailer struct {
	client    *sendgrid.Client
	fromEmail string
}

func NewSendGridMailer(apiKey, fromEmail string) *SendGridMailer {
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey), fromEmail: fromEmail}
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, html, text string) error {
	from := mail.NewEmail("MindSpend", m.fromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), text, html)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}

	utils.SafeInfo("[Email] Sent via SendGrid to %s", utils.MaskEmail(to))
	return nil
}

// ============================================================================
// LOG ONLY
// ============================================================================

// LogMailer writes the email to the log instead of delivering it.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, html, text string) error {
	log.Printf("📧 [Email] (log only) To: %s Subject: %q Body: %s", utils.MaskEmail(to), subject, utils.MaskString(text))
	return nil
}

// NewMailer picks an implementation by provider name. Missing API keys fall
// back to the log mailer so local runs never need credentials.
func NewMailer(provider, resendKey, sendgridKey, fromEmail string) Mailer {
	switch provider {
	case "resend":
		if resendKey != "" {
			return NewResendMailer(resendKey, fromEmail)
		}
		log.Println("⚠️ [Email] RESEND_API_KEY not configured, using log mailer")
	case "sendgrid":
		if sendgridKey != "" {
			return NewSendGridMailer(sendgridKey, fromEmail)
		}
		log.Println("⚠️ [Email] SENDGRID_API_KEY not configured, using log mailer")
	}
	return LogMailer{}
}

// ============================================================================
// BUDGET ALERT NOTIFIER
// ============================================================================

// EmailNotifier emails budget alerts to the user. Category alerts are
// returned inline by the API and are not emailed.
type EmailNotifier struct {
	mailer      Mailer
	frontendURL string
}

func NewEmailNotifier(mailer Mailer, frontendURL string) *EmailNotifier {
	return &EmailNotifier{mailer: mailer, frontendURL: frontendURL}
}

func (n *EmailNotifier) Notify(ctx context.Context, event models.AlertEvent) error {
	if event.Kind != models.AlertKindBudget || event.Email == "" {
		return nil
	}
	return n.SendBudgetAlert(ctx, event.Email, event.Limit, event.CurrentSpending, event.PercentUsed, event.Period)
}

// SendBudgetAlert formats and delivers one budget alert email.
func (n *EmailNotifier) SendBudgetAlert(ctx context.Context, to string, budgetAmount, currentSpending, percentUsed float64, period string) error {
	html, text, err := utils.RenderBudgetAlertEmail(budgetAmount, currentSpending, percentUsed, period, n.frontendURL)
	if err != nil {
		return err
	}
	if err := n.mailer.Send(ctx, to, utils.BudgetAlertSubject(percentUsed), html, text); err != nil {
		return fmt.Errorf("send budget alert: %w", err)
	}
	return nil
}
