package email

import (
	"bytes"
	"context"
	"html/template"

	"github.com/cyclebill/cyclebill/internal/config"
	"github.com/cyclebill/cyclebill/internal/domain/invoice"
	"github.com/cyclebill/cyclebill/internal/domain/order"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/domain/user"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/resend/resend-go/v2"
)

// emailTemplates stores email templates as string constants
var emailTemplates = map[string]string{
	"deleted-order.html": `<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; font-size: 14px; line-height: 1.6; color: #333;">
    <p>Hi {{.Name}},</p>
    <p>Your order <strong>{{.OrderID}}</strong> has been cancelled{{if .Reason}} following your cancellation request ({{.Reason}}){{end}}.</p>
    <p>The associated service has been terminated. If you believe this is a mistake, please contact support.</p>
</body>
</html>`,
	"unpaid-invoice.html": `<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; font-size: 14px; line-height: 1.6; color: #333;">
    <p>Hi {{.Name}},</p>
    <p>Your service has been suspended because of an unpaid invoice{{if .InvoiceID}} (<strong>{{.InvoiceID}}</strong>, total {{.Total}}){{end}}.</p>
    <p>Settle the open invoice to restore your service before it is cancelled.</p>
</body>
</html>`,
	"new-invoice.html": `<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; font-size: 14px; line-height: 1.6; color: #333;">
    <p>Hi {{.Name}},</p>
    <p>A new invoice <strong>{{.InvoiceID}}</strong> for {{.Total}} is ready for your upcoming renewal.</p>
    <p>Please pay before the due date to keep your service running.</p>
</body>
</html>`,
}

// Service delivers notifications through the resend API.
type Service struct {
	client *resend.Client
	config *config.EmailConfig
	logger *logger.Logger
}

func NewService(cfg *config.Configuration, logger *logger.Logger) *Service {
	var client *resend.Client
	if cfg.Email.Enabled && cfg.Email.APIKey != "" {
		client = resend.NewClient(cfg.Email.APIKey)
	}
	return &Service{
		client: client,
		config: &cfg.Email,
		logger: logger,
	}
}

func (s *Service) SendDeletedOrderNotification(ctx context.Context, ord *order.Order, usr *user.User, cancellation *subscription.CancellationRequest) error {
	data := map[string]any{
		"Name":    usr.Name,
		"OrderID": ord.ID,
	}
	if cancellation != nil {
		data["Reason"] = cancellation.Reason
	}
	return s.send(ctx, usr.Email, "Your order has been cancelled", "deleted-order.html", data)
}

func (s *Service) SendUnpaidInvoiceNotification(ctx context.Context, inv *invoice.Invoice, usr *user.User) error {
	data := map[string]any{
		"Name": usr.Name,
	}
	if inv != nil {
		data["InvoiceID"] = inv.ID
		data["Total"] = inv.Total.StringFixed(2)
	}
	return s.send(ctx, usr.Email, "Your service has been suspended", "unpaid-invoice.html", data)
}

func (s *Service) SendNewInvoiceNotification(ctx context.Context, inv *invoice.Invoice, usr *user.User) error {
	data := map[string]any{
		"Name":      usr.Name,
		"InvoiceID": inv.ID,
		"Total":     inv.Total.StringFixed(2),
	}
	return s.send(ctx, usr.Email, "Your renewal invoice is ready", "new-invoice.html", data)
}

func (s *Service) send(ctx context.Context, to, subject, templateName string, data map[string]any) error {
	if s.client == nil {
		s.logger.Warnw("email client is disabled, skipping email send",
			"to", to,
			"subject", subject,
		)
		return nil
	}

	body, err := s.render(templateName, data)
	if err != nil {
		return err
	}

	_, err = s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.config.FromAddress,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	})
	if err != nil {
		return ierr.WithError(err).
			WithHintf("failed to send %s email", templateName).
			Mark(ierr.ErrHTTPClient)
	}

	s.logger.Debugw("sent notification email",
		"to", to,
		"subject", subject,
		"template", templateName,
	)
	return nil
}

func (s *Service) render(templateName string, data map[string]any) (string, error) {
	raw, ok := emailTemplates[templateName]
	if !ok {
		return "", ierr.NewError("unknown email template").
			WithHintf("template %s is not registered", templateName).
			Mark(ierr.ErrSystem)
	}

	tmpl, err := template.New(templateName).Parse(raw)
	if err != nil {
		return "", ierr.WithError(err).
			WithHintf("failed to parse template %s", templateName).
			Mark(ierr.ErrSystem)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", ierr.WithError(err).
			WithHintf("failed to render template %s", templateName).
			Mark(ierr.ErrSystem)
	}
	return buf.String(), nil
}
