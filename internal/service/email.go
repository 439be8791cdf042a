package service

import (
	"context"
	"fmt"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type sendGridNotifier struct {
	client    mailSender
	fromEmail string
	fromName  string
}

// NewNotifier returns a SendGrid notifier, or one that only logs when no API
// key is configured.
func NewNotifier(apiKey, fromEmail, fromName string) Notifier {
	if apiKey == "" {
		return noopNotifier{}
	}
	return &sendGridNotifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridNotifier) SendContractApproved(ctx context.Context, client *domain.Client, contract *domain.RentalContract) error {
	subject := "Your rental contract is approved"
	body := fmt.Sprintf("Hello %s,\n\nYour rental contract from %s to %s has been approved.\n\nEstimated total: %s\n\nBest regards,\n%s",
		client.FullName,
		contract.StartDate.Format("2006-01-02 15:04"),
		contract.EndDate.Format("2006-01-02 15:04"),
		contract.TotalAmount.StringFixed(2),
		s.fromName)
	return s.send(ctx, client.Email, client.FullName, subject, body)
}

func (s *sendGridNotifier) SendInvoiceIssued(ctx context.Context, client *domain.Client, invoice *domain.Invoice) error {
	subject := fmt.Sprintf("Invoice %s", invoice.Number)
	body := fmt.Sprintf("Hello %s,\n\nThank you for returning your vehicle. Invoice %s has been issued.\n\nAmount due: %s\n\nBest regards,\n%s",
		client.FullName, invoice.Number, invoice.Balance.StringFixed(2), s.fromName)
	return s.send(ctx, client.Email, client.FullName, subject, body)
}

func (s *sendGridNotifier) SendReport(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, "", subject, body)
}

func (s *sendGridNotifier) send(ctx context.Context, to, toName, subject, body string) error {
	logger.ExternalServiceCall("SendGrid", "Send", "subject", subject)
	message := mail.NewSingleEmail(mail.NewEmail(s.fromName, s.fromEmail), subject, mail.NewEmail(toName, to), body, "")

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		logger.ExternalServiceResult("SendGrid", "Send", err)
		return fmt.Errorf("failed to send email via sendgrid: %w", err)
	}
	if response.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("SendGrid", "Send", err)
		return err
	}
	logger.ExternalServiceResult("SendGrid", "Send", nil, "status", response.StatusCode)
	return nil
}

type noopNotifier struct{}

func (noopNotifier) SendContractApproved(ctx context.Context, client *domain.Client, contract *domain.RentalContract) error {
	logger.Debug("Email disabled, skipping contract approval", "contract_id", contract.ID)
	return nil
}

func (noopNotifier) SendInvoiceIssued(ctx context.Context, client *domain.Client, invoice *domain.Invoice) error {
	logger.Debug("Email disabled, skipping invoice", "invoice_id", invoice.ID)
	return nil
}

func (noopNotifier) SendReport(ctx context.Context, to, subject, body string) error {
	logger.Debug("Email disabled, skipping report", "subject", subject)
	return nil
}
