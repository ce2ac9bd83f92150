package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// EmailServiceConfig holds email service configuration
type EmailServiceConfig struct {
	APIKey      string
	FromEmail   string
	FromName    string
	Environment string
	BaseURL     string // For reset/verification links
}

// EmailService dispatches transactional mail through SendGrid. A circuit
// breaker shields the save/reset paths from a degraded provider.
type EmailService struct {
	logger   *zap.Logger
	config   EmailServiceConfig
	client   *sendgrid.Client
	breaker  *gobreaker.CircuitBreaker
	mockMode bool // development or missing API key
}

// NewEmailService creates a new email service
func NewEmailService(logger *zap.Logger, config EmailServiceConfig) *EmailService {
	mockMode := config.Environment == "development" || config.APIKey == ""

	var client *sendgrid.Client
	if !mockMode {
		client = sendgrid.NewSendClient(config.APIKey)
	}

	st := gobreaker.Settings{
		Name:        "SendGrid",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &EmailService{
		logger:   logger,
		config:   config,
		client:   client,
		breaker:  gobreaker.NewCircuitBreaker(st),
		mockMode: mockMode,
	}
}

func (e *EmailService) sendEmail(ctx context.Context, to, subject, htmlContent, textContent string) error {
	if e.mockMode {
		e.logger.Info("Email dispatched (mock)",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}

	from := mail.NewEmail(e.config.FromName, e.config.FromEmail)
	toEmail := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, toEmail, textContent, htmlContent)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := e.breaker.Execute(func() (interface{}, error) {
		response, err := e.client.SendWithContext(ctxWithTimeout, message)
		if err != nil {
			return nil, err
		}
		if response.StatusCode >= 400 {
			return nil, fmt.Errorf("email provider returned status %d", response.StatusCode)
		}
		return response, nil
	})
	if err != nil {
		e.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendPasswordReset dispatches a password-reset email.
func (e *EmailService) SendPasswordReset(ctx context.Context, to, resetToken string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", e.config.BaseURL, resetToken)
	subject := "Reset your FraudWatch password"
	text := fmt.Sprintf("Use the following link to reset your password: %s", link)
	html := fmt.Sprintf(`<p>Use the following link to reset your password:</p><p><a href="%s">%s</a></p>`, link, link)
	return e.sendEmail(ctx, to, subject, html, text)
}

// SendVerification dispatches an email-verification message.
func (e *EmailService) SendVerification(ctx context.Context, to, verifyToken string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", e.config.BaseURL, verifyToken)
	subject := "Verify your FraudWatch email"
	text := fmt.Sprintf("Verify your email address: %s", link)
	html := fmt.Sprintf(`<p>Verify your email address:</p><p><a href="%s">%s</a></p>`, link, link)
	return e.sendEmail(ctx, to, subject, html, text)
}
