// Package sender содержит бизнес-логику отправки почтовых уведомлений,
// потребляемых из очереди сообщений.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sequencia-app/sequencia/internal/lib/sl"
	"github.com/sequencia-app/sequencia/internal/lib/smtp"
	"github.com/sequencia-app/sequencia/internal/models"
)

// SenderService отправляет письма пользователям через SMTP транспорт.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendPremiumWelcome отправляет приветственное письмо после оформления
// премиум-подписки. body — сообщение из очереди в формате JSON.
func (s *SenderService) SendPremiumWelcome(body []byte) error {
	var message models.PremiumWelcome
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Welcome to Sequencia Premium"
	bodyText := fmt.Sprintf(`Hi %s!

Your Sequencia Premium subscription is now active.

You now have unlimited habits, full streak history and community features.
Keep your streaks alive!

— The Sequencia team`, message.Username)

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			s.log.Debug("failed to close SMTP client", sl.Err(closeErr))
		}
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
