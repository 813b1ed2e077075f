package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/SeveN7Igor7/studioivosantos/internal/kafka"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
)

var ErrInvalidMessage = errors.New("invalid email message")

type Config struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseSSL   bool
	Timeout  time.Duration
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Sender notifies customers about their appointments over SMTP.
type Sender struct {
	cfg    Config
	dialer dialer
	logger *logging.Logger
}

func NewSender(cfg Config, logger *logging.Logger) *Sender {
	if logger == nil {
		logger = logging.Discard()
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseSSL
	return &Sender{cfg: cfg, dialer: d, logger: logger}
}

// Send mails the customer named in the event. Events without an address,
// or a disabled sender, are logged and dropped.
func (s *Sender) Send(ctx context.Context, event kafka.AppointmentEvent) error {
	to := strings.TrimSpace(event.Email)
	if !s.cfg.Enabled || to == "" {
		s.logger.Info("email skipped", "type", event.Type, "appointment_id", event.AppointmentID, "enabled", s.cfg.Enabled)
		return nil
	}

	msg, err := buildMessage(s.cfg.From, to, event)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(msg)
	}()

	wait := s.cfg.Timeout
	if wait <= 0 {
		wait = 10 * time.Second
	}
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		s.logger.Info("email sent", "type", event.Type, "appointment_id", event.AppointmentID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return context.DeadlineExceeded
	}
}

func buildMessage(from, to string, event kafka.AppointmentEvent) (*gomail.Message, error) {
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, fmt.Errorf("%w: from is required", ErrInvalidMessage)
	}
	subject, body, ok := render(event)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported event %q", ErrInvalidMessage, event.Type)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg, nil
}

func render(event kafka.AppointmentEvent) (subject, body string, ok bool) {
	services := strings.Join(event.Services, ", ")
	greeting := "Olá"
	if event.CustomerName != "" {
		greeting = "Olá, " + event.CustomerName
	}

	switch event.Type {
	case kafka.EventAppointmentCreated:
		subject = "Agendamento confirmado"
		body = fmt.Sprintf("%s!\n\nSeu horário está confirmado para %s às %s.\nServiços: %s\n", greeting, event.Date, event.Start, services)
	case kafka.EventAppointmentUpdated:
		subject = "Agendamento alterado"
		body = fmt.Sprintf("%s!\n\nSeu agendamento foi alterado para %s às %s.\nServiços: %s\n", greeting, event.Date, event.Start, services)
	case kafka.EventAppointmentCancelled:
		subject = "Agendamento cancelado"
		body = fmt.Sprintf("%s!\n\nSeu horário de %s às %s foi cancelado.\n", greeting, event.Date, event.Start)
	case kafka.EventAppointmentCompleted:
		subject = "Obrigado pela visita"
		body = fmt.Sprintf("%s!\n\nObrigado por nos visitar em %s. Até a próxima!\n", greeting, event.Date)
	default:
		return "", "", false
	}
	return subject, body, true
}
