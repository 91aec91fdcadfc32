package sender_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequencia-app/sequencia/internal/lib/smtp"
	"github.com/sequencia-app/sequencia/internal/services/sender"
)

// clientStub записывает отправленное письмо вместо реального SMTP.
type clientStub struct {
	from    string
	rcpts   []string
	body    bytes.Buffer
	mailErr error
}

type writeCloserStub struct {
	buf *bytes.Buffer
}

func (w writeCloserStub) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w writeCloserStub) Close() error                { return nil }

func (c *clientStub) Mail(from string) error {
	if c.mailErr != nil {
		return c.mailErr
	}
	c.from = from
	return nil
}

func (c *clientStub) Rcpt(to string) error {
	c.rcpts = append(c.rcpts, to)
	return nil
}

func (c *clientStub) Data() (io.WriteCloser, error) {
	return writeCloserStub{buf: &c.body}, nil
}

func (c *clientStub) Quit() error  { return nil }
func (c *clientStub) Close() error { return nil }

type transportStub struct {
	client     *clientStub
	connectErr error
}

func (t *transportStub) Connect() (smtp.Client, error) {
	if t.connectErr != nil {
		return nil, t.connectErr
	}
	return t.client, nil
}

func (t *transportStub) GetSMTPUser() string { return "noreply@sequencia.app" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSenderService_SendPremiumWelcome(t *testing.T) {
	t.Run("sends welcome email", func(t *testing.T) {
		client := &clientStub{}
		svc := sender.NewSenderService(&transportStub{client: client}, testLogger())

		err := svc.SendPremiumWelcome([]byte(`{"email":"user@example.com","username":"runner"}`))

		require.NoError(t, err)
		assert.Equal(t, "noreply@sequencia.app", client.from)
		assert.Equal(t, []string{"user@example.com"}, client.rcpts)
		assert.Contains(t, client.body.String(), "Subject: Welcome to Sequencia Premium")
		assert.Contains(t, client.body.String(), "Hi runner!")
	})

	t.Run("invalid message body", func(t *testing.T) {
		svc := sender.NewSenderService(&transportStub{client: &clientStub{}}, testLogger())

		err := svc.SendPremiumWelcome([]byte(`not json`))

		assert.Error(t, err)
	})

	t.Run("connect failure", func(t *testing.T) {
		svc := sender.NewSenderService(&transportStub{connectErr: errors.New("dial tcp: refused")}, testLogger())

		err := svc.SendPremiumWelcome([]byte(`{"email":"user@example.com","username":"runner"}`))

		assert.Error(t, err)
	})
}
