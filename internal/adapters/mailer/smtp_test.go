package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/ogurasousui/onboarding-checklist/internal/core/notification"
)

type capturedSend struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  []byte
}

func testMessage() notification.Message {
	return notification.Message{
		Recipient:  "boss@example.com",
		Sender:     "onboarding@example.com",
		SenderName: "Onboarding",
		Subject:    "Onboarding checklist for your new employee",
		HTMLBody:   "<html>hello</html>",
	}
}

func TestSender_Send_BuildsMessage(t *testing.T) {
	t.Parallel()

	var got capturedSend
	sender := &Sender{
		cfg: Config{Host: "smtp.local", Port: 587, Username: "user", Password: "secret"},
		send: func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
			got = capturedSend{addr: addr, auth: auth, from: from, to: to, msg: msg}
			return nil
		},
	}

	messageID, err := sender.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if got.addr != "smtp.local:587" {
		t.Fatalf("unexpected addr %s", got.addr)
	}
	if got.auth == nil {
		t.Fatal("expected PLAIN auth when username is set")
	}
	if got.from != "onboarding@example.com" || len(got.to) != 1 || got.to[0] != "boss@example.com" {
		t.Fatalf("unexpected envelope from=%s to=%v", got.from, got.to)
	}

	payload := string(got.msg)
	for _, header := range []string{
		"From: Onboarding <onboarding@example.com>\r\n",
		"To: boss@example.com\r\n",
		"Subject: Onboarding checklist for your new employee\r\n",
		"Message-ID: " + messageID + "\r\n",
		"MIME-Version: 1.0\r\n",
		`Content-Type: text/html; charset="UTF-8"` + "\r\n",
	} {
		if !strings.Contains(payload, header) {
			t.Errorf("missing header %q in payload", header)
		}
	}
	if !strings.HasSuffix(payload, "\r\n<html>hello</html>") {
		t.Fatalf("unexpected body in payload %q", payload)
	}
	if !strings.HasPrefix(messageID, "<") || !strings.HasSuffix(messageID, "@smtp.local>") {
		t.Fatalf("unexpected message id %s", messageID)
	}
}

func TestSender_Send_NoAuthWithoutUsername(t *testing.T) {
	t.Parallel()

	var got capturedSend
	sender := &Sender{
		cfg: Config{Host: "localhost", Port: 1025},
		send: func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
			got = capturedSend{addr: addr, auth: auth}
			return nil
		},
	}

	if _, err := sender.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if got.auth != nil {
		t.Fatal("expected no auth for anonymous relay")
	}
}

func TestSender_Send_EmptyRecipient(t *testing.T) {
	t.Parallel()

	sender := NewSender(Config{Host: "smtp.local", Port: 587})

	msg := testMessage()
	msg.Recipient = ""
	if _, err := sender.Send(context.Background(), msg); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}

func TestSender_Send_TransportError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("connection refused")
	sender := &Sender{
		cfg: Config{Host: "smtp.local", Port: 587},
		send: func(string, smtp.Auth, string, []string, []byte) error {
			return wantErr
		},
	}

	if _, err := sender.Send(context.Background(), testMessage()); !errors.Is(err, wantErr) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSender_Send_CancelledContext(t *testing.T) {
	t.Parallel()

	sender := &Sender{
		cfg: Config{Host: "smtp.local", Port: 587},
		send: func(string, smtp.Auth, string, []string, []byte) error {
			t.Fatal("send must not be called with a cancelled context")
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sender.Send(ctx, testMessage()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
