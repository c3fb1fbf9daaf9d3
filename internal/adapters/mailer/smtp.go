// Package mailer は SMTP 経由で通知メールを送信します。
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ogurasousui/onboarding-checklist/internal/core/notification"
)

// Config は SMTP 接続設定です。
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// Sender は notification.MailSender の net/smtp 実装です。
type Sender struct {
	cfg  Config
	send sendFunc
}

// NewSender は Sender を生成します。
func NewSender(cfg Config) *Sender {
	return &Sender{cfg: cfg, send: smtp.SendMail}
}

// Send はメッセージを送信し、付与した Message-ID を返します。
func (s *Sender) Send(ctx context.Context, msg notification.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if msg.Recipient == "" {
		return "", fmt.Errorf("mailer: empty recipient")
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.cfg.Host)
	payload := buildMessage(msg, messageID)

	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(addr, auth, msg.Sender, []string{msg.Recipient}, payload); err != nil {
		return "", fmt.Errorf("mailer: send to %s: %w", msg.Recipient, err)
	}
	return messageID, nil
}

func buildMessage(msg notification.Message, messageID string) []byte {
	from := msg.Sender
	if msg.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", msg.SenderName, msg.Sender)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.Recipient + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Message-ID: " + messageID + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	return []byte(b.String())
}
