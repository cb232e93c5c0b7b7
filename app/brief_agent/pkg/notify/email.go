package notify

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/mail.v2"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/config"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/logger"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// EmailSender 通过 SMTP 发送生成完成的简报
type EmailSender struct {
	cfg  config.EmailConfig
	send func(m *gomail.Message) error
}

// NewEmailSender 创建发送器
func NewEmailSender(cfg config.EmailConfig) *EmailSender {
	s := &EmailSender{cfg: cfg}
	s.send = s.dial
	return s
}

// Enabled 是否已启用并配置了收件人
func (s *EmailSender) Enabled() bool {
	return s.cfg.Enabled && s.cfg.SMTPServer != "" && s.cfg.ToEmail != ""
}

// Notify 以 Markdown 正文发送简报，JSON 作为附件
func (s *EmailSender) Notify(ctx context.Context, doc *model.BriefDocument, markdown string, jsonPath string) error {
	if !s.Enabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := s.message(doc, markdown, jsonPath)
	if err := s.send(m); err != nil {
		logger.Log.Errorf("邮件发送失败 (收件人: %s): %v", s.cfg.ToEmail, err)
		return fmt.Errorf("send brief email: %w", err)
	}
	logger.Log.Infof("邮件已发送: %s_%s", doc.Ticker, doc.Date)
	return nil
}

func (s *EmailSender) message(doc *model.BriefDocument, markdown string, jsonPath string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", s.cfg.ToEmail)
	m.SetHeader("Subject", fmt.Sprintf("Company brief: %s %s", doc.Ticker, doc.Date))
	m.SetBody("text/markdown", markdown)
	if jsonPath != "" {
		m.Attach(jsonPath)
	}
	return m
}

func (s *EmailSender) dial(m *gomail.Message) error {
	dialer := gomail.NewDialer(s.cfg.SMTPServer, s.cfg.SMTPPort, s.cfg.SMTPUser, s.cfg.SMTPPass)
	dialer.Timeout = 10 * time.Second
	return dialer.DialAndSend(m)
}
