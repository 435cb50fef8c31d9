package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"testria_backend/internal/config"
	"testria_backend/internal/model"
	"testria_backend/internal/repository"
	"testria_backend/internal/util"
	"testria_backend/pkg/logger"
	"testria_backend/pkg/taskqueue"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const (
	TaskVerificationEmail  = "email:verification"
	TaskPasswordResetEmail = "email:password_reset"
)

// EmailTask 邮件任务只携带用户 ID，令牌在发送时生成
type EmailTask struct {
	UserID uint `json:"userId"`
}

// TaskEnqueuer 投递后台任务
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload interface{}) error
}

type MailSender interface {
	Send(to, subject, plain, html string) error
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg *config.MailConfig) *SMTPSender {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

func (s *SMTPSender) Send(to, subject, plain, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plain)
	m.AddAlternative("text/html", html)
	return s.dialer.DialAndSend(m)
}

// LogSender 未配置 SMTP 时只记录日志
type LogSender struct{}

func (LogSender) Send(to, subject, plain, html string) error {
	logger.Log.Info("Email not sent, SMTP is not configured",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", plain))
	return nil
}

func NewMailSender(cfg *config.MailConfig) MailSender {
	if cfg.Host == "" {
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}

var (
	verificationTmpl = template.Must(template.New("verification").Parse(`<p>Hi, {{.Username}}!</p>
<p>Please confirm your email address by following the link below:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>If you did not register on Testria, just ignore this letter.</p>`))

	passwordResetTmpl = template.Must(template.New("password_reset").Parse(`<p>Hi, {{.Username}}!</p>
<p>Somebody requested a password reset for your Testria account.</p>
<p><a href="{{.Link}}">Set a new password</a></p>
<p>The link expires in {{.Minutes}} minutes. If it was not you, ignore this letter.</p>`))
)

type mailData struct {
	Username string
	Link     string
	Minutes  int
}

// MailService 邮件任务处理器
type MailService struct {
	UserRepo *repository.UserRepository
	Sender   MailSender
	Cfg      *config.Config
}

func NewMailService(userRepo *repository.UserRepository, sender MailSender, cfg *config.Config) *MailService {
	return &MailService{
		UserRepo: userRepo,
		Sender:   sender,
		Cfg:      cfg,
	}
}

func (s *MailService) Register(q *taskqueue.Queue) {
	q.Register(TaskVerificationEmail, s.HandleVerificationEmail)
	q.Register(TaskPasswordResetEmail, s.HandlePasswordResetEmail)
}

func (s *MailService) VerificationLink(user *model.User) (string, error) {
	token, err := util.GenerateActionToken(user, util.PurposeVerifyEmail, s.Cfg.Token.Secret, s.Cfg.Token.VerificationHours)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/api/users/verification/%s/%s",
		strings.TrimRight(s.Cfg.Site.BaseURL, "/"), util.EncodeUID(user.ID), token), nil
}

func (s *MailService) PasswordResetLink(user *model.User) (string, error) {
	token, err := util.GenerateActionToken(user, util.PurposePasswordReset, s.Cfg.Token.Secret, s.Cfg.Token.ResetMinutes)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/password-reset/%s/%s",
		strings.TrimRight(s.Cfg.Site.BaseURL, "/"), util.EncodeUID(user.ID), token), nil
}

// loadRecipient 用户已不存在时不再重试
func (s *MailService) loadRecipient(payload json.RawMessage) (*model.User, error) {
	var task EmailTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, err
	}
	user, err := s.UserRepo.FindByID(task.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			logger.Log.Warn("Email recipient does not exist", zap.Uint("userID", task.UserID))
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *MailService) HandleVerificationEmail(ctx context.Context, payload json.RawMessage) error {
	user, err := s.loadRecipient(payload)
	if err != nil || user == nil {
		return err
	}
	if user.IsVerified {
		return nil
	}

	link, err := s.VerificationLink(user)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	if err := verificationTmpl.Execute(&body, mailData{Username: user.Username, Link: link}); err != nil {
		return err
	}
	plain := fmt.Sprintf("Hi, %s!\n\nPlease confirm your email address: %s\n", user.Username, link)

	if err := s.Sender.Send(user.Email, "Confirm your email", plain, body.String()); err != nil {
		return err
	}
	logger.Log.Info("Confirmation email sent", zap.Uint("userID", user.ID))
	return nil
}

func (s *MailService) HandlePasswordResetEmail(ctx context.Context, payload json.RawMessage) error {
	user, err := s.loadRecipient(payload)
	if err != nil || user == nil {
		return err
	}

	link, err := s.PasswordResetLink(user)
	if err != nil {
		return err
	}
	minutes := int(s.Cfg.Token.ResetMinutes.Minutes())
	var body bytes.Buffer
	if err := passwordResetTmpl.Execute(&body, mailData{Username: user.Username, Link: link, Minutes: minutes}); err != nil {
		return err
	}
	plain := fmt.Sprintf("Hi, %s!\n\nUse this link to set a new password: %s\nIt expires in %d minutes.\n", user.Username, link, minutes)

	if err := s.Sender.Send(user.Email, "Password reset", plain, body.String()); err != nil {
		return err
	}
	logger.Log.Info("Password reset email sent", zap.Uint("userID", user.ID))
	return nil
}
