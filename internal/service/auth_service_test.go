package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"testria_backend/internal/config"
	"testria_backend/internal/model"
	"testria_backend/internal/util"
)

type recordedTask struct {
	Type    string
	Payload interface{}
}

type fakeEnqueuer struct {
	tasks []recordedTask
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, taskType string, payload interface{}) error {
	f.tasks = append(f.tasks, recordedTask{Type: taskType, Payload: payload})
	return nil
}

type sentMail struct {
	To, Subject, Plain, HTML string
}

type fakeSender struct {
	sent []sentMail
}

func (f *fakeSender) Send(to, subject, plain, html string) error {
	f.sent = append(f.sent, sentMail{to, subject, plain, html})
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWT:   config.JWTConfig{Secret: "jwt-secret", ExpireTime: time.Hour, RefreshTime: 24 * time.Hour},
		Token: config.TokenConfig{Secret: "token-secret", VerificationHours: time.Hour, ResetMinutes: 30 * time.Minute},
		Site:  config.SiteConfig{BaseURL: "http://testria.local/"},
	}
}

type authFixture struct {
	env   *testEnv
	tasks *fakeEnqueuer
	auth  *AuthService
	mail  *MailService
	inbox *fakeSender
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	env := newTestEnv(t)
	cfg := testConfig()
	tasks := &fakeEnqueuer{}
	inbox := &fakeSender{}
	return &authFixture{
		env:   env,
		tasks: tasks,
		auth:  NewAuthService(env.users, tasks, cfg),
		mail:  NewMailService(env.users, inbox, cfg),
		inbox: inbox,
	}
}

func (f *authFixture) register(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), &RegisterInput{
		Username:  username,
		Email:     strings.ToUpper(username) + "@Example.com",
		Password1: "correct-horse",
		Password2: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

// splitLink 返回链接末尾的 uid 和 token
func splitLink(t *testing.T, link string) (string, string) {
	t.Helper()
	parts := strings.Split(link, "/")
	if len(parts) < 2 {
		t.Fatalf("unexpected link %q", link)
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}

func TestRegisterEnqueuesVerification(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "ada")

	if user.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Password == "correct-horse" {
		t.Fatal("password must be hashed")
	}
	if len(f.tasks.tasks) != 1 || f.tasks.tasks[0].Type != TaskVerificationEmail {
		t.Fatalf("expected one verification task, got %+v", f.tasks.tasks)
	}
	if task := f.tasks.tasks[0].Payload.(EmailTask); task.UserID != user.ID {
		t.Fatalf("task for wrong user: %+v", task)
	}
}

func TestRegisterRejectsDuplicatesAndMismatch(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ada")

	cases := []struct {
		in   RegisterInput
		want error
	}{
		{RegisterInput{Username: "bob", Email: "bob@example.com", Password1: "aaaaaaaa", Password2: "bbbbbbbb"}, util.ErrPasswordMismatch},
		{RegisterInput{Username: "bob", Email: "ADA@example.com", Password1: "aaaaaaaa", Password2: "aaaaaaaa"}, util.ErrEmailRegistered},
		{RegisterInput{Username: "ada", Email: "other@example.com", Password1: "aaaaaaaa", Password2: "aaaaaaaa"}, util.ErrUsernameTaken},
	}
	for _, tc := range cases {
		in := tc.in
		if _, err := f.auth.Register(context.Background(), &in); !errors.Is(err, tc.want) {
			t.Fatalf("expected %v, got %v", tc.want, err)
		}
	}
}

func TestLoginByEmailOrUsername(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "ada")

	for _, login := range []string{"ada", "ada@example.com"} {
		token, got, err := f.auth.Login(login, "correct-horse")
		if err != nil {
			t.Fatalf("login %q: %v", login, err)
		}
		claims, err := util.ParseJWT(token, "jwt-secret")
		if err != nil || claims.UserID != user.ID || got.ID != user.ID {
			t.Fatalf("login %q issued a bad token: %v", login, err)
		}
	}
	if _, _, err := f.auth.Login("ada", "wrong"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := f.auth.Login("nobody", "correct-horse"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestVerifyEmailLinkIsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "ada")

	link, err := f.mail.VerificationLink(user)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if !strings.HasPrefix(link, "http://testria.local/api/users/verification/") {
		t.Fatalf("unexpected link %q", link)
	}
	uid, token := splitLink(t, link)

	jwtToken, verified, err := f.auth.VerifyEmail(uid, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verified.IsVerified || jwtToken == "" {
		t.Fatalf("expected verified user and a login token")
	}
	if _, _, err := f.auth.VerifyEmail(uid, token); !errors.Is(err, util.ErrInvalidLink) {
		t.Fatalf("expected reused link to be rejected, got %v", err)
	}
	if _, _, err := f.auth.VerifyEmail("garbage", token); !errors.Is(err, util.ErrInvalidLink) {
		t.Fatalf("expected bad uid to be rejected, got %v", err)
	}
	if err := f.auth.ResendVerification(context.Background(), user.ID); !errors.Is(err, util.ErrAlreadyVerified) {
		t.Fatalf("expected already verified, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "ada")
	f.tasks.tasks = nil

	if err := f.auth.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if len(f.tasks.tasks) != 0 {
		t.Fatalf("no task expected for unknown email")
	}
	if err := f.auth.RequestPasswordReset(context.Background(), "ADA@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if len(f.tasks.tasks) != 1 || f.tasks.tasks[0].Type != TaskPasswordResetEmail {
		t.Fatalf("expected reset task, got %+v", f.tasks.tasks)
	}

	stored, _ := f.env.users.FindByID(user.ID)
	link, err := f.mail.PasswordResetLink(stored)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	uid, token := splitLink(t, link)

	if err := f.auth.ConfirmPasswordReset(uid, token, "new-password", "other"); !errors.Is(err, util.ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := f.auth.ConfirmPasswordReset(uid, token, "new-password", "new-password"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := f.auth.ConfirmPasswordReset(uid, token, "again-password", "again-password"); !errors.Is(err, util.ErrInvalidResetToken) {
		t.Fatalf("expected token to be single use, got %v", err)
	}
	if _, _, err := f.auth.Login("ada", "new-password"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestChangePasswordRequiresOldPassword(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "ada")

	if err := f.auth.ChangePassword(user.ID, "wrong", "new-password", "new-password"); !errors.Is(err, util.ErrWrongOldPassword) {
		t.Fatalf("expected wrong old password, got %v", err)
	}
	if err := f.auth.ChangePassword(user.ID, "correct-horse", "new-password", "other"); !errors.Is(err, util.ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := f.auth.ChangePassword(999, "correct-horse", "new-password", "new-password"); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}

	stored, _ := f.env.users.FindByID(user.ID)
	resetLink, _ := f.mail.PasswordResetLink(stored)
	uid, resetToken := splitLink(t, resetLink)

	if err := f.auth.ChangePassword(user.ID, "correct-horse", "new-password", "new-password"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, _, err := f.auth.Login("ada", "correct-horse"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, _, err := f.auth.Login("ada", "new-password"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if err := f.auth.ConfirmPasswordReset(uid, resetToken, "third-password", "third-password"); !errors.Is(err, util.ErrInvalidResetToken) {
		t.Fatalf("reset link issued before the change must be invalid, got %v", err)
	}
}

func TestRefreshTokenIssuesAccessTokenUntilPasswordChange(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ada")

	_, user, err := f.auth.Login("ada", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	refresh, err := f.auth.IssueRefreshToken(user)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	// 再次登录不影响已有的刷新令牌
	if _, _, err := f.auth.Login("ada", "correct-horse"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	access, err := f.auth.RefreshToken(refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := util.ParseJWT(access, "jwt-secret")
	if err != nil || claims.UserID != user.ID {
		t.Fatalf("refresh issued a bad access token: %v", err)
	}

	if _, err := f.auth.RefreshToken(access); !errors.Is(err, util.ErrInvalidRefresh) {
		t.Fatalf("access token must not work as a refresh token, got %v", err)
	}
	if _, err := f.auth.RefreshToken("garbage"); !errors.Is(err, util.ErrInvalidRefresh) {
		t.Fatalf("expected invalid refresh, got %v", err)
	}

	if err := f.auth.ChangePassword(user.ID, "correct-horse", "new-password", "new-password"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, err := f.auth.RefreshToken(refresh); !errors.Is(err, util.ErrInvalidRefresh) {
		t.Fatalf("refresh token must be revoked by a password change, got %v", err)
	}
}

func TestVerificationEmailHandler(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "ada")

	payload, _ := json.Marshal(EmailTask{UserID: user.ID})
	if err := f.mail.HandleVerificationEmail(context.Background(), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.inbox.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(f.inbox.sent))
	}
	mail := f.inbox.sent[0]
	if mail.To != "ada@example.com" || !strings.Contains(mail.HTML, "/api/users/verification/") {
		t.Fatalf("unexpected email %+v", mail)
	}

	missing, _ := json.Marshal(EmailTask{UserID: 4242})
	if err := f.mail.HandleVerificationEmail(context.Background(), missing); err != nil {
		t.Fatalf("missing user must not be retried: %v", err)
	}

	f.env.users.MarkVerified(user.ID)
	if err := f.mail.HandleVerificationEmail(context.Background(), payload); err != nil {
		t.Fatalf("handle verified: %v", err)
	}
	if len(f.inbox.sent) != 1 {
		t.Fatalf("verified users must not get another email")
	}
}

func TestPasswordResetEmailHandler(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "ada")

	payload, _ := json.Marshal(EmailTask{UserID: user.ID})
	if err := f.mail.HandlePasswordResetEmail(context.Background(), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.inbox.sent) != 1 || !strings.Contains(f.inbox.sent[0].Plain, "30 minutes") {
		t.Fatalf("unexpected reset email %+v", f.inbox.sent)
	}
}
