package service

import (
	"context"
	"strings"

	"testria_backend/internal/config"
	"testria_backend/internal/model"
	"testria_backend/internal/repository"
	"testria_backend/internal/util"
	"testria_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password1 string
	Password2 string
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Tasks    TaskEnqueuer
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, tasks TaskEnqueuer, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Tasks:    tasks,
		Cfg:      cfg,
	}
}

func (s *AuthService) enqueueEmail(ctx context.Context, taskType string, userID uint) error {
	err := s.Tasks.Enqueue(ctx, taskType, EmailTask{UserID: userID})
	if err != nil {
		logger.Log.Error("Failed to enqueue email", zap.String("type", taskType), zap.Uint("userID", userID), zap.Error(err))
	}
	return err
}

func (s *AuthService) Register(ctx context.Context, in *RegisterInput) (*model.User, error) {
	if in.Password1 != in.Password2 {
		return nil, util.ErrPasswordMismatch
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	exists, err := s.UserRepo.EmailExists(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrEmailRegistered
	}
	if exists, err = s.UserRepo.UsernameExists(in.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, util.ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:  in.Username,
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  string(hashedPassword),
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}

	// 邮件投递失败不影响注册，用户可重新发送
	_ = s.enqueueEmail(ctx, TaskVerificationEmail, user.ID)
	return user, nil
}

// Login 支持邮箱或用户名
func (s *AuthService) Login(login, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByLogin(strings.TrimSpace(login))
	if err != nil {
		if repository.IsNotFound(err) {
			return "", nil, util.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	if err := s.UserRepo.TouchLastLogin(user.ID); err != nil {
		logger.Log.Warn("Failed to update last login", zap.Uint("userID", user.ID), zap.Error(err))
	}
	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	return token, user, err
}

func (s *AuthService) userFromUID(uid string) (*model.User, bool) {
	id, err := util.DecodeUID(uid)
	if err != nil {
		return nil, false
	}
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		return nil, false
	}
	return user, true
}

// VerifyEmail 校验确认链接，成功后直接签发登录令牌
func (s *AuthService) VerifyEmail(uid, token string) (string, *model.User, error) {
	user, ok := s.userFromUID(uid)
	if !ok || !util.CheckActionToken(user, util.PurposeVerifyEmail, token, s.Cfg.Token.Secret) {
		return "", nil, util.ErrInvalidLink
	}

	if err := s.UserRepo.MarkVerified(user.ID); err != nil {
		return "", nil, err
	}
	user.IsVerified = true
	logger.Log.Info("Email verified", zap.Uint("userID", user.ID))

	jwtToken, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	return jwtToken, user, err
}

func (s *AuthService) ResendVerification(ctx context.Context, userID uint) error {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return util.ErrUserNotFound
		}
		return err
	}
	if user.IsVerified {
		return util.ErrAlreadyVerified
	}
	return s.enqueueEmail(ctx, TaskVerificationEmail, user.ID)
}

// RequestPasswordReset 不暴露邮箱是否注册
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.UserRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	return s.enqueueEmail(ctx, TaskPasswordResetEmail, user.ID)
}

// ConfirmPasswordReset 令牌与当前密码哈希绑定，修改后旧链接失效
func (s *AuthService) ConfirmPasswordReset(uid, token, password1, password2 string) error {
	user, ok := s.userFromUID(uid)
	if !ok || !util.CheckActionToken(user, util.PurposePasswordReset, token, s.Cfg.Token.Secret) {
		return util.ErrInvalidResetToken
	}
	if password1 != password2 {
		return util.ErrPasswordMismatch
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password1), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.UserRepo.UpdatePassword(user.ID, string(hashedPassword)); err != nil {
		return err
	}
	logger.Log.Info("Password reset", zap.Uint("userID", user.ID))
	return nil
}

// ChangePassword 需校验旧密码；新哈希会使该用户的刷新令牌和重置链接失效
func (s *AuthService) ChangePassword(userID uint, oldPassword, password1, password2 string) error {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return util.ErrUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return util.ErrWrongOldPassword
	}
	if password1 != password2 {
		return util.ErrPasswordMismatch
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password1), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.UserRepo.UpdatePassword(user.ID, string(hashedPassword)); err != nil {
		return err
	}
	logger.Log.Info("Password changed", zap.Uint("userID", user.ID))
	return nil
}

func (s *AuthService) IssueRefreshToken(user *model.User) (string, error) {
	return util.GenerateActionToken(user, util.PurposeRefresh, s.Cfg.Token.Secret, s.Cfg.JWT.RefreshTime)
}

// RefreshToken 用刷新令牌换取新的访问令牌
func (s *AuthService) RefreshToken(refresh string) (string, error) {
	id, ok := util.ActionTokenSubject(refresh, util.PurposeRefresh, s.Cfg.Token.Secret)
	if !ok {
		return "", util.ErrInvalidRefresh
	}
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", util.ErrInvalidRefresh
		}
		return "", err
	}
	if !util.CheckActionToken(user, util.PurposeRefresh, refresh, s.Cfg.Token.Secret) {
		return "", util.ErrInvalidRefresh
	}
	return util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}
