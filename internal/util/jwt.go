package util

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"testria_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Verified bool   `json:"verified"`
	jwt.RegisteredClaims
}

func GenerateJWT(user *model.User, secret string, expiration time.Duration) (string, error) {
	expirationTime := time.Now().Add(expiration)

	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Verified: user.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	// 其他用途的令牌没有 user_id
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID != 0 {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// 邮件链接令牌的用途
const (
	PurposeVerifyEmail   = "verify_email"
	PurposePasswordReset = "password_reset"
	PurposeRefresh       = "refresh"
)

type actionClaims struct {
	UserID      uint   `json:"uid"`
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// userFingerprint 随用户状态变化，使已使用过的链接自动失效
func userFingerprint(user *model.User, purpose string) string {
	var state string
	switch purpose {
	case PurposeVerifyEmail:
		state = fmt.Sprintf("%s|%d|%s|%t", purpose, user.ID, user.Email, user.IsVerified)
	case PurposeRefresh:
		// 修改密码后所有刷新令牌失效
		state = fmt.Sprintf("%s|%d|%s", purpose, user.ID, user.Password)
	default:
		state = fmt.Sprintf("%s|%d|%s|%t|%d", purpose, user.ID, user.Password, user.IsVerified, user.LastLogin.Unix())
	}
	sum := sha256.Sum256([]byte(state))
	return hex.EncodeToString(sum[:16])
}

func GenerateActionToken(user *model.User, purpose, secret string, ttl time.Duration) (string, error) {
	claims := &actionClaims{
		UserID:      user.ID,
		Purpose:     purpose,
		Fingerprint: userFingerprint(user, purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseActionToken(tokenString, secret string) (*actionClaims, bool) {
	claims := &actionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, false
	}
	return claims, true
}

// ActionTokenSubject 取出签名有效的令牌所属用户，指纹需调用方加载用户后用 CheckActionToken 校验
func ActionTokenSubject(tokenString, purpose, secret string) (uint, bool) {
	claims, ok := parseActionToken(tokenString, secret)
	if !ok || claims.Purpose != purpose {
		return 0, false
	}
	return claims.UserID, true
}

func CheckActionToken(user *model.User, purpose, tokenString, secret string) bool {
	claims, ok := parseActionToken(tokenString, secret)
	if !ok {
		return false
	}
	return claims.UserID == user.ID &&
		claims.Purpose == purpose &&
		claims.Fingerprint == userFingerprint(user, purpose)
}

func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

func DecodeUID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
