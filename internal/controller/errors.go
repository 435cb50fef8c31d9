package controller

import (
	"errors"
	"net/http"

	"testria_backend/internal/util"

	"github.com/gin-gonic/gin"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{util.ErrUserNotFound, http.StatusNotFound},
	{util.ErrFolderNotFound, http.StatusNotFound},
	{util.ErrSetNotFound, http.StatusNotFound},
	{util.ErrQuestionNotFound, http.StatusNotFound},
	{util.ErrSessionNotFound, http.StatusNotFound},
	{util.ErrPermissionDenied, http.StatusForbidden},
	{util.ErrInvalidCredentials, http.StatusUnauthorized},
	{util.ErrInvalidRefresh, http.StatusUnauthorized},
	{util.ErrEmailRegistered, http.StatusConflict},
	{util.ErrUsernameTaken, http.StatusConflict},
	{util.ErrFolderNameExists, http.StatusConflict},
	{util.ErrAlreadyFollowing, http.StatusConflict},
	{util.ErrAlreadyVerified, http.StatusConflict},
	{util.ErrSessionConflict, http.StatusConflict},
	{util.ErrSessionNotCompleted, http.StatusConflict},
	{util.ErrFollowSelf, http.StatusBadRequest},
	{util.ErrPasswordMismatch, http.StatusBadRequest},
	{util.ErrInvalidLink, http.StatusBadRequest},
	{util.ErrInvalidResetToken, http.StatusBadRequest},
	{util.ErrWrongOldPassword, http.StatusBadRequest},
	{util.ErrInvalidSetType, http.StatusBadRequest},
	{util.ErrNotTestSet, http.StatusBadRequest},
	{util.ErrNoQuestionServed, http.StatusBadRequest},
	{util.ErrUnsupportedImage, http.StatusBadRequest},
}

// respondError 将业务错误映射为统一响应，未知错误记录日志后返回 500
func respondError(ctx *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			util.Error(ctx, e.status, e.err.Error())
			return
		}
	}
	util.LogInternalError(ctx, err)
}

func currentUserID(ctx *gin.Context) (uint, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return 0, false
	}
	return claims.UserID, true
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id := util.MustParseUint(ctx.Param(name))
	if id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return id, true
}
