package mockapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/macropath/macropath/internal/macrosdk"
	"github.com/macropath/macropath/internal/utils"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type otpVerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required,len=6,numeric"`
	Password string `json:"password" binding:"required,min=8"`
}

type googleRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authHandler struct {
	auth *AuthService
}

func (h *authHandler) Login(ctx *gin.Context) {
	var req loginRequest
	if !bindJSON(ctx, &req) {
		return
	}

	resp, err := h.auth.Login(ctx, utils.NormalizeEmail(req.Email), req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		abortWithMessage(ctx, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrNotVerified):
		abortWithMessage(ctx, http.StatusForbidden, err.Error())
	case err != nil:
		internalError(ctx, err)
	default:
		ctx.JSON(http.StatusOK, resp)
	}
}

func (h *authHandler) Register(ctx *gin.Context) {
	var req registerRequest
	if !bindJSON(ctx, &req) {
		return
	}

	email := utils.NormalizeEmail(req.Email)
	err := h.auth.Register(ctx, req.Name, email, req.Password)
	switch {
	case errors.Is(err, ErrUserExists):
		abortWithMessage(ctx, http.StatusConflict, err.Error())
	case err != nil:
		internalError(ctx, err)
	default:
		user, _ := h.auth.accounts.byEmailAddr(email)
		ctx.JSON(http.StatusCreated, &macrosdk.RegisterResponse{
			Message: "verification code sent",
			User:    &user,
		})
	}
}

func (h *authHandler) VerifyOTP(ctx *gin.Context) {
	var req otpVerifyRequest
	if !bindJSON(ctx, &req) {
		return
	}

	resp, err := h.auth.VerifyOTP(ctx, utils.NormalizeEmail(req.Email), req.Code)
	switch {
	case errors.Is(err, ErrInvalidOTP):
		abortWithMessage(ctx, http.StatusBadRequest, err.Error())
	case err != nil:
		internalError(ctx, err)
	default:
		ctx.JSON(http.StatusOK, resp)
	}
}

func (h *authHandler) ResendOTP(ctx *gin.Context) {
	var req emailRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := h.auth.ResendOTP(ctx, utils.NormalizeEmail(req.Email)); err != nil {
		internalError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, &macrosdk.MessageResponse{Message: "if the account exists a new code was sent"})
}

func (h *authHandler) ForgotPassword(ctx *gin.Context) {
	var req emailRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := h.auth.ForgotPassword(ctx, utils.NormalizeEmail(req.Email)); err != nil {
		internalError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, &macrosdk.MessageResponse{Message: "if the account exists a reset code was sent"})
}

func (h *authHandler) ResetPassword(ctx *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(ctx, &req) {
		return
	}

	err := h.auth.ResetPassword(ctx, utils.NormalizeEmail(req.Email), req.Code, req.Password)
	switch {
	case errors.Is(err, ErrInvalidOTP):
		abortWithMessage(ctx, http.StatusBadRequest, err.Error())
	case err != nil:
		internalError(ctx, err)
	default:
		ctx.JSON(http.StatusOK, &macrosdk.MessageResponse{Message: "password updated"})
	}
}

func (h *authHandler) Google(ctx *gin.Context) {
	var req googleRequest
	if !bindJSON(ctx, &req) {
		return
	}

	resp, err := h.auth.GoogleSignIn(ctx, req.IDToken)
	switch {
	case errors.Is(err, ErrInvalidToken):
		abortWithMessage(ctx, http.StatusUnauthorized, "invalid google id token")
	case err != nil:
		internalError(ctx, err)
	default:
		ctx.JSON(http.StatusOK, resp)
	}
}

// Refresh answers every failure with `{"message": "invalid token"}`.
func (h *authHandler) Refresh(ctx *gin.Context) {
	var req refreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		abortWithMessage(ctx, http.StatusUnauthorized, ErrInvalidToken.Error())
		return
	}

	resp, err := h.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		_ = ctx.Error(err)
		abortWithMessage(ctx, http.StatusUnauthorized, ErrInvalidToken.Error())
		return
	}

	ctx.JSON(http.StatusOK, &macrosdk.AuthResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
}

func bindJSON(ctx *gin.Context, v any) bool {
	if err := ctx.ShouldBindJSON(v); err != nil {
		_ = ctx.Error(err)
		abortWithMessage(ctx, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func internalError(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	abortWithMessage(ctx, http.StatusInternalServerError, "internal error")
}
