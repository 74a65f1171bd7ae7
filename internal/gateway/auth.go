package gateway

import (
	"context"
	"net/http"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/querycache"
)

// LoginRequest учётные данные для входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterRequest данные регистрации.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// ForgotPasswordRequest запрос на сброс пароля.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AuthResponse ответ бэкенда на вход и регистрацию.
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// MessageResponse ответ бэкенда без данных.
type MessageResponse struct {
	Message string `json:"message"`
}

var (
	loginMutation = Mutation[LoginRequest, AuthResponse]{
		Name:   "login",
		Method: http.MethodPost,
		Path:   func(LoginRequest) string { return "/auth/login" },
		Body:   func(r LoginRequest) any { return r },
	}
	registerMutation = Mutation[RegisterRequest, AuthResponse]{
		Name:   "register",
		Method: http.MethodPost,
		Path:   func(RegisterRequest) string { return "/auth/register" },
		Body:   func(r RegisterRequest) any { return r },
	}
	forgotPasswordMutation = Mutation[ForgotPasswordRequest, MessageResponse]{
		Name:   "forgotPassword",
		Method: http.MethodPost,
		Path:   func(ForgotPasswordRequest) string { return "/auth/forgot-password" },
		Body:   func(r ForgotPasswordRequest) any { return r },
	}
	profileQuery = Query[struct{}, models.User]{
		Name: "profile",
		Path: fixed("/auth/profile"),
		Provides: func(u models.User, _ struct{}) []querycache.Tag {
			return []querycache.Tag{querycache.T(TagUser, u.ID)}
		},
	}
)

// Login входит по email и паролю.
func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	return Run(ctx, c, loginMutation, req)
}

// Register регистрирует пользователя.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	return Run(ctx, c, registerMutation, req)
}

// ForgotPassword запрашивает письмо для сброса пароля.
func (c *Client) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (MessageResponse, error) {
	return Run(ctx, c, forgotPasswordMutation, req)
}

// Profile возвращает профиль текущего пользователя.
func (c *Client) Profile(ctx context.Context) (models.User, error) {
	return Fetch(ctx, c, profileQuery, struct{}{})
}
