// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков портала: успешных ответов,
// ошибок, сообщений валидации, перенаправлений гарда и заглушки загрузки.
package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/kyc-portal/internal/gateway"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK", "Error", "Redirect" или "Loading").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Location — адрес перенаправления (только для "Redirect").
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Location string `json:"location,omitempty"`
	Data     any    `json:"data,omitempty"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
	// StatusRedirect — гард требует перейти на Location.
	StatusRedirect = "Redirect"
	// StatusLoading — сессия ещё загружается.
	StatusLoading = "Loading"
)

// OK возвращает успешный Response без данных.
func OK() Response {
	return Response{Status: StatusOK}
}

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// Redirect возвращает Response перенаправления.
func Redirect(location string) Response {
	return Response{
		Status:   StatusRedirect,
		Location: location,
	}
}

// Loading возвращает Response заглушки загрузки.
func Loading() Response {
	return Response{Status: StatusLoading}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "alphanum":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers and letters", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// Backend переводит ошибку обращения к бэкенду в HTTP-статус и Response.
// Клиентские ошибки бэкенда (4xx) пробрасываются с его сообщением,
// остальное превращается в 502 или 504.
func Backend(err error) (int, Response) {
	var apiErr *gateway.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.Status, Error(apiErr.Message)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, Error("backend timeout")
	default:
		return http.StatusBadGateway, Error("backend unavailable")
	}
}
