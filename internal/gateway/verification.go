package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/querycache"
)

// VerificationRequest данные, отправляемые сервису верификации.
type VerificationRequest struct {
	ServiceID string         `json:"-"`
	Payload   map[string]any `json:"payload" validate:"required"`
}

var (
	verificationResultsQuery = Query[struct{}, []models.VerificationResult]{
		Name: "verificationResults",
		Path: fixed("/verification/results"),
		Provides: func(items []models.VerificationResult, _ struct{}) []querycache.Tag {
			return listTags(TagVerificationResult, items, func(r models.VerificationResult) string { return r.ID })
		},
	}
	submitVerificationMutation = Mutation[VerificationRequest, models.VerificationResult]{
		Name:   "submitVerification",
		Method: http.MethodPost,
		Path:   func(r VerificationRequest) string { return "/verification/" + url.PathEscape(r.ServiceID) },
		Body:   func(r VerificationRequest) any { return r },
		Invalidates: func(VerificationRequest) []querycache.Tag {
			return []querycache.Tag{querycache.List(TagVerificationResult)}
		},
	}
)

// VerificationResults результаты проверок текущего пользователя.
func (c *Client) VerificationResults(ctx context.Context) ([]models.VerificationResult, error) {
	return Fetch(ctx, c, verificationResultsQuery, struct{}{})
}

// SubmitVerification отправляет данные на проверку.
func (c *Client) SubmitVerification(ctx context.Context, req VerificationRequest) (models.VerificationResult, error) {
	return Run(ctx, c, submitVerificationMutation, req)
}
