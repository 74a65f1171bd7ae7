package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/querycache"
)

var (
	serviceReviewsQuery = Query[string, []models.Review]{
		Name: "serviceReviews",
		Path: func(serviceID string) string { return "/services/" + url.PathEscape(serviceID) + "/reviews" },
		Provides: func(items []models.Review, _ string) []querycache.Tag {
			return listTags(TagReview, items, func(r models.Review) string { return r.ID })
		},
	}
	createReviewMutation = Mutation[models.Review, models.Review]{
		Name:   "createReview",
		Method: http.MethodPost,
		Path:   func(models.Review) string { return "/reviews" },
		Body:   func(r models.Review) any { return r },
		Invalidates: func(models.Review) []querycache.Tag {
			return []querycache.Tag{querycache.List(TagReview)}
		},
	}
	deleteReviewMutation = Mutation[string, MessageResponse]{
		Name:   "deleteReview",
		Method: http.MethodDelete,
		Path:   func(id string) string { return "/reviews/" + url.PathEscape(id) },
		Invalidates: func(id string) []querycache.Tag {
			return []querycache.Tag{querycache.T(TagReview, id), querycache.List(TagReview)}
		},
	}
)

// ServiceReviews отзывы о сервисе.
func (c *Client) ServiceReviews(ctx context.Context, serviceID string) ([]models.Review, error) {
	return Fetch(ctx, c, serviceReviewsQuery, serviceID)
}

// CreateReview оставляет отзыв.
func (c *Client) CreateReview(ctx context.Context, r models.Review) (models.Review, error) {
	return Run(ctx, c, createReviewMutation, r)
}

// DeleteReview удаляет отзыв (модерация).
func (c *Client) DeleteReview(ctx context.Context, id string) error {
	_, err := Run(ctx, c, deleteReviewMutation, id)
	return err
}
