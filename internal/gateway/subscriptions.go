package gateway

import (
	"context"
	"net/http"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/querycache"
)

// SubscribeRequest оформление бесплатного или уже оплаченного плана.
type SubscribeRequest struct {
	ServiceID string `json:"serviceId" validate:"required"`
	PlanName  string `json:"planName" validate:"required"`
}

var (
	mySubscriptionsQuery = Query[struct{}, []models.Subscription]{
		Name: "mySubscriptions",
		Path: fixed("/subscriptions/me"),
		Provides: func(items []models.Subscription, _ struct{}) []querycache.Tag {
			return listTags(TagSubscription, items, func(s models.Subscription) string { return s.ID })
		},
	}
	subscribeMutation = Mutation[SubscribeRequest, models.Subscription]{
		Name:   "subscribe",
		Method: http.MethodPost,
		Path:   func(SubscribeRequest) string { return "/subscriptions" },
		Body:   func(r SubscribeRequest) any { return r },
		Invalidates: func(SubscribeRequest) []querycache.Tag {
			return []querycache.Tag{querycache.List(TagSubscription), querycache.T(TagUser, "")}
		},
	}
)

// MySubscriptions подписки текущего пользователя.
func (c *Client) MySubscriptions(ctx context.Context) ([]models.Subscription, error) {
	return Fetch(ctx, c, mySubscriptionsQuery, struct{}{})
}

// Subscribe оформляет подписку.
func (c *Client) Subscribe(ctx context.Context, req SubscribeRequest) (models.Subscription, error) {
	return Run(ctx, c, subscribeMutation, req)
}
