package gateway

import (
	"context"
	"net/http"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/querycache"
)

// OrderRequest запрос на создание платёжного заказа.
type OrderRequest struct {
	ServiceID  string `json:"serviceId" validate:"required"`
	PlanName   string `json:"planName,omitempty"`
	CouponCode string `json:"couponCode,omitempty" validate:"omitempty,alphanum"`
}

func transactionTags(items []models.Transaction, _ struct{}) []querycache.Tag {
	return listTags(TagTransaction, items, func(t models.Transaction) string { return t.ID })
}

var (
	myTransactionsQuery = Query[struct{}, []models.Transaction]{
		Name:     "myTransactions",
		Path:     fixed("/transactions/me"),
		Provides: transactionTags,
	}
	allTransactionsQuery = Query[struct{}, []models.Transaction]{
		Name:     "allTransactions",
		Path:     fixed("/transactions"),
		Provides: transactionTags,
	}
	createOrderMutation = Mutation[OrderRequest, models.Order]{
		Name:   "createOrder",
		Method: http.MethodPost,
		Path:   func(OrderRequest) string { return "/payments/order" },
		Body:   func(r OrderRequest) any { return r },
	}
	verifyPaymentMutation = Mutation[models.PaymentConfirmation, models.Transaction]{
		Name:   "verifyPayment",
		Method: http.MethodPost,
		Path:   func(models.PaymentConfirmation) string { return "/payments/verify" },
		Body:   func(p models.PaymentConfirmation) any { return p },
		// оплата создаёт транзакцию и подписку, профиль содержит activeSubscriptions
		Invalidates: func(models.PaymentConfirmation) []querycache.Tag {
			return []querycache.Tag{
				querycache.List(TagTransaction),
				querycache.List(TagSubscription),
				querycache.T(TagUser, ""),
			}
		},
	}
)

// MyTransactions транзакции текущего пользователя.
func (c *Client) MyTransactions(ctx context.Context) ([]models.Transaction, error) {
	return Fetch(ctx, c, myTransactionsQuery, struct{}{})
}

// AllTransactions все транзакции (админ).
func (c *Client) AllTransactions(ctx context.Context) ([]models.Transaction, error) {
	return Fetch(ctx, c, allTransactionsQuery, struct{}{})
}

// CreateOrder создаёт заказ у платёжного провайдера.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (models.Order, error) {
	return Run(ctx, c, createOrderMutation, req)
}

// VerifyPayment подтверждает оплату заказа.
func (c *Client) VerifyPayment(ctx context.Context, p models.PaymentConfirmation) (models.Transaction, error) {
	return Run(ctx, c, verifyPaymentMutation, p)
}
