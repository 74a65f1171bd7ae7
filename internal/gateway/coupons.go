package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/querycache"
)

var (
	listCouponsQuery = Query[struct{}, []models.Coupon]{
		Name: "listCoupons",
		Path: fixed("/coupons"),
		Provides: func(items []models.Coupon, _ struct{}) []querycache.Tag {
			return listTags(TagCoupon, items, func(c models.Coupon) string { return c.Code })
		},
	}
	getCouponQuery = Query[string, models.Coupon]{
		Name: "getCoupon",
		Path: func(code string) string { return "/coupons/" + url.PathEscape(code) },
		Provides: func(_ models.Coupon, code string) []querycache.Tag {
			return []querycache.Tag{querycache.T(TagCoupon, code)}
		},
	}
	createCouponMutation = Mutation[models.Coupon, models.Coupon]{
		Name:   "createCoupon",
		Method: http.MethodPost,
		Path:   func(models.Coupon) string { return "/coupons" },
		Body:   func(c models.Coupon) any { return c },
		Invalidates: func(models.Coupon) []querycache.Tag {
			return []querycache.Tag{querycache.List(TagCoupon)}
		},
	}
	deleteCouponMutation = Mutation[string, MessageResponse]{
		Name:   "deleteCoupon",
		Method: http.MethodDelete,
		Path:   func(id string) string { return "/coupons/" + url.PathEscape(id) },
		// купоны кешируются по коду, а удаляются по id: сбрасываем весь тип
		Invalidates: func(string) []querycache.Tag {
			return []querycache.Tag{querycache.T(TagCoupon, "")}
		},
	}
)

// ListCoupons все купоны (админ).
func (c *Client) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	return Fetch(ctx, c, listCouponsQuery, struct{}{})
}

// GetCoupon купон по коду.
func (c *Client) GetCoupon(ctx context.Context, code string) (models.Coupon, error) {
	return Fetch(ctx, c, getCouponQuery, code)
}

// CreateCoupon создаёт купон.
func (c *Client) CreateCoupon(ctx context.Context, coupon models.Coupon) (models.Coupon, error) {
	return Run(ctx, c, createCouponMutation, coupon)
}

// DeleteCoupon удаляет купон.
func (c *Client) DeleteCoupon(ctx context.Context, id string) error {
	_, err := Run(ctx, c, deleteCouponMutation, id)
	return err
}
