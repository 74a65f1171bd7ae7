package models

import "time"

// Service сервис верификации (проверка документа, лица, адреса и т.п.).
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Price       int    `json:"price" validate:"gte=0"`
	Active      bool   `json:"active"`
}

// Coupon промокод на скидку.
type Coupon struct {
	ID              string    `json:"id"`
	Code            string    `json:"code" validate:"required,alphanum"`
	DiscountPercent int       `json:"discountPercent" validate:"required,gt=0,lte=100"`
	ExpiresAt       time.Time `json:"expiresAt"`
	UsageLimit      int       `json:"usageLimit,omitempty"`
}

// Apply возвращает цену после применения скидки.
func (c Coupon) Apply(price int) int {
	return price - price*c.DiscountPercent/100
}

// Review отзыв пользователя о сервисе.
type Review struct {
	ID        string    `json:"id"`
	ServiceID string    `json:"serviceId" validate:"required"`
	UserID    string    `json:"userId,omitempty"`
	Rating    int       `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string    `json:"comment" validate:"max=2000"`
	CreatedAt time.Time `json:"createdAt"`
}

// VerificationResult результат проверки, выполненной сервисом для пользователя.
type VerificationResult struct {
	ID        string         `json:"id"`
	ServiceID string         `json:"serviceId"`
	UserID    string         `json:"userId"`
	Status    string         `json:"status"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
