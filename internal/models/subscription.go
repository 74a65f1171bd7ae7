package models

import "time"

// Subscription подписка пользователя на тарифный план сервиса.
type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ServiceID string    `json:"serviceId"`
	PlanName  string    `json:"planName"`
	Price     int       `json:"price"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `json:"isActive"`
}

// Transaction платёжная операция пользователя.
type Transaction struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	ServiceID  string    `json:"serviceId"`
	Amount     int       `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	CouponCode string    `json:"couponCode,omitempty"`
	PaymentID  string    `json:"paymentId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Order заказ платёжного провайдера, который браузер передаёт платёжному виджету.
type Order struct {
	OrderID  string `json:"orderId"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId,omitempty"`
}

// PaymentConfirmation подтверждение оплаты от платёжного виджета.
type PaymentConfirmation struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}
