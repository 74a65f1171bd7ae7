// Package models содержит доменные структуры портала: пользователя и его роль,
// а также объекты, которыми портал обменивается с REST-бэкендом KYC.
package models

import "time"

// Role роль пользователя портала.
type Role string

const (
	// RoleAdmin администратор, видит раздел /admin.
	RoleAdmin Role = "admin"
	// RoleUser обычный пользователь, видит раздел /user.
	RoleUser Role = "user"
)

// Valid сообщает, известна ли роль порталу.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User представляет авторизованного пользователя так, как его отдаёт бэкенд.
type User struct {
	ID                  string               `json:"id"`
	Email               string               `json:"email"`
	Name                string               `json:"name,omitempty"`
	Role                Role                 `json:"role"`
	ActiveSubscriptions []ActiveSubscription `json:"activeSubscriptions"`
}

// ActiveSubscription активная подписка пользователя на сервис верификации.
type ActiveSubscription struct {
	ServiceID string `json:"serviceId"`
	PlanName  string `json:"planName,omitempty"`
	// ExpiresAt нулевой у бессрочных планов.
	ExpiresAt time.Time `json:"expiresAt"`
}

// Active действует ли подписка на момент now.
func (s ActiveSubscription) Active(now time.Time) bool {
	return s.ExpiresAt.IsZero() || s.ExpiresAt.After(now)
}

// HasSubscription проверяет наличие активной подписки на сервис на момент now.
func (u *User) HasSubscription(serviceID string, now time.Time) bool {
	if u == nil {
		return false
	}
	for _, s := range u.ActiveSubscriptions {
		if s.ServiceID == serviceID && s.Active(now) {
			return true
		}
	}
	return false
}
