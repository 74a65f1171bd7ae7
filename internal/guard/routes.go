package guard

import (
	"strings"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
)

// Route описание маршрута портала. AllowedRoles == nil — публичная страница,
// Guest — страница входа, которую не показывают вошедшему пользователю.
type Route struct {
	Name         string
	Path         string
	AllowedRoles []models.Role
	Guest        bool
}

// Public сообщает, что маршрут доступен без входа.
func (r Route) Public() bool {
	return r.AllowedRoles == nil
}

var (
	// UserRoles роли раздела /user.
	UserRoles = []models.Role{models.RoleUser}
	// AdminRoles роли раздела /admin.
	AdminRoles = []models.Role{models.RoleAdmin}
)

// Table статическая таблица страниц портала.
var Table = []Route{
	{Name: "home", Path: "/"},
	{Name: "about", Path: "/about"},
	{Name: "services", Path: "/services"},
	{Name: "service", Path: "/services/{id}"},
	{Name: "pricing", Path: "/pricing"},
	{Name: "faq", Path: "/faq"},
	{Name: "contact", Path: "/contact"},
	{Name: "privacy", Path: "/privacy-policy"},
	{Name: "terms", Path: "/terms"},
	{Name: "unauthorized", Path: UnauthorizedPath},

	{Name: "login", Path: LoginPath, Guest: true},
	{Name: "signup", Path: "/signup", Guest: true},
	{Name: "forgot-password", Path: "/forgot-password", Guest: true},

	{Name: "user-home", Path: UserHome, AllowedRoles: UserRoles},
	{Name: "user-service", Path: "/user/service/{id}", AllowedRoles: UserRoles},
	{Name: "user-verification", Path: "/user/verification", AllowedRoles: UserRoles},
	{Name: "user-transactions", Path: "/user/transactions", AllowedRoles: UserRoles},
	{Name: "user-subscriptions", Path: "/user/subscriptions", AllowedRoles: UserRoles},
	{Name: "user-profile", Path: "/user/profile", AllowedRoles: UserRoles},

	{Name: "admin-home", Path: AdminHome, AllowedRoles: AdminRoles},
	{Name: "admin-users", Path: "/admin/users", AllowedRoles: AdminRoles},
	{Name: "admin-services", Path: "/admin/services", AllowedRoles: AdminRoles},
	{Name: "admin-coupons", Path: "/admin/coupons", AllowedRoles: AdminRoles},
	{Name: "admin-transactions", Path: "/admin/transactions", AllowedRoles: AdminRoles},
	{Name: "admin-reviews", Path: "/admin/reviews", AllowedRoles: AdminRoles},
}

// Lookup ищет маршрут по пути. Сегменты вида {name} совпадают с любым
// непустым сегментом, их значения возвращаются в params.
func Lookup(path string) (Route, map[string]string, bool) {
	segs := split(path)
	for _, r := range Table {
		if params, ok := match(split(r.Path), segs); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

// ByName возвращает маршрут по имени.
func ByName(name string) (Route, bool) {
	for _, r := range Table {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func match(pattern, segs []string) (map[string]string, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	var params map[string]string
	for i, p := range pattern {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if segs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:len(p)-1]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}
