// Package guard решает, можно ли показать страницу портала текущей сессии.
//
// Обе проверки — чистые функции от состояния сессии и параметров навигации,
// HTTP-обвязка живёт в middlewarectx.
package guard

import (
	"net/url"
	"slices"
	"strings"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

// Kind вид решения.
type Kind int

const (
	// Allow страницу можно показать.
	Allow Kind = iota
	// Loading сессия ещё гидрируется, показываем заглушку.
	Loading
	// RedirectLogin нужен вход.
	RedirectLogin
	// RedirectUnauthorized роль не подходит.
	RedirectUnauthorized
	// RedirectHome пользователь уже вошёл, уводим со страниц входа.
	RedirectHome
)

func (k Kind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Decision решение гарда. Location заполнен только для перенаправлений.
type Decision struct {
	Kind     Kind
	Location string
}

// Redirect сообщает, что решение требует перенаправления.
func (d Decision) Redirect() bool {
	return d.Location != ""
}

const (
	LoginPath           = "/login"
	UnauthorizedPath    = "/unauthorized"
	AdminHome           = "/admin"
	UserHome            = "/user"
	ServiceDetailPrefix = "/user/service/"

	// FromParam исходный путь, куда вернуть пользователя после входа.
	FromParam = "from"
	// StatusParam идентификатор сервиса, ради которого пользователь пришёл на вход.
	StatusParam = "status"
)

// Authorize проверяет доступ к защищённому поддереву маршрутов.
// allowed == nil означает публичный маршрут.
func Authorize(state session.State, allowed []models.Role, from, status string) Decision {
	if allowed == nil {
		return Decision{Kind: Allow}
	}
	if state.IsLoading {
		return Decision{Kind: Loading}
	}
	if !state.Authenticated() {
		return Decision{Kind: RedirectLogin, Location: LoginLocation(from, status)}
	}
	if !slices.Contains(allowed, state.Role()) {
		return Decision{Kind: RedirectUnauthorized, Location: UnauthorizedPath}
	}
	return Decision{Kind: Allow}
}

// RedirectIfAuthenticated уводит вошедшего пользователя со страниц входа и регистрации.
// Приоритет цели: status → страница сервиса, затем from, затем домашняя страница роли.
// from учитывается на один уровень: если он сам ведёт на страницу входа, цепочка
// не разворачивается и используется домашняя страница.
func RedirectIfAuthenticated(state session.State, status, from string) Decision {
	if !state.Authenticated() {
		return Decision{Kind: Allow}
	}
	if status != "" {
		return Decision{Kind: RedirectHome, Location: ServiceDetailPrefix + url.PathEscape(status)}
	}
	if isReturnable(from) {
		return Decision{Kind: RedirectHome, Location: from}
	}
	return Decision{Kind: RedirectHome, Location: Home(state.Role())}
}

// Home домашняя страница роли.
func Home(role models.Role) string {
	if role == models.RoleAdmin {
		return AdminHome
	}
	return UserHome
}

// LoginLocation адрес страницы входа с сохранением исходного пути и status.
func LoginLocation(from, status string) string {
	q := url.Values{}
	if isLocal(from) {
		q.Set(FromParam, from)
	}
	if status != "" {
		q.Set(StatusParam, status)
	}
	if len(q) == 0 {
		return LoginPath
	}
	return LoginPath + "?" + q.Encode()
}

func isLocal(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, `\`)
}

func isReturnable(from string) bool {
	if !isLocal(from) {
		return false
	}
	path := from
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if route, _, ok := Lookup(path); ok && route.Guest {
		return false
	}
	return true
}
