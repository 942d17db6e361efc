// Package shell выбирает оболочку навигации и решает, доступен ли маршрут.
package shell

import (
	"strings"

	"github.com/mmeshcher/meatmart/internal/model"
)

// Kind описывает тип оболочки.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindAdmin    Kind = "admin"
)

// Link описывает пункт навигации.
type Link struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Shell описывает выбранную оболочку и её навигацию.
type Shell struct {
	Kind Kind   `json:"kind"`
	Home string `json:"home"`
	Nav  []Link `json:"nav"`
}

// Маршруты без сессии.
var AuthRoutes = []string{"/login", "/register", "/auth"}

// Маршруты покупателя.
var CustomerRoutes = []string{"/", "/cart", "/orders", "/profile", "/category/:id", "/product/:id"}

// Маршруты администратора.
var AdminRoutes = []string{
	"/admin",
	"/admin/meats",
	"/admin/categories",
	"/admin/offers",
	"/admin/orders",
	"/admin/loyalty-rewards",
	"/admin/settings",
}

var customerNav = []Link{
	{Title: "Home", Path: "/"},
	{Title: "Cart", Path: "/cart"},
	{Title: "Orders", Path: "/orders"},
	{Title: "Profile", Path: "/profile"},
}

var adminNav = []Link{
	{Title: "Dashboard", Path: "/admin"},
	{Title: "Meats", Path: "/admin/meats"},
	{Title: "Categories", Path: "/admin/categories"},
	{Title: "Offers", Path: "/admin/offers"},
	{Title: "Orders", Path: "/admin/orders"},
	{Title: "Loyalty Rewards", Path: "/admin/loyalty-rewards"},
	{Title: "Settings", Path: "/admin/settings"},
}

// Resolve возвращает оболочку администратора для администратора и оболочку покупателя для остальных.
func Resolve(identity *model.Identity) Shell {
	if identity != nil && identity.IsAdmin {
		return Shell{Kind: KindAdmin, Home: "/admin", Nav: append([]Link(nil), adminNav...)}
	}
	return Shell{Kind: KindCustomer, Home: "/", Nav: append([]Link(nil), customerNav...)}
}

// Decision описывает результат проверки маршрута.
type Decision struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	NotFound bool   `json:"notFound,omitempty"`
}

// Guard проверяет доступ к маршруту path. Без сессии доступны только маршруты входа,
// с сессией маршруты входа перенаправляют на домашнюю страницу оболочки.
func Guard(path string, identity *model.Identity) Decision {
	home := Resolve(identity).Home

	switch {
	case matchAny(AuthRoutes, path):
		if identity != nil {
			return Decision{Redirect: home}
		}
		return Decision{Allowed: true}

	case matchAny(AdminRoutes, path):
		if identity == nil {
			return Decision{Redirect: "/auth"}
		}
		if !identity.IsAdmin {
			return Decision{Redirect: home}
		}
		return Decision{Allowed: true}

	case matchAny(CustomerRoutes, path):
		if identity == nil {
			return Decision{Redirect: "/auth"}
		}
		if identity.IsAdmin {
			return Decision{Redirect: home}
		}
		return Decision{Allowed: true}
	}

	return Decision{NotFound: true}
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if match(p, path) {
			return true
		}
	}
	return false
}

func match(pattern, path string) bool {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if pattern == path {
		return true
	}

	ps := strings.Split(pattern, "/")
	xs := strings.Split(path, "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
