// Package orders содержит демонстрационные заказы и фильтр по ним.
package orders

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mmeshcher/meatmart/internal/model"
)

// Criteria содержит значения полей фильтра в том виде, в каком их ввёл пользователь.
// Пустое поле не ограничивает выборку, нераспознанное число тоже.
type Criteria struct {
	Name       string `json:"name"`
	Mobile     string `json:"mobile"`
	AmountMin  string `json:"amountMin"`
	AmountMax  string `json:"amountMax"`
	Category   string `json:"category"`
	PastDays   string `json:"pastDays"`
	OrderCount string `json:"orderCount"`
}

// Comparison описывает условие на число заказов покупателя, например ">2".
type Comparison struct {
	Op    string
	Value int
}

// ParseComparison разбирает строку вида "<оператор><число>".
// Поддерживаются операторы >, >=, <, <=, = и ==.
func ParseComparison(s string) (Comparison, bool) {
	s = strings.TrimSpace(s)

	for _, op := range []string{">=", "<=", "==", ">", "<", "="} {
		if !strings.HasPrefix(s, op) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(s[len(op):]))
		if err != nil {
			return Comparison{}, false
		}
		if op == "==" {
			op = "="
		}
		return Comparison{Op: op, Value: n}, true
	}

	return Comparison{}, false
}

// Match сравнивает число с порогом.
func (c Comparison) Match(n int) bool {
	switch c.Op {
	case ">":
		return n > c.Value
	case ">=":
		return n >= c.Value
	case "<":
		return n < c.Value
	case "<=":
		return n <= c.Value
	case "=":
		return n == c.Value
	}
	return false
}

type predicate func(o model.Order) bool

// Filter возвращает заказы, удовлетворяющие всем заданным условиям, в исходном порядке.
// Число заказов покупателя считается по полному списку all.
func Filter(all []model.Order, c Criteria, now time.Time) []model.Order {
	preds := c.predicates(all, now)

	res := []model.Order{}
	for _, o := range all {
		if matchAll(preds, o) {
			res = append(res, o)
		}
	}
	return res
}

// CountByCustomer возвращает число заказов каждого покупателя.
func CountByCustomer(all []model.Order) map[string]int {
	counts := make(map[string]int)
	for _, o := range all {
		counts[o.CustomerID]++
	}
	return counts
}

func matchAll(preds []predicate, o model.Order) bool {
	for _, p := range preds {
		if !p(o) {
			return false
		}
	}
	return true
}

func (c Criteria) predicates(all []model.Order, now time.Time) []predicate {
	var preds []predicate

	if name := strings.ToLower(strings.TrimSpace(c.Name)); name != "" {
		preds = append(preds, func(o model.Order) bool {
			return strings.Contains(strings.ToLower(o.CustomerName), name)
		})
	}

	if mobile := strings.TrimSpace(c.Mobile); mobile != "" {
		preds = append(preds, func(o model.Order) bool {
			return strings.Contains(o.CustomerMobile, mobile)
		})
	}

	if minAmount, ok := parseAmount(c.AmountMin); ok {
		preds = append(preds, func(o model.Order) bool {
			return o.TotalAmount >= minAmount
		})
	}

	if maxAmount, ok := parseAmount(c.AmountMax); ok {
		preds = append(preds, func(o model.Order) bool {
			return o.TotalAmount <= maxAmount
		})
	}

	if category := strings.ToLower(strings.TrimSpace(c.Category)); category != "" {
		preds = append(preds, func(o model.Order) bool {
			for _, it := range o.Items {
				if strings.Contains(strings.ToLower(it.MeatName), category) {
					return true
				}
			}
			return false
		})
	}

	if days, err := strconv.Atoi(strings.TrimSpace(c.PastDays)); err == nil && days >= 0 {
		since := now.AddDate(0, 0, -days)
		preds = append(preds, func(o model.Order) bool {
			return !o.OrderDate.Before(since)
		})
	}

	if cmp, ok := ParseComparison(c.OrderCount); ok {
		counts := CountByCustomer(all)
		preds = append(preds, func(o model.Order) bool {
			return cmp.Match(counts[o.CustomerID])
		})
	}

	return preds
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
