// Package loyalty подбирает покупателей для программ лояльности.
package loyalty

import (
	"time"

	"github.com/mmeshcher/meatmart/internal/model"
	"github.com/mmeshcher/meatmart/internal/orders"
	"github.com/mmeshcher/meatmart/internal/pricing"
)

// Audience возвращает покупателей, чьи заказы прошли фильтр, в порядке первого появления.
// Число заказов, сумма покупок и дата последнего заказа считаются по полному списку.
func Audience(all []model.Order, c orders.Criteria, now time.Time) []model.Customer {
	stats := make(map[string]*model.Customer)
	spent := make(map[string][]float64)
	for _, o := range all {
		cust, ok := stats[o.CustomerID]
		if !ok {
			cust = &model.Customer{ID: o.CustomerID, Name: o.CustomerName, Mobile: o.CustomerMobile}
			stats[o.CustomerID] = cust
		}
		cust.OrderCount++
		spent[o.CustomerID] = append(spent[o.CustomerID], o.TotalAmount)
		if o.OrderDate.After(cust.LastOrderDate) {
			cust.LastOrderDate = o.OrderDate
		}
	}

	res := []model.Customer{}
	seen := make(map[string]struct{})
	for _, o := range orders.Filter(all, c, now) {
		if _, ok := seen[o.CustomerID]; ok {
			continue
		}
		seen[o.CustomerID] = struct{}{}

		cust := *stats[o.CustomerID]
		cust.TotalSpent = pricing.Sum(spent[o.CustomerID]...)
		res = append(res, cust)
	}
	return res
}
