package orders

import (
	"time"

	"github.com/mmeshcher/meatmart/internal/model"
)

func day(d, hour int) time.Time {
	return time.Date(2024, time.January, d, hour, 0, 0, 0, time.UTC)
}

func deliveredAt(d, hour int) *time.Time {
	t := day(d, hour)
	return &t
}

// Fixture возвращает демонстрационный список из пяти заказов.
func Fixture() []model.Order {
	return []model.Order{
		{
			ID:             "ORD001",
			CustomerID:     "3",
			CustomerName:   "John Doe",
			CustomerMobile: "9876500001",
			Items: []model.OrderItem{
				{MeatID: "1", MeatName: "Chicken Curry Cut", Price: 280, Weight: 1, Total: 280},
				{MeatID: "3", MeatName: "Mutton Curry Cut", Price: 650, Weight: 1, Total: 650},
			},
			TotalAmount:     930,
			Status:          model.OrderStatusDelivered,
			OrderDate:       day(15, 10),
			DeliveryDate:    deliveredAt(15, 14),
			DeliveryAddress: "12 MG Road, Bengaluru",
			PaymentMethod:   model.PaymentMethodOnline,
			PaymentStatus:   model.PaymentStatusPaid,
		},
		{
			ID:             "ORD002",
			CustomerID:     "4",
			CustomerName:   "Jane Smith",
			CustomerMobile: "9876500002",
			Items: []model.OrderItem{
				{MeatID: "4", MeatName: "Mutton Keema", Price: 700, Weight: 2, Total: 1400},
			},
			TotalAmount:     1400,
			Status:          model.OrderStatusShipped,
			OrderDate:       day(16, 9),
			DeliveryAddress: "45 Park Street, Kolkata",
			PaymentMethod:   model.PaymentMethodCOD,
			PaymentStatus:   model.PaymentStatusPending,
		},
		{
			ID:             "ORD003",
			CustomerID:     "3",
			CustomerName:   "John Doe",
			CustomerMobile: "9876500001",
			Items: []model.OrderItem{
				{MeatID: "5", MeatName: "Rohu Fish", Price: 320, Weight: 1.5, Total: 480},
			},
			TotalAmount:     480,
			Status:          model.OrderStatusPending,
			OrderDate:       day(17, 18),
			DeliveryAddress: "12 MG Road, Bengaluru",
			PaymentMethod:   model.PaymentMethodCOD,
			PaymentStatus:   model.PaymentStatusPending,
		},
		{
			ID:             "ORD004",
			CustomerID:     "5",
			CustomerName:   "Mike Johnson",
			CustomerMobile: "9876500003",
			Items: []model.OrderItem{
				{MeatID: "6", MeatName: "Tiger Prawns", Price: 850, Weight: 1.5, Total: 1275},
			},
			TotalAmount:     1275,
			Status:          model.OrderStatusConfirmed,
			OrderDate:       day(18, 11),
			DeliveryAddress: "7 Marine Drive, Mumbai",
			PaymentMethod:   model.PaymentMethodOnline,
			PaymentStatus:   model.PaymentStatusFailed,
		},
		{
			ID:             "ORD005",
			CustomerID:     "1",
			CustomerName:   "Rahul Sharma",
			CustomerMobile: "9876543210",
			Items: []model.OrderItem{
				{MeatID: "2", MeatName: "Chicken Breast Boneless", Price: 380, Weight: 2, Total: 760},
				{MeatID: "7", MeatName: "Country Eggs", Price: 180, Weight: 1, Total: 180},
			},
			TotalAmount:     940,
			Status:          model.OrderStatusProcessing,
			OrderDate:       day(18, 16),
			DeliveryAddress: "221 Anna Salai, Chennai",
			PaymentMethod:   model.PaymentMethodOnline,
			PaymentStatus:   model.PaymentStatusPaid,
		},
	}
}

// ByCustomer возвращает заказы покупателя в исходном порядке.
func ByCustomer(all []model.Order, customerID string) []model.Order {
	res := []model.Order{}
	for _, o := range all {
		if o.CustomerID == customerID {
			res = append(res, o)
		}
	}
	return res
}
