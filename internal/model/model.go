// Package model содержит доменные сущности витрины мясного магазина.
package model

import "time"

// Identity представляет аутентифицированного пользователя витрины.
type Identity struct {
	ID      string `json:"id"`
	Mobile  string `json:"mobile"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

// CartItem описывает одну позицию корзины: товар и выбранный вес.
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	MinWeight float64 `json:"minWeight"`
	Weight    float64 `json:"weight"`
	Image     string  `json:"image"`
	Total     float64 `json:"total"`
}

// CartSummary содержит позиции корзины и вычисленные итоги.
type CartSummary struct {
	Items       []CartItem `json:"items"`
	TotalAmount float64    `json:"totalAmount"`
	ItemCount   float64    `json:"itemCount"`
}

// Category описывает категорию каталога.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Meat описывает товар каталога, продаваемый на вес.
type Meat struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PricePerKg  float64   `json:"pricePerKg"`
	MinKg       float64   `json:"minKg"`
	Image       string    `json:"image"`
	CategoryID  string    `json:"categoryId"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Offer описывает скидку на товар каталога.
type Offer struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	MeatID          string    `json:"meatId"`
	DiscountPercent float64   `json:"discountPercent"`
	ValidUntil      time.Time `json:"validUntil"`
}

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPacked     OrderStatus = "packed"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentMethod описывает способ оплаты заказа.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

// PaymentStatus описывает статус оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// OrderItem описывает позицию заказа.
type OrderItem struct {
	MeatID   string  `json:"meatId"`
	MeatName string  `json:"meatName"`
	Price    float64 `json:"price"`
	Weight   float64 `json:"weight"`
	Total    float64 `json:"total"`
}

// Order описывает заказ покупателя.
type Order struct {
	ID              string        `json:"id"`
	CustomerID      string        `json:"customerId"`
	CustomerName    string        `json:"customerName"`
	CustomerMobile  string        `json:"customerMobile"`
	Items           []OrderItem   `json:"items"`
	TotalAmount     float64       `json:"totalAmount"`
	Status          OrderStatus   `json:"status"`
	OrderDate       time.Time     `json:"orderDate"`
	DeliveryDate    *time.Time    `json:"deliveryDate,omitempty"`
	DeliveryAddress string        `json:"deliveryAddress"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
}

// Customer содержит агрегированные данные покупателя для программы лояльности.
type Customer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Mobile        string    `json:"mobile"`
	OrderCount    int       `json:"orderCount"`
	TotalSpent    float64   `json:"totalSpent"`
	LastOrderDate time.Time `json:"lastOrderDate"`
}

// Settings содержит параметры магазина, отображаемые в административной панели.
type Settings struct {
	StoreName         string  `json:"storeName"`
	SupportMobile     string  `json:"supportMobile"`
	DeliveryFee       float64 `json:"deliveryFee"`
	FreeDeliveryAbove float64 `json:"freeDeliveryAbove"`
	MinOrderAmount    float64 `json:"minOrderAmount"`
}

// Profile описывает профиль покупателя и сводку по его заказам.
type Profile struct {
	Identity   Identity `json:"identity"`
	OrderCount int      `json:"orderCount"`
	TotalSpent float64  `json:"totalSpent"`
}
