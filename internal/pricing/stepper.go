package pricing

import "github.com/shopspring/decimal"

// Stepper изменяет вес с фиксированным шагом в пределах [Min, Max].
// Нулевой Max означает отсутствие верхней границы.
type Stepper struct {
	Step float64
	Min  float64
	Max  float64
}

// CardStepper используется на карточках товаров: шаг 0.5 кг, не больше 10 кг.
func CardStepper(minWeight float64) Stepper {
	return Stepper{Step: 0.5, Min: minWeight, Max: MaxWeightKg}
}

// DetailStepper используется на странице товара: шаг 0.1 кг, не больше 10 кг.
func DetailStepper(minWeight float64) Stepper {
	return Stepper{Step: 0.1, Min: minWeight, Max: MaxWeightKg}
}

// CartStepper используется в корзине: шаг 0.1 кг, вес не отрицательный,
// верхней границы нет.
func CartStepper() Stepper {
	return Stepper{Step: 0.1}
}

// Direction задаёт направление шага.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// View задаёт экран, на котором выбирается вес.
type View string

const (
	ViewCard   View = "card"
	ViewDetail View = "detail"
)

// ForView возвращает шаговик экрана view для товара с минимальным весом minWeight.
func ForView(view View, minWeight float64) (Stepper, bool) {
	switch view {
	case ViewCard:
		return CardStepper(minWeight), true
	case ViewDetail, "":
		return DetailStepper(minWeight), true
	}
	return Stepper{}, false
}

// Move делает один шаг в направлении dir. Неизвестное направление не меняет вес.
func (s Stepper) Move(weight float64, dir Direction) (float64, bool) {
	switch dir {
	case Up:
		return s.Increment(weight), true
	case Down:
		return s.Decrement(weight), true
	}
	return weight, false
}

// Increment увеличивает вес на один шаг.
func (s Stepper) Increment(weight float64) float64 {
	return s.Clamp(s.snap(decimal.NewFromFloat(weight).Add(decimal.NewFromFloat(s.Step))))
}

// Decrement уменьшает вес на один шаг.
func (s Stepper) Decrement(weight float64) float64 {
	return s.Clamp(s.snap(decimal.NewFromFloat(weight).Sub(decimal.NewFromFloat(s.Step))))
}

// Clamp приводит вес к допустимому диапазону.
func (s Stepper) Clamp(weight float64) float64 {
	if weight < s.Min {
		return s.Min
	}
	if s.Max > 0 && weight > s.Max {
		return s.Max
	}
	return weight
}

func (s Stepper) snap(v decimal.Decimal) float64 {
	places := -decimal.NewFromFloat(s.Step).Exponent()
	if places < 0 {
		places = 0
	}
	return v.Round(places).InexactFloat64()
}
