// Package catalog предоставляет каталог товаров, категорий и предложений.
package catalog

import (
	"errors"
	"time"

	"github.com/mmeshcher/meatmart/internal/model"
	"github.com/mmeshcher/meatmart/internal/pricing"
)

var (
	// ErrMeatNotFound возвращается, если товар отсутствует в каталоге.
	ErrMeatNotFound = errors.New("meat not found")
	// ErrCategoryNotFound возвращается, если категория отсутствует в каталоге.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrOfferNotFound возвращается, если предложение отсутствует в каталоге.
	ErrOfferNotFound = errors.New("offer not found")
	// ErrOfferNotApplicable возвращается для истёкшего предложения или чужого товара.
	ErrOfferNotApplicable = errors.New("offer is not applicable")
)

// Catalog хранит неизменяемый набор категорий, товаров и предложений.
type Catalog struct {
	categories []model.Category
	meats      []model.Meat
	offers     []model.Offer
}

// New создаёт каталог из переданных данных.
func New(categories []model.Category, meats []model.Meat, offers []model.Offer) *Catalog {
	return &Catalog{
		categories: categories,
		meats:      meats,
		offers:     offers,
	}
}

// Categories возвращает все категории.
func (c *Catalog) Categories() []model.Category {
	return append([]model.Category(nil), c.categories...)
}

// Category возвращает категорию по идентификатору.
func (c *Catalog) Category(id string) (model.Category, error) {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, nil
		}
	}
	return model.Category{}, ErrCategoryNotFound
}

// Meats возвращает все товары.
func (c *Catalog) Meats() []model.Meat {
	return append([]model.Meat(nil), c.meats...)
}

// Meat возвращает товар по идентификатору.
func (c *Catalog) Meat(id string) (model.Meat, error) {
	for _, m := range c.meats {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Meat{}, ErrMeatNotFound
}

// MeatsByCategory возвращает товары категории.
func (c *Catalog) MeatsByCategory(categoryID string) ([]model.Meat, error) {
	if _, err := c.Category(categoryID); err != nil {
		return nil, err
	}

	res := []model.Meat{}
	for _, m := range c.meats {
		if m.CategoryID == categoryID {
			res = append(res, m)
		}
	}
	return res, nil
}

// Offers возвращает предложения, действующие на момент now.
func (c *Catalog) Offers(now time.Time) []model.Offer {
	res := []model.Offer{}
	for _, o := range c.offers {
		if o.ValidUntil.IsZero() || !now.After(o.ValidUntil) {
			res = append(res, o)
		}
	}
	return res
}

// AllOffers возвращает все предложения, включая истёкшие.
func (c *Catalog) AllOffers() []model.Offer {
	return append([]model.Offer(nil), c.offers...)
}

// Offer возвращает предложение по идентификатору.
func (c *Catalog) Offer(id string) (model.Offer, error) {
	for _, o := range c.offers {
		if o.ID == id {
			return o, nil
		}
	}
	return model.Offer{}, ErrOfferNotFound
}

// UnitPrice возвращает цену товара за килограмм. Если указано предложение,
// оно должно относиться к товару и действовать на момент now.
func (c *Catalog) UnitPrice(m model.Meat, offerID string, now time.Time) (float64, error) {
	if offerID == "" {
		return m.PricePerKg, nil
	}

	o, err := c.Offer(offerID)
	if err != nil {
		return 0, err
	}
	if o.MeatID != m.ID || (!o.ValidUntil.IsZero() && now.After(o.ValidUntil)) {
		return 0, ErrOfferNotApplicable
	}
	return pricing.FinalUnitPrice(m.PricePerKg, o.DiscountPercent), nil
}
