package catalog

import (
	"time"

	"github.com/mmeshcher/meatmart/internal/model"
)

var fixtureTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Fixture возвращает демонстрационный каталог магазина.
func Fixture() *Catalog {
	categories := []model.Category{
		{ID: "1", Name: "Chicken", Description: "Fresh farm chicken cuts", Image: "/images/categories/chicken.jpg"},
		{ID: "2", Name: "Mutton", Description: "Tender goat and lamb cuts", Image: "/images/categories/mutton.jpg"},
		{ID: "3", Name: "Fish & Seafood", Description: "Fresh catch of the day", Image: "/images/categories/seafood.jpg"},
		{ID: "4", Name: "Eggs", Description: "Farm fresh eggs", Image: "/images/categories/eggs.jpg"},
	}

	meat := func(id, name, desc string, price, minKg float64, categoryID string, inStock bool) model.Meat {
		return model.Meat{
			ID:          id,
			Name:        name,
			Description: desc,
			PricePerKg:  price,
			MinKg:       minKg,
			Image:       "/images/meats/" + id + ".jpg",
			CategoryID:  categoryID,
			InStock:     inStock,
			CreatedAt:   fixtureTime,
			UpdatedAt:   fixtureTime,
		}
	}

	meats := []model.Meat{
		meat("1", "Chicken Curry Cut", "Bone-in curry cut pieces", 280, 0.5, "1", true),
		meat("2", "Chicken Breast Boneless", "Lean boneless breast fillets", 380, 0.5, "1", true),
		meat("3", "Mutton Curry Cut", "Goat curry cut with bone", 650, 0.5, "2", true),
		meat("4", "Mutton Keema", "Finely minced goat meat", 700, 0.25, "2", true),
		meat("5", "Rohu Fish", "Freshwater rohu, cleaned and cut", 320, 0.5, "3", true),
		meat("6", "Tiger Prawns", "Large deveined prawns", 850, 0.25, "3", false),
		meat("7", "Country Eggs", "Free-range country eggs", 180, 0.5, "4", true),
		meat("8", "Chicken Liver", "Fresh chicken liver", 220, 0.25, "1", true),
	}

	offers := []model.Offer{
		{ID: "1", Title: "Weekend Chicken Fest", MeatID: "1", DiscountPercent: 10},
		{ID: "2", Title: "Mutton Monday", MeatID: "3", DiscountPercent: 15},
		{ID: "3", Title: "Prawn Party", MeatID: "6", DiscountPercent: 20, ValidUntil: time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC)},
	}

	return New(categories, meats, offers)
}
