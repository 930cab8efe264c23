package store

import "food-storefront/models"

// BuildVariantIndex flattens every food's variants into a lookup keyed by
// variant id. Variants without an id are skipped; a duplicated id keeps the
// first occurrence.
func BuildVariantIndex(foods []models.Food, categories []models.Category) map[string]models.VariantIndexEntry {
	names := make(map[models.ID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	index := make(map[string]models.VariantIndexEntry)
	for _, food := range foods {
		categoryName := food.CategoryName
		if categoryName == "" {
			categoryName = names[food.CategoryID]
		}
		for _, v := range food.Variants {
			if v.ID.IsZero() {
				continue
			}
			if _, dup := index[v.ID.String()]; dup {
				continue
			}
			if v.FoodID.IsZero() {
				v.FoodID = food.ID
			}
			index[v.ID.String()] = models.VariantIndexEntry{
				Variant:         v,
				FoodName:        food.Name,
				FoodDescription: food.Description,
				FoodImage:       food.ImageURL,
				CategoryID:      food.CategoryID,
				CategoryName:    categoryName,
			}
		}
	}
	return index
}

// pruneCart drops entries whose variant is not in the index or whose
// quantity is not positive. It returns the kept cart and how many were dropped.
func pruneCart(cart map[string]int, index map[string]models.VariantIndexEntry) (map[string]int, int) {
	kept := make(map[string]int, len(cart))
	dropped := 0
	for id, qty := range cart {
		if _, ok := index[id]; !ok || qty <= 0 {
			dropped++
			continue
		}
		kept[id] = qty
	}
	return kept, dropped
}
