package models

import "github.com/shopspring/decimal"

// Catalog is one snapshot of the default menu as served by the backend.
type Catalog struct {
	Foods      []Food     `json:"foods"`
	Categories []Category `json:"categories"`
	Branches   []Branch   `json:"branches"`
}

type Food struct {
	ID           ID        `json:"_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CategoryID   ID        `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	ImageURL     string    `json:"imageUrl"`
	Variants     []Variant `json:"variants"`
}

// DefaultVariant returns the variant flagged as default, falling back to the
// first one. ok is false when the food has no variants.
func (f Food) DefaultVariant() (Variant, bool) {
	if len(f.Variants) == 0 {
		return Variant{}, false
	}
	for _, v := range f.Variants {
		if v.IsDefault {
			return v, true
		}
	}
	return f.Variants[0], true
}

// Variant is a sellable size/branch-specific instance of a Food.
type Variant struct {
	ID         ID              `json:"_id"`
	FoodID     ID              `json:"foodId"`
	BranchID   ID              `json:"branchId"`
	BranchName string          `json:"branchName,omitempty"`
	Size       string          `json:"size"`
	Price      decimal.Decimal `json:"price"`
	IsDefault  bool            `json:"isDefault"`
}

// SizeLabel is the size shown to customers; unnamed sizes read as "Regular".
func (v Variant) SizeLabel() string {
	if v.Size == "" {
		return "Regular"
	}
	return v.Size
}

type Category struct {
	ID          ID     `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Branch is a physical restaurant location.
type Branch struct {
	ID        ID           `json:"_id"`
	Name      string       `json:"name"`
	Street    string       `json:"street,omitempty"`
	District  string       `json:"district,omitempty"`
	City      string       `json:"city,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	IsPrimary bool         `json:"isPrimary,omitempty"`
	Latitude  *float64     `json:"latitude,omitempty"`
	Longitude *float64     `json:"longitude,omitempty"`
	Location  *GeoLocation `json:"location,omitempty"`
}

// GeoLocation is a GeoJSON point; Coordinates are [longitude, latitude].
type GeoLocation struct {
	Type        string    `json:"type,omitempty"`
	Coordinates []float64 `json:"coordinates"`
}

// VariantIndexEntry is a variant denormalised with its food and category, keyed
// by variant id in the store's index.
type VariantIndexEntry struct {
	Variant
	FoodName        string `json:"foodName"`
	FoodDescription string `json:"foodDescription"`
	FoodImage       string `json:"foodImage"`
	CategoryID      ID     `json:"categoryId"`
	CategoryName    string `json:"categoryName"`
}
