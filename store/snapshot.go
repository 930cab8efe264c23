package store

import (
	"maps"

	"github.com/shopspring/decimal"

	"food-storefront/geo"
	"food-storefront/models"
)

// Snapshot is a read-only copy of the store at one Version. Catalog slices and
// the index are shared with the store, which only ever replaces them whole.
type Snapshot struct {
	Version        uint64
	Foods          []models.Food
	Categories     []models.Category
	Branches       []models.Branch
	Index          map[string]models.VariantIndexEntry
	Cart           map[string]int
	SelectedBranch string
	SearchTerm     string
	Location       *geo.Coordinates
	SignedIn       bool
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Version:        s.version,
		Foods:          s.foods,
		Categories:     s.categories,
		Branches:       s.branches,
		Index:          s.index,
		Cart:           maps.Clone(s.cart),
		SelectedBranch: s.selectedBranch,
		SearchTerm:     s.searchTerm,
		SignedIn:       s.token != "",
	}
	if s.location != nil {
		loc := *s.location
		snap.Location = &loc
	}
	return snap
}

func (s Snapshot) Total() decimal.Decimal {
	return totalAmount(s.Cart, s.Index)
}

func (s Snapshot) Food(foodID string) (models.Food, bool) {
	for _, f := range s.Foods {
		if f.ID.String() == foodID {
			return f, true
		}
	}
	return models.Food{}, false
}

func (s Snapshot) Branch(branchID string) (models.Branch, bool) {
	for _, b := range s.Branches {
		if b.ID.String() == branchID {
			return b, true
		}
	}
	return models.Branch{}, false
}

// CartLine is one resolved cart entry.
type CartLine struct {
	VariantID  string          `json:"variantId"`
	FoodID     string          `json:"foodId"`
	FoodName   string          `json:"foodName"`
	FoodImage  string          `json:"foodImage,omitempty"`
	Size       string          `json:"size"`
	BranchID   string          `json:"branchId"`
	BranchName string          `json:"branchName,omitempty"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	Total      decimal.Decimal `json:"total"`
}

// CartLines lists cart entries in catalog order.
func (s Snapshot) CartLines() []CartLine {
	lines := make([]CartLine, 0, len(s.Cart))
	seen := make(map[string]bool, len(s.Cart))
	for _, food := range s.Foods {
		for _, v := range food.Variants {
			id := v.ID.String()
			qty := s.Cart[id]
			if qty <= 0 || seen[id] {
				continue
			}
			entry, ok := s.Index[id]
			if !ok {
				continue
			}
			seen[id] = true
			branchName := entry.BranchName
			if branchName == "" {
				if b, ok := s.Branch(entry.BranchID.String()); ok {
					branchName = b.Name
				}
			}
			lines = append(lines, CartLine{
				VariantID:  id,
				FoodID:     entry.FoodID.String(),
				FoodName:   entry.FoodName,
				FoodImage:  entry.FoodImage,
				Size:       entry.SizeLabel(),
				BranchID:   entry.BranchID.String(),
				BranchName: branchName,
				UnitPrice:  entry.Price,
				Quantity:   qty,
				Total:      entry.Price.Mul(decimal.NewFromInt(int64(qty))),
			})
		}
	}
	return lines
}

func (s *Store) CartLines() []CartLine {
	return s.Snapshot().CartLines()
}
