package store

import (
	"sort"
	"strings"

	"food-storefront/geo"
	"food-storefront/models"
)

// AllCategories disables the category filter.
const AllCategories = "all"

// MenuItem is a food offered at the selected branch, with only that branch's
// variants.
type MenuItem struct {
	Food     models.Food      `json:"food"`
	Variants []models.Variant `json:"variants"`
}

// Suggestion is a food that matches the search but is only sold at other
// branches.
type Suggestion struct {
	Food          models.Food    `json:"food"`
	Variant       models.Variant `json:"variant"`
	Branch        *models.Branch `json:"branch,omitempty"`
	DistanceKm    float64        `json:"-"`
	DistanceLabel string         `json:"distanceLabel"`
}

type MenuResult struct {
	Items       []MenuItem   `json:"items"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Menu filters the current catalog by category, selected branch and search
// term.
func (s *Store) Menu(category string) MenuResult {
	return s.Snapshot().Menu(category)
}

func (s Snapshot) Menu(category string) MenuResult {
	result := MenuResult{Items: []MenuItem{}, Suggestions: []Suggestion{}}
	if s.SelectedBranch == "" {
		return result
	}
	term := strings.ToLower(strings.TrimSpace(s.SearchTerm))

	var candidates []models.Food
	for _, food := range s.Foods {
		if category != "" && category != AllCategories && food.CategoryID.String() != category {
			continue
		}
		nameMatches := term == "" || strings.Contains(strings.ToLower(food.Name), term)

		local := branchVariants(food.Variants, s.SelectedBranch)
		switch {
		case len(local) > 0 && nameMatches:
			result.Items = append(result.Items, MenuItem{Food: food, Variants: local})
		case len(local) == 0 && term != "" && nameMatches && len(food.Variants) > 0:
			candidates = append(candidates, food)
		}
	}

	if len(result.Items) == 0 && term != "" {
		result.Suggestions = s.suggest(candidates)
	}
	return result
}

func branchVariants(variants []models.Variant, branchID string) []models.Variant {
	if branchID == AllBranches {
		return variants
	}
	var out []models.Variant
	for _, v := range variants {
		if v.BranchID.String() == branchID {
			out = append(out, v)
		}
	}
	return out
}

// suggest picks each food's closest variant to the user and ranks the foods by
// that distance. Foods with no measurable distance keep their first variant and
// sort last.
func (s Snapshot) suggest(foods []models.Food) []Suggestion {
	out := make([]Suggestion, 0, len(foods))
	for _, food := range foods {
		best := Suggestion{Food: food, Variant: food.Variants[0], DistanceKm: geo.Unknown}
		if b, ok := s.Branch(food.Variants[0].BranchID.String()); ok {
			best.Branch = &b
		}
		for _, v := range food.Variants {
			b, ok := s.Branch(v.BranchID.String())
			if !ok {
				continue
			}
			coords, ok := geo.BranchCoordinates(b)
			if !ok {
				continue
			}
			if d := geo.DistanceKm(s.Location, coords); d < best.DistanceKm {
				best.Variant, best.Branch, best.DistanceKm = v, &b, d
			}
		}
		best.DistanceLabel = geo.FormatDistanceLabel(best.DistanceKm)
		out = append(out, best)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}
