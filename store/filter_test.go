package store

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-storefront/geo"
	"food-storefront/models"
)

func menuSnapshot(branch, term string, loc *geo.Coordinates) Snapshot {
	c := testCatalog()
	return Snapshot{
		Foods:          c.Foods,
		Categories:     c.Categories,
		Branches:       c.Branches,
		Index:          BuildVariantIndex(c.Foods, c.Categories),
		SelectedBranch: branch,
		SearchTerm:     term,
		Location:       loc,
	}
}

func foodNames(items []MenuItem) []string {
	var names []string
	for _, it := range items {
		names = append(names, it.Food.Name)
	}
	return names
}

func TestMenu_NoBranchSelected(t *testing.T) {
	res := menuSnapshot("", "", nil).Menu(AllCategories)
	assert.Empty(t, res.Items)
	assert.Empty(t, res.Suggestions)
}

func TestMenu_BranchAndCategory(t *testing.T) {
	tests := []struct {
		name     string
		branch   string
		category string
		want     []string
	}{
		{"branch A all categories", "A", AllCategories, []string{"Broken Rice", "Iced Tea"}},
		{"empty category means all", "A", "", []string{"Broken Rice", "Iced Tea"}},
		{"branch A drinks", "A", "c2", []string{"Iced Tea"}},
		{"branch B", "B", AllCategories, []string{"Pho Bo"}},
		{"every branch", AllBranches, "c1", []string{"Broken Rice", "Pho Bo"}},
		{"unknown category", "A", "c9", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := menuSnapshot(tt.branch, "", nil).Menu(tt.category)
			assert.Equal(t, tt.want, foodNames(res.Items))
			assert.Empty(t, res.Suggestions)
		})
	}
}

func TestMenu_KeepsOnlyBranchVariants(t *testing.T) {
	snap := menuSnapshot("A", "", nil)
	snap.Foods = append(snap.Foods, models.Food{ID: "f4", Name: "Banh Mi", Variants: []models.Variant{
		{ID: "v4a", BranchID: "A"},
		{ID: "v4b", BranchID: "B"},
	}})

	res := snap.Menu(AllCategories)
	require.Len(t, res.Items, 3)
	last := res.Items[2]
	require.Len(t, last.Variants, 1)
	assert.Equal(t, models.ID("v4a"), last.Variants[0].ID)
}

func TestMenu_SearchIsCaseInsensitive(t *testing.T) {
	res := menuSnapshot("A", "  RICE ", nil).Menu(AllCategories)
	assert.Equal(t, []string{"Broken Rice"}, foodNames(res.Items))
	assert.Empty(t, res.Suggestions, "suggestions only appear when nothing matches locally")
}

func TestMenu_CrossBranchSuggestion(t *testing.T) {
	user := &geo.Coordinates{Latitude: 10, Longitude: 10}
	res := menuSnapshot("A", "pho", user).Menu(AllCategories)

	assert.Empty(t, res.Items)
	require.Len(t, res.Suggestions, 1)
	s := res.Suggestions[0]
	assert.Equal(t, "Pho Bo", s.Food.Name)
	require.NotNil(t, s.Branch)
	assert.Equal(t, models.ID("B"), s.Branch.ID)
	assert.Less(t, s.DistanceKm, 2.0)
	assert.NotEmpty(t, s.DistanceLabel)
	assert.True(t, strings.HasSuffix(s.DistanceLabel, "km") || strings.HasSuffix(s.DistanceLabel, "m"))
}

func TestMenu_NoSuggestionsWithoutTerm(t *testing.T) {
	snap := menuSnapshot("A", "", nil)
	res := snap.Menu("c9")
	assert.Empty(t, res.Items)
	assert.Empty(t, res.Suggestions)
}

func TestMenu_SuggestionsRankedByDistance(t *testing.T) {
	snap := menuSnapshot("A", "noodle", &geo.Coordinates{Latitude: 10.5, Longitude: 10.5})
	snap.Branches = append(snap.Branches,
		models.Branch{ID: "C", Name: "Branch C", Latitude: ptr(10.5), Longitude: ptr(10.5)},
		models.Branch{ID: "D", Name: "Branch D"},
	)
	snap.Foods = []models.Food{
		{ID: "n1", Name: "Noodle Far", Variants: []models.Variant{{ID: "x1", BranchID: "B"}}},
		{ID: "n2", Name: "Noodle Unknown", Variants: []models.Variant{{ID: "x2", BranchID: "D"}}},
		{ID: "n3", Name: "Noodle Near", Variants: []models.Variant{
			{ID: "x3b", BranchID: "B"},
			{ID: "x3c", BranchID: "C"},
		}},
	}

	res := snap.Menu(AllCategories)
	require.Len(t, res.Suggestions, 3)
	assert.Equal(t, "Noodle Near", res.Suggestions[0].Food.Name)
	assert.Equal(t, models.ID("x3c"), res.Suggestions[0].Variant.ID)
	assert.Equal(t, "Noodle Far", res.Suggestions[1].Food.Name)
	assert.Equal(t, "Noodle Unknown", res.Suggestions[2].Food.Name)
	assert.True(t, math.IsInf(res.Suggestions[2].DistanceKm, 1))
	assert.Empty(t, res.Suggestions[2].DistanceLabel)
}

func TestMenu_SuggestionWithoutUserLocation(t *testing.T) {
	res := menuSnapshot("A", "pho", nil).Menu(AllCategories)
	require.Len(t, res.Suggestions, 1)
	s := res.Suggestions[0]
	assert.Equal(t, models.ID("v3"), s.Variant.ID)
	assert.True(t, math.IsInf(s.DistanceKm, 1))
	require.NotNil(t, s.Branch)
	assert.Equal(t, "Branch B", s.Branch.Name)
}

func TestBuildVariantIndex(t *testing.T) {
	c := testCatalog()
	c.Foods = append(c.Foods, models.Food{ID: "f9", Name: "Dup", CategoryID: "c2", Variants: []models.Variant{
		{ID: "v1", BranchID: "B"},
		{BranchID: "B"},
	}})

	index := BuildVariantIndex(c.Foods, c.Categories)
	require.Len(t, index, 3)

	entry := index["v1"]
	assert.Equal(t, "Broken Rice", entry.FoodName)
	assert.Equal(t, models.ID("f1"), entry.FoodID)
	assert.Equal(t, "Rice", entry.CategoryName)
	assert.Equal(t, "10", entry.Price.String())
}

func TestPruneCart(t *testing.T) {
	index := BuildVariantIndex(testCatalog().Foods, nil)
	kept, dropped := pruneCart(map[string]int{"v1": 1, "gone": 2, "v2": 0}, index)
	assert.Equal(t, map[string]int{"v1": 1}, kept)
	assert.Equal(t, 2, dropped)
}
