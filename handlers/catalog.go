package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"food-storefront/currency"
	"food-storefront/geo"
	"food-storefront/models"
	"food-storefront/store"
)

type variantView struct {
	ID         string          `json:"id"`
	Size       string          `json:"size"`
	BranchID   string          `json:"branchId"`
	BranchName string          `json:"branchName,omitempty"`
	Price      decimal.Decimal `json:"price"`
	PriceLabel string          `json:"priceLabel"`
	IsDefault  bool            `json:"isDefault"`
	Quantity   int             `json:"quantity"`
}

type foodView struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	ImageURL         string        `json:"imageUrl"`
	CategoryID       string        `json:"categoryId"`
	DefaultVariantID string        `json:"defaultVariantId,omitempty"`
	Variants         []variantView `json:"variants"`
}

type suggestionView struct {
	Food          foodView `json:"food"`
	VariantID     string   `json:"variantId"`
	BranchID      string   `json:"branchId"`
	BranchName    string   `json:"branchName,omitempty"`
	PriceLabel    string   `json:"priceLabel"`
	DistanceLabel string   `json:"distanceLabel"`
}

func newFoodView(snap store.Snapshot, food models.Food, variants []models.Variant) foodView {
	v := foodView{
		ID:          food.ID.String(),
		Name:        food.Name,
		Description: food.Description,
		ImageURL:    food.ImageURL,
		CategoryID:  food.CategoryID.String(),
		Variants:    make([]variantView, 0, len(variants)),
	}
	if def, ok := (models.Food{Variants: variants}).DefaultVariant(); ok {
		v.DefaultVariantID = def.ID.String()
	}
	for _, variant := range variants {
		branchName := variant.BranchName
		if branchName == "" {
			if b, ok := snap.Branch(variant.BranchID.String()); ok {
				branchName = b.Name
			}
		}
		v.Variants = append(v.Variants, variantView{
			ID:         variant.ID.String(),
			Size:       variant.SizeLabel(),
			BranchID:   variant.BranchID.String(),
			BranchName: branchName,
			Price:      variant.Price,
			PriceLabel: currency.Format(variant.Price),
			IsDefault:  variant.IsDefault,
			Quantity:   snap.Cart[variant.ID.String()],
		})
	}
	return v
}

// GetMenu returns dishes for the selected branch, category and search term,
// plus suggestions from other branches when nothing matches locally
func (h *Handler) GetMenu(c *gin.Context) {
	snap := h.store.Snapshot()
	if search, ok := c.GetQuery("search"); ok {
		snap.SearchTerm = search
	}
	category := c.DefaultQuery("category", store.AllCategories)
	result := snap.Menu(category)

	items := make([]foodView, 0, len(result.Items))
	for _, it := range result.Items {
		items = append(items, newFoodView(snap, it.Food, it.Variants))
	}
	suggestions := make([]suggestionView, 0, len(result.Suggestions))
	for _, s := range result.Suggestions {
		sv := suggestionView{
			Food:          newFoodView(snap, s.Food, []models.Variant{s.Variant}),
			VariantID:     s.Variant.ID.String(),
			BranchID:      s.Variant.BranchID.String(),
			PriceLabel:    currency.Format(s.Variant.Price),
			DistanceLabel: s.DistanceLabel,
		}
		if s.Branch != nil {
			sv.BranchName = s.Branch.Name
		}
		suggestions = append(suggestions, sv)
	}

	c.JSON(http.StatusOK, gin.H{
		"branchId":    snap.SelectedBranch,
		"category":    category,
		"search":      snap.SearchTerm,
		"categories":  snap.Categories,
		"count":       len(items),
		"items":       items,
		"suggestions": suggestions,
	})
}

// RefreshMenu refetches the catalog from the backend
func (h *Handler) RefreshMenu(c *gin.Context) {
	ctx, cancel := h.remoteContext(c)
	defer cancel()
	if err := h.store.RefreshCatalog(ctx); err != nil {
		respondError(c, err)
		return
	}
	snap := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"message":  "Menu refreshed",
		"foods":    len(snap.Foods),
		"branches": len(snap.Branches),
		"version":  snap.Version,
	})
}

// GetFood returns one dish with every variant and the quantity already in the cart
func (h *Handler) GetFood(c *gin.Context) {
	snap := h.store.Snapshot()
	food, ok := snap.Food(c.Param("foodId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Food not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": newFoodView(snap, food, food.Variants)})
}

type branchView struct {
	models.Branch
	DistanceLabel string `json:"distanceLabel,omitempty"`
	Selected      bool   `json:"selected"`
}

// ListBranches returns every branch with its distance from the customer
func (h *Handler) ListBranches(c *gin.Context) {
	snap := h.store.Snapshot()
	branches := make([]branchView, 0, len(snap.Branches))
	for _, b := range snap.Branches {
		view := branchView{Branch: b, Selected: b.ID.String() == snap.SelectedBranch}
		if coords, ok := geo.BranchCoordinates(b); ok {
			view.DistanceLabel = geo.FormatDistanceLabel(geo.DistanceKm(snap.Location, coords))
		}
		branches = append(branches, view)
	}
	c.JSON(http.StatusOK, gin.H{
		"selected": snap.SelectedBranch,
		"count":    len(branches),
		"branches": branches,
	})
}

type SelectBranchRequest struct {
	BranchID string `json:"branchId"`
}

// SelectBranch changes the branch filter ("all" for every branch, "" for none)
func (h *Handler) SelectBranch(c *gin.Context) {
	var req SelectBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.SetSelectedBranch(req.BranchID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": req.BranchID})
}

type SearchRequest struct {
	Term string `json:"term"`
}

func (h *Handler) SetSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.store.SetSearchTerm(req.Term)
	c.JSON(http.StatusOK, gin.H{"search": req.Term})
}

type LocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

func (r LocationRequest) coordinates() geo.Coordinates {
	return geo.Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

// SetLocation records the customer's position for distance ranking
func (h *Handler) SetLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.SetUserLocation(req.coordinates()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": req.coordinates()})
}

// LocateNearest records the position and selects the closest branch
func (h *Handler) LocateNearest(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	branch, km, err := h.store.LocateNearestBranch(req.coordinates())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"branch":        branch,
		"distanceKm":    km,
		"distanceLabel": geo.FormatDistanceLabel(km),
	})
}
