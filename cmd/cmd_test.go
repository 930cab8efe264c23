package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-storefront/geo"
	"food-storefront/models"
	"food-storefront/store"
	"food-storefront/tracker"
)

func ptr(f float64) *float64 { return &f }

func menuSnapshot() store.Snapshot {
	return store.Snapshot{
		Branches: []models.Branch{
			{ID: "A", Name: "Branch A", Latitude: ptr(10), Longitude: ptr(10)},
			{ID: "B", Name: "Branch B", Latitude: ptr(10.01), Longitude: ptr(10.01)},
		},
		Foods: []models.Food{
			{ID: "f1", Name: "Broken Rice", CategoryID: "c1", Variants: []models.Variant{
				{ID: "v1", BranchID: "A", Size: "L", Price: decimal.NewFromInt(35000)},
			}},
			{ID: "f3", Name: "Pho Bo", CategoryID: "c1", Variants: []models.Variant{
				{ID: "v3", BranchID: "B", Price: decimal.NewFromInt(40)},
			}},
		},
		SelectedBranch: "A",
	}
}

func TestWriteMenu(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMenu(&buf, menuSnapshot(), store.AllCategories))

	out := buf.String()
	assert.Contains(t, out, "Broken Rice")
	assert.Contains(t, out, "35.000đ")
	assert.Contains(t, out, "Branch A")
	assert.NotContains(t, out, "Pho Bo")
	assert.NotContains(t, out, "AVAILABLE ELSEWHERE")
}

func TestWriteMenu_Suggestions(t *testing.T) {
	snap := menuSnapshot()
	snap.SearchTerm = "pho"
	snap.Location = &geo.Coordinates{Latitude: 10, Longitude: 10}

	var buf bytes.Buffer
	require.NoError(t, writeMenu(&buf, snap, store.AllCategories))

	out := buf.String()
	assert.Contains(t, out, "(nothing matches)")
	assert.Contains(t, out, "AVAILABLE ELSEWHERE")
	assert.Contains(t, out, "Pho Bo")
	assert.Contains(t, out, "Regular")
	assert.Contains(t, out, "km")
}

func TestWriteMenu_NoBranch(t *testing.T) {
	snap := menuSnapshot()
	snap.SelectedBranch = ""

	var buf bytes.Buffer
	require.NoError(t, writeMenu(&buf, snap, store.AllCategories))
	assert.Equal(t, "No branch selected.\n", buf.String())
}

func TestWriteOrders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOrders(&buf, []models.Order{
		{ID: "o1", Status: "pending", TotalAmount: decimal.NewFromInt(42000)},
		{ID: "o2", Status: models.StatusDelivered},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "o1")
	assert.Contains(t, lines[1], "42.000đ")
	assert.Contains(t, lines[1], "cancel")
	assert.True(t, strings.HasSuffix(lines[2], "-"), lines[2])
}

func TestWriteUpdate(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, writeUpdate(&buf, tracker.Update{
		At:      at,
		Changes: []tracker.Change{{OrderID: "o1", From: models.StatusPreparing, To: models.StatusWaitingForDrone}},
	}))
	assert.Equal(t, "09:30:00  o1: Preparing -> Waiting for drone\n", buf.String())

	buf.Reset()
	require.NoError(t, writeUpdate(&buf, tracker.Update{At: at, Changes: []tracker.Change{}}))
	assert.Empty(t, buf.String())

	require.NoError(t, writeUpdate(&buf, tracker.Update{
		Initial: true,
		Orders:  []models.Order{{ID: "o1", Status: models.StatusPending}},
	}))
	assert.Contains(t, buf.String(), "ORDER")
}
