package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-storefront/backend"
	"food-storefront/geo"
	"food-storefront/models"
	"food-storefront/notify"
)

type fakeBackend struct {
	mu        sync.Mutex
	catalog   *models.Catalog
	menuErr   error
	cartErr   error
	remote    map[string]int
	adds      []string
	removes   []string
	menuCalls int
	block     chan struct{}
	entered   chan struct{}
}

func (f *fakeBackend) FetchDefaultMenu(ctx context.Context) (*models.Catalog, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.menuCalls++
	if f.menuErr != nil {
		return nil, f.menuErr
	}
	return f.catalog, nil
}

func (f *fakeBackend) AddToCart(ctx context.Context, token, variantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, token+":"+variantID)
	return f.cartErr
}

func (f *fakeBackend) RemoveFromCart(ctx context.Context, token, variantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, token+":"+variantID)
	return f.cartErr
}

func (f *fakeBackend) GetCart(ctx context.Context, token string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	return f.remote, nil
}

type memPrefs struct {
	token     string
	preferred string
}

func (p *memPrefs) Token() (string, error)              { return p.token, nil }
func (p *memPrefs) SaveToken(token string) error        { p.token = token; return nil }
func (p *memPrefs) ClearToken() error                   { p.token = ""; return nil }
func (p *memPrefs) PreferredBranch() (string, error)    { return p.preferred, nil }
func (p *memPrefs) SavePreferredBranch(id string) error { p.preferred = id; return nil }

func ptr(f float64) *float64 { return &f }

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testCatalog() *models.Catalog {
	return &models.Catalog{
		Categories: []models.Category{{ID: "c1", Name: "Rice"}, {ID: "c2", Name: "Drinks"}},
		Branches: []models.Branch{
			{ID: "A", Name: "Branch A", Latitude: ptr(10), Longitude: ptr(10)},
			{ID: "B", Name: "Branch B", Latitude: ptr(10.01), Longitude: ptr(10.01)},
		},
		Foods: []models.Food{
			{ID: "f1", Name: "Broken Rice", CategoryID: "c1", Variants: []models.Variant{
				{ID: "v1", BranchID: "A", Size: "M", Price: price("10"), IsDefault: true},
			}},
			{ID: "f2", Name: "Iced Tea", CategoryID: "c2", Variants: []models.Variant{
				{ID: "v2", BranchID: "A", Price: price("5")},
			}},
			{ID: "f3", Name: "Pho Bo", CategoryID: "c1", Variants: []models.Variant{
				{ID: "v3", BranchID: "B", Price: price("40")},
			}},
		},
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestStore(t *testing.T, b *fakeBackend, prefs *memPrefs, opts ...Option) (*Store, *notify.Center) {
	t.Helper()
	center := notify.NewCenter(20, quietLogger())
	opts = append([]Option{WithNotifier(center), WithLogger(quietLogger())}, opts...)
	s := New(b, prefs, opts...)
	require.NoError(t, s.RefreshCatalog(context.Background()))
	return s, center
}

func TestTotalAmount(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{catalog: testCatalog()}, &memPrefs{})
	ctx := context.Background()

	require.NoError(t, s.AddUnit(ctx, "v1"))
	require.NoError(t, s.AddUnit(ctx, "v1"))
	require.NoError(t, s.AddUnit(ctx, "v2"))

	assert.True(t, s.TotalAmount().Equal(decimal.NewFromInt(25)), "got %s", s.TotalAmount())
}

func TestTotalAmount_SkipsUnresolvedEntries(t *testing.T) {
	index := BuildVariantIndex(testCatalog().Foods, nil)
	cart := map[string]int{"v1": 2, "v2": 1, "ghost": 7}
	assert.Equal(t, "25", totalAmount(cart, index).String())
}

func TestAddUnit_UnknownVariantRejected(t *testing.T) {
	s, center := newTestStore(t, &fakeBackend{catalog: testCatalog()}, &memPrefs{})
	before := s.Snapshot()

	err := s.AddUnit(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownVariant)

	after := s.Snapshot()
	assert.Equal(t, before.Version, after.Version)
	assert.Empty(t, after.Cart)

	notices := center.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.LevelError, notices[0].Level)
}

func TestRemoveUnit_DeletesKeyAtZero(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{catalog: testCatalog()}, &memPrefs{})
	ctx := context.Background()
	require.NoError(t, s.AddUnit(ctx, "v1"))
	require.NoError(t, s.AddUnit(ctx, "v1"))

	require.NoError(t, s.RemoveUnit(ctx, "v1"))
	assert.Equal(t, 1, s.Quantity("v1"))

	require.NoError(t, s.RemoveUnit(ctx, "v1"))
	_, present := s.Snapshot().Cart["v1"]
	assert.False(t, present)

	require.NoError(t, s.RemoveUnit(ctx, "v1"))
	_, present = s.Snapshot().Cart["v1"]
	assert.False(t, present)
}

func TestCartMutations_MirroredWithSession(t *testing.T) {
	b := &fakeBackend{catalog: testCatalog()}
	s, _ := newTestStore(t, b, &memPrefs{})
	ctx := context.Background()

	require.NoError(t, s.AddUnit(ctx, "v1"))
	assert.Empty(t, b.adds, "no remote call without a session")

	require.NoError(t, s.SetSession(ctx, "tok"))
	require.NoError(t, s.AddUnit(ctx, "v2"))
	require.NoError(t, s.RemoveUnit(ctx, "v2"))

	assert.Equal(t, []string{"tok:v2"}, b.adds)
	assert.Equal(t, []string{"tok:v2"}, b.removes)
}

func TestAddUnit_RemoteFailureKeepsOptimisticState(t *testing.T) {
	b := &fakeBackend{catalog: testCatalog()}
	s, center := newTestStore(t, b, &memPrefs{})
	ctx := context.Background()
	require.NoError(t, s.SetSession(ctx, "tok"))

	b.cartErr = &backend.RejectedError{Op: "add to cart", Message: "Out of stock"}
	err := s.AddUnit(ctx, "v1")
	require.Error(t, err)
	assert.True(t, backend.IsRejected(err))
	assert.Equal(t, 1, s.Quantity("v1"))

	notices := center.Drain()
	require.NotEmpty(t, notices)
	assert.Equal(t, "Out of stock", notices[len(notices)-1].Message)
}

func TestAddUnit_RollbackOnRejection(t *testing.T) {
	b := &fakeBackend{catalog: testCatalog()}
	s, _ := newTestStore(t, b, &memPrefs{}, WithReconcilePolicy(RollbackOnRejection))
	ctx := context.Background()
	require.NoError(t, s.SetSession(ctx, "tok"))

	b.cartErr = &backend.RejectedError{Op: "add to cart"}
	require.Error(t, s.AddUnit(ctx, "v1"))
	assert.Zero(t, s.Quantity("v1"))

	b.cartErr = fmt.Errorf("add to cart: %w", backend.ErrUnreachable)
	require.Error(t, s.AddUnit(ctx, "v1"))
	assert.Equal(t, 1, s.Quantity("v1"), "transport failures are not rolled back")
}

func TestRemoveUnit_RollbackOnRejection(t *testing.T) {
	b := &fakeBackend{catalog: testCatalog()}
	s, _ := newTestStore(t, b, &memPrefs{}, WithReconcilePolicy(RollbackOnRejection))
	ctx := context.Background()
	require.NoError(t, s.SetSession(ctx, "tok"))
	require.NoError(t, s.AddUnit(ctx, "v1"))

	b.cartErr = &backend.RejectedError{Op: "remove from cart"}
	require.Error(t, s.RemoveUnit(ctx, "v1"))
	assert.Equal(t, 1, s.Quantity("v1"))
}

func TestRefreshCatalog_PrunesRemovedVariants(t *testing.T) {
	b := &fakeBackend{catalog: testCatalog()}
	s, _ := newTestStore(t, b, &memPrefs{})
	ctx := context.Background()
	require.NoError(t, s.AddUnit(ctx, "v1"))
	require.NoError(t, s.AddUnit(ctx, "v2"))

	next := testCatalog()
	next.Foods = next.Foods[:1]
	b.catalog = next
	require.NoError(t, s.RefreshCatalog(ctx))

	snap := s.Snapshot()
	assert.Equal(t, map[string]int{"v1": 1}, snap.Cart)
	assert.Equal(t, "10", s.TotalAmount().String())
	_, ok := s.Lookup("v2")
	assert.False(t, ok)
}

func TestRefreshCatalog_FailureKeepsState(t *testing.T) {
	b := &fakeBackend{catalog: testCatalog()}
	s, center := newTestStore(t, b, &memPrefs{})
	before := s.Snapshot()

	b.menuErr = fmt.Errorf("fetch menu: %w", backend.ErrUnreachable)
	err := s.RefreshCatalog(context.Background())
	assert.ErrorIs(t, err, backend.ErrUnreachable)

	after := s.Snapshot()
	assert.Equal(t, before.Version, after.Version)
	assert.Len(t, after.Foods, 3)

	notices := center.Drain()
	require.NotEmpty(t, notices)
	assert.Equal(t, "Unable to reach server", notices[len(notices)-1].Message)
}

func TestRefreshCatalog_CollapsesConcurrentCalls(t *testing.T) {
	b := &fakeBackend{catalog: testCatalog(), block: make(chan struct{})}
	s := New(b, &memPrefs{}, WithLogger(quietLogger()))

	var wg sync.WaitGroup
	started := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			assert.NoError(t, s.RefreshCatalog(context.Background()))
		}()
	}
	<-started
	<-started
	close(b.block)
	wg.Wait()

	assert.LessOrEqual(t, b.menuCalls, 2)
	assert.Len(t, s.Snapshot().Foods, 3)
}

func TestRefreshCatalog_SharedFetchOutlivesFirstCaller(t *testing.T) {
	b := &fakeBackend{catalog: testCatalog(), block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := New(b, &memPrefs{}, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RefreshCatalog(ctx) }()
	<-b.entered

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(b.block)
	assert.Eventually(t, func() bool {
		return len(s.Snapshot().Foods) == 3
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, s.RefreshCatalog(context.Background()))
}

func TestRefreshCatalog_SharedFetchTimesOut(t *testing.T) {
	b := &fakeBackend{catalog: testCatalog(), block: make(chan struct{})}
	defer close(b.block)
	s := New(b, &memPrefs{}, WithLogger(quietLogger()), WithRefreshTimeout(20*time.Millisecond))

	err := s.RefreshCatalog(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, s.Snapshot().Foods)
}

func TestBranchAutoSelection(t *testing.T) {
	t.Run("first branch by default", func(t *testing.T) {
		prefs := &memPrefs{}
		s, _ := newTestStore(t, &fakeBackend{catalog: testCatalog()}, prefs)
		assert.Equal(t, "A", s.Snapshot().SelectedBranch)
		assert.Equal(t, "A", prefs.preferred)
	})

	t.Run("stored preference", func(t *testing.T) {
		s, _ := newTestStore(t, &fakeBackend{catalog: testCatalog()}, &memPrefs{preferred: "B"})
		assert.Equal(t, "B", s.Snapshot().SelectedBranch)
	})

	t.Run("stale preference falls back to nearest", func(t *testing.T) {
		b := &fakeBackend{catalog: testCatalog()}
		s := New(b, &memPrefs{preferred: "gone"}, WithLogger(quietLogger()))
		require.NoError(t, s.SetUserLocation(geo.Coordinates{Latitude: 10.02, Longitude: 10.02}))
		require.NoError(t, s.RefreshCatalog(context.Background()))
		assert.Equal(t, "B", s.Snapshot().SelectedBranch)
	})

	t.Run("no branches", func(t *testing.T) {
		s, _ := newTestStore(t, &fakeBackend{catalog: &models.Catalog{}}, &memPrefs{preferred: "A"})
		assert.Empty(t, s.Snapshot().SelectedBranch)
	})
}

func TestSetSelectedBranch(t *testing.T) {
	prefs := &memPrefs{}
	s, _ := newTestStore(t, &fakeBackend{catalog: testCatalog()}, prefs)
	ctx := context.Background()
	require.NoError(t, s.AddUnit(ctx, "v1"))

	require.NoError(t, s.SetSelectedBranch("B"))
	assert.Equal(t, "B", prefs.preferred)
	assert.Equal(t, 1, s.Quantity("v1"), "switching branch keeps the cart")

	require.NoError(t, s.SetSelectedBranch(AllBranches))
	assert.ErrorIs(t, s.SetSelectedBranch("Z"), ErrUnknownBranch)
	assert.Equal(t, AllBranches, s.Snapshot().SelectedBranch)
}

func TestLocateNearestBranch(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{catalog: testCatalog()}, &memPrefs{})

	b, km, err := s.LocateNearestBranch(geo.Coordinates{Latitude: 10.011, Longitude: 10.011})
	require.NoError(t, err)
	assert.Equal(t, models.ID("B"), b.ID)
	assert.Less(t, km, 1.0)
	assert.Equal(t, "B", s.Snapshot().SelectedBranch)

	_, _, err = s.LocateNearestBranch(geo.Coordinates{Latitude: 91, Longitude: 0})
	assert.ErrorIs(t, err, ErrInvalidCoords)
}

func TestSessionLifecycle(t *testing.T) {
	b := &fakeBackend{catalog: testCatalog(), remote: map[string]int{"v1": 3, "ghost": 1}}
	prefs := &memPrefs{token: "persisted"}
	s := New(b, prefs, WithLogger(quietLogger()))

	require.NoError(t, s.Load(context.Background()))
	snap := s.Snapshot()
	assert.True(t, snap.SignedIn)
	assert.Equal(t, map[string]int{"v1": 3}, snap.Cart)

	require.NoError(t, s.ClearSession())
	assert.Empty(t, prefs.token)
	assert.Empty(t, s.Snapshot().Cart)
	assert.False(t, s.Snapshot().SignedIn)

	assert.ErrorIs(t, s.SetSession(context.Background(), ""), ErrEmptyToken)
}

func TestSetSession_CartSyncFailureKeepsSession(t *testing.T) {
	b := &fakeBackend{catalog: testCatalog()}
	s, _ := newTestStore(t, b, &memPrefs{})
	b.cartErr = &backend.RejectedError{Op: "get cart", Message: "Not Authorized Login Again"}

	err := s.SetSession(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrCartSync)
	assert.True(t, backend.IsRejected(err))
	assert.Equal(t, "tok", s.Token())
}

func TestLoad_RefreshFailureStillRestoresSession(t *testing.T) {
	b := &fakeBackend{menuErr: errors.New("boom"), remote: map[string]int{"v1": 1}}
	s := New(b, &memPrefs{token: "tok"}, WithLogger(quietLogger()))

	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "tok", s.Token())
	assert.Empty(t, s.Snapshot().Cart)
}

func TestResetCart(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{catalog: testCatalog()}, &memPrefs{})
	require.NoError(t, s.AddUnit(context.Background(), "v1"))
	s.ResetCart()
	assert.Empty(t, s.Snapshot().Cart)
	assert.True(t, s.TotalAmount().IsZero())
}

func TestCartLines_CatalogOrder(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{catalog: testCatalog()}, &memPrefs{})
	ctx := context.Background()
	require.NoError(t, s.AddUnit(ctx, "v3"))
	require.NoError(t, s.AddUnit(ctx, "v1"))
	require.NoError(t, s.AddUnit(ctx, "v1"))

	lines := s.CartLines()
	require.Len(t, lines, 2)
	assert.Equal(t, "v1", lines[0].VariantID)
	assert.Equal(t, "Broken Rice", lines[0].FoodName)
	assert.Equal(t, "Branch A", lines[0].BranchName)
	assert.Equal(t, "20", lines[0].Total.String())
	assert.Equal(t, "Regular", lines[1].Size)
}

func TestSnapshot_IsACopy(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{catalog: testCatalog()}, &memPrefs{})
	snap := s.Snapshot()
	snap.Cart["v1"] = 99

	assert.Zero(t, s.Quantity("v1"))
	require.NoError(t, s.AddUnit(context.Background(), "v1"))
	assert.Greater(t, s.Snapshot().Version, snap.Version)
}

func TestSetSession_HydratesFromBareCartPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v2/menu/default":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": testCatalog()})
		case "/api/cart/get":
			_ = json.NewEncoder(w).Encode(map[string]any{"cartData": map[string]int{"v1": 2, "gone": 1}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	center := notify.NewCenter(20, quietLogger())
	s := New(backend.NewClient(srv.URL, 5*time.Second, quietLogger()), &memPrefs{},
		WithNotifier(center), WithLogger(quietLogger()))
	require.NoError(t, s.RefreshCatalog(context.Background()))

	require.NoError(t, s.SetSession(context.Background(), "tok"))
	assert.Equal(t, map[string]int{"v1": 2}, s.Snapshot().Cart)
	assert.Zero(t, center.Len())
}
