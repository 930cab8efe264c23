// Package store holds the storefront's catalog, branch selection, search term
// and cart. A Store is the single source of truth shared by every view.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"food-storefront/backend"
	"food-storefront/geo"
	"food-storefront/models"
	"food-storefront/notify"
)

// AllBranches selects every branch at once.
const AllBranches = "all"

var (
	ErrUnknownVariant = errors.New("food variant does not exist")
	ErrUnknownBranch  = errors.New("branch does not exist")
	ErrNoNearbyBranch = errors.New("no branch with a known location")
	ErrInvalidCoords  = errors.New("invalid coordinates")
	ErrEmptyToken     = errors.New("empty session token")

	// ErrCartSync marks a failure to pull the remote cart. The session itself
	// is active when SetSession returns it.
	ErrCartSync = errors.New("cart not synced")
)

// Backend is the subset of the backend client the store talks to.
type Backend interface {
	FetchDefaultMenu(ctx context.Context) (*models.Catalog, error)
	AddToCart(ctx context.Context, token, variantID string) error
	RemoveFromCart(ctx context.Context, token, variantID string) error
	GetCart(ctx context.Context, token string) (map[string]int, error)
}

// Preferences is the durable client-side state the store reads and writes.
type Preferences interface {
	Token() (string, error)
	SaveToken(token string) error
	ClearToken() error
	PreferredBranch() (string, error)
	SavePreferredBranch(branchID string) error
}

// ReconcilePolicy decides what happens to an optimistic cart change when the
// backend refuses it.
type ReconcilePolicy int

const (
	// KeepOptimistic leaves the local change in place and only reports the failure.
	KeepOptimistic ReconcilePolicy = iota
	// RollbackOnRejection undoes the local change when the backend answered
	// success=false. Transport failures are still kept.
	RollbackOnRejection
)

// DefaultRefreshTimeout bounds a shared catalog fetch.
const DefaultRefreshTimeout = 15 * time.Second

type Option func(*Store)

func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithLogger(log *logrus.Logger) Option {
	return func(s *Store) { s.log = log.WithField("component", "store") }
}

func WithReconcilePolicy(p ReconcilePolicy) Option {
	return func(s *Store) { s.policy = p }
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.refreshTimeout = d
		}
	}
}

type Store struct {
	backend        Backend
	prefs          Preferences
	notifier       notify.Notifier
	log            *logrus.Entry
	policy         ReconcilePolicy
	refresh        singleflight.Group
	refreshTimeout time.Duration

	mu             sync.RWMutex
	foods          []models.Food
	categories     []models.Category
	branches       []models.Branch
	index          map[string]models.VariantIndexEntry
	cart           map[string]int
	token          string
	selectedBranch string
	searchTerm     string
	location       *geo.Coordinates
	version        uint64
}

func New(b Backend, prefs Preferences, opts ...Option) *Store {
	s := &Store{
		backend:        b,
		prefs:          prefs,
		notifier:       notify.Discard{},
		log:            logrus.StandardLogger().WithField("component", "store"),
		refreshTimeout: DefaultRefreshTimeout,
		index:          map[string]models.VariantIndexEntry{},
		cart:           map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the catalog and then restores a persisted session, hydrating
// its cart. A failed catalog fetch does not prevent the session restore.
func (s *Store) Load(ctx context.Context) error {
	refreshErr := s.RefreshCatalog(ctx)

	token, err := s.prefs.Token()
	if err != nil {
		return errors.Join(refreshErr, fmt.Errorf("restore session: %w", err))
	}
	if token == "" {
		return refreshErr
	}
	s.mu.Lock()
	s.token = token
	s.version++
	s.mu.Unlock()

	return errors.Join(refreshErr, s.HydrateCart(ctx))
}

// RefreshCatalog replaces the catalog with the backend's default menu.
// Concurrent callers share one fetch. The fetch is detached from the caller
// that started it and bounded by the refresh timeout; each caller stops
// waiting when its own ctx is done. On failure the current state is kept.
func (s *Store) RefreshCatalog(ctx context.Context) error {
	ch := s.refresh.DoChan("catalog", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()
		return nil, s.refreshCatalog(fetchCtx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("refresh catalog: %w", ctx.Err())
	}
}

func (s *Store) refreshCatalog(ctx context.Context) error {
	catalog, err := s.backend.FetchDefaultMenu(ctx)
	if err != nil {
		s.log.WithError(err).Warn("catalog refresh failed")
		s.notifier.Error(remoteMessage(err, "Failed to load menu"))
		return fmt.Errorf("refresh catalog: %w", err)
	}

	preferred, err := s.prefs.PreferredBranch()
	if err != nil {
		s.log.WithError(err).Warn("read preferred branch")
	}
	index := BuildVariantIndex(catalog.Foods, catalog.Categories)

	s.mu.Lock()
	s.foods = catalog.Foods
	s.categories = catalog.Categories
	s.branches = catalog.Branches
	s.index = index

	var dropped int
	s.cart, dropped = pruneCart(s.cart, index)

	previous := s.selectedBranch
	s.selectedBranch = chooseBranch(s.branches, previous, preferred, s.location)
	selected := s.selectedBranch
	s.version++
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"foods":    len(catalog.Foods),
		"branches": len(catalog.Branches),
		"variants": len(index),
		"pruned":   dropped,
	}).Debug("catalog refreshed")

	if selected != previous {
		s.persistBranch(selected)
	}
	return nil
}

// chooseBranch keeps a still valid selection, then tries the stored
// preference, then the branch nearest to the user, then the first branch.
func chooseBranch(branches []models.Branch, current, preferred string, location *geo.Coordinates) string {
	if len(branches) == 0 {
		return ""
	}
	if current == AllBranches || hasBranch(branches, current) {
		return current
	}
	if preferred == AllBranches || hasBranch(branches, preferred) {
		return preferred
	}
	if nearest, _, ok := geo.NearestBranch(branches, location); ok {
		return nearest.ID.String()
	}
	return branches[0].ID.String()
}

func hasBranch(branches []models.Branch, id string) bool {
	if id == "" {
		return false
	}
	for _, b := range branches {
		if b.ID.String() == id {
			return true
		}
	}
	return false
}

// AddUnit adds one unit of a variant to the cart and, with an active session,
// mirrors the change to the backend.
func (s *Store) AddUnit(ctx context.Context, variantID string) error {
	s.mu.Lock()
	if _, ok := s.index[variantID]; !ok {
		s.mu.Unlock()
		s.notifier.Error("Food variant does not exist")
		return fmt.Errorf("add %q: %w", variantID, ErrUnknownVariant)
	}
	s.cart[variantID]++
	s.version++
	token := s.token
	s.mu.Unlock()

	if token == "" {
		return nil
	}
	if err := s.backend.AddToCart(ctx, token, variantID); err != nil {
		s.reconcile(err, variantID, -1)
		return fmt.Errorf("add %q: %w", variantID, err)
	}
	return nil
}

// RemoveUnit takes one unit of a variant out of the cart. The entry is deleted
// when its quantity reaches zero. Removing something not in the cart is a no-op.
func (s *Store) RemoveUnit(ctx context.Context, variantID string) error {
	s.mu.Lock()
	if s.cart[variantID] <= 0 {
		s.mu.Unlock()
		return nil
	}
	s.adjustLocked(variantID, -1)
	token := s.token
	s.mu.Unlock()

	if token == "" {
		return nil
	}
	if err := s.backend.RemoveFromCart(ctx, token, variantID); err != nil {
		s.reconcile(err, variantID, +1)
		return fmt.Errorf("remove %q: %w", variantID, err)
	}
	return nil
}

func (s *Store) adjustLocked(variantID string, delta int) {
	qty := s.cart[variantID] + delta
	if qty <= 0 {
		delete(s.cart, variantID)
	} else {
		s.cart[variantID] = qty
	}
	s.version++
}

// reconcile reports a failed cart mutation and, under RollbackOnRejection,
// applies undo to the local quantity.
func (s *Store) reconcile(err error, variantID string, undo int) {
	s.log.WithError(err).WithField("variant", variantID).Warn("cart update failed")
	s.notifier.Error(remoteMessage(err, "Failed to update cart"))

	if s.policy != RollbackOnRejection || !backend.IsRejected(err) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[variantID]; ok {
		s.adjustLocked(variantID, undo)
	}
}

func remoteMessage(err error, fallback string) string {
	var rejected *backend.RejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason(fallback)
	}
	if errors.Is(err, backend.ErrUnreachable) {
		return "Unable to reach server"
	}
	return fallback
}

// TotalAmount sums price times quantity over cart entries that resolve in the
// variant index.
func (s *Store) TotalAmount() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalAmount(s.cart, s.index)
}

func totalAmount(cart map[string]int, index map[string]models.VariantIndexEntry) decimal.Decimal {
	total := decimal.Zero
	for id, qty := range cart {
		entry, ok := index[id]
		if !ok || qty <= 0 {
			continue
		}
		total = total.Add(entry.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// SetSelectedBranch changes the branch filter and remembers it. The cart is
// left alone.
func (s *Store) SetSelectedBranch(branchID string) error {
	s.mu.Lock()
	if branchID != "" && branchID != AllBranches && !hasBranch(s.branches, branchID) {
		s.mu.Unlock()
		return fmt.Errorf("select %q: %w", branchID, ErrUnknownBranch)
	}
	s.selectedBranch = branchID
	s.version++
	s.mu.Unlock()

	s.persistBranch(branchID)
	return nil
}

func (s *Store) persistBranch(branchID string) {
	if err := s.prefs.SavePreferredBranch(branchID); err != nil {
		s.log.WithError(err).Warn("save preferred branch")
	}
}

func (s *Store) SetSearchTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchTerm = term
	s.version++
}

// SetUserLocation records where the customer is, for distance ranking.
func (s *Store) SetUserLocation(c geo.Coordinates) error {
	if !c.Valid() || math.Abs(c.Latitude) > 90 || math.Abs(c.Longitude) > 180 {
		return ErrInvalidCoords
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = &c
	s.version++
	return nil
}

// LocateNearestBranch records the location and selects the closest branch.
func (s *Store) LocateNearestBranch(c geo.Coordinates) (models.Branch, float64, error) {
	if err := s.SetUserLocation(c); err != nil {
		return models.Branch{}, geo.Unknown, err
	}

	s.mu.RLock()
	nearest, km, ok := geo.NearestBranch(s.branches, &c)
	s.mu.RUnlock()
	if !ok {
		s.notifier.Error("Unable to determine the nearest branch")
		return models.Branch{}, geo.Unknown, ErrNoNearbyBranch
	}
	if err := s.SetSelectedBranch(nearest.ID.String()); err != nil {
		return models.Branch{}, geo.Unknown, err
	}
	s.notifier.Info(fmt.Sprintf("Nearest branch: %s (%s)", nearest.Name, geo.FormatDistanceLabel(km)))
	return nearest, km, nil
}

// SetSession adopts a session token, persists it and hydrates the cart from
// the backend.
func (s *Store) SetSession(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.prefs.SaveToken(token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.version++
	s.mu.Unlock()

	return s.HydrateCart(ctx)
}

// ClearSession drops the session token and the cart that belonged to it.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	s.token = ""
	s.cart = map[string]int{}
	s.version++
	s.mu.Unlock()

	if err := s.prefs.ClearToken(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// HydrateCart replaces the local cart with the backend's copy. Entries for
// variants missing from the index are dropped.
func (s *Store) HydrateCart(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return nil
	}
	remote, err := s.backend.GetCart(ctx, token)
	if err != nil {
		s.log.WithError(err).Warn("cart hydration failed")
		s.notifier.Error(remoteMessage(err, "Failed to load cart"))
		return fmt.Errorf("hydrate cart: %w: %w", ErrCartSync, err)
	}

	s.mu.Lock()
	var dropped int
	s.cart, dropped = pruneCart(remote, s.index)
	s.version++
	s.mu.Unlock()

	if dropped > 0 {
		s.log.WithField("dropped", dropped).Debug("ignored unknown cart entries")
	}
	return nil
}

// ResetCart empties the local cart.
func (s *Store) ResetCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = map[string]int{}
	s.version++
}

func (s *Store) Lookup(variantID string) (models.VariantIndexEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.index[variantID]
	return entry, ok
}

func (s *Store) Quantity(variantID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart[variantID]
}
