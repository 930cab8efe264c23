// Package storage persists client-side state: durable entries that survive
// restarts and session entries scoped to a single storefront run.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"food-storefront/models"
)

// Fixed key names.
const (
	KeyToken           = "token"
	KeyDeliveryAddress = "deliveryAddress"
	KeyPreferredBranch = "preferredBranchId"
	KeyPendingOrder    = "pendingOrderId"
)

var ErrNotFound = errors.New("storage: key not found")

// Local is durable key/value storage.
type Local struct {
	db *gorm.DB
}

func NewLocal(db *gorm.DB) *Local {
	return &Local{db: db}
}

func (l *Local) Get(key string) (string, error) {
	var entry models.LocalEntry
	err := l.db.Where("entry_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return entry.Value, nil
}

func (l *Local) Set(key, value string) error {
	entry := models.LocalEntry{Key: key, Value: value}
	err := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (l *Local) Delete(key string) error {
	if err := l.db.Where("entry_key = ?", key).Delete(&models.LocalEntry{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Token returns the persisted session token, or "" when there is none.
func (l *Local) Token() (string, error) {
	return l.optional(KeyToken)
}

func (l *Local) SaveToken(token string) error {
	return l.Set(KeyToken, token)
}

func (l *Local) ClearToken() error {
	return l.Delete(KeyToken)
}

func (l *Local) PreferredBranch() (string, error) {
	return l.optional(KeyPreferredBranch)
}

// SavePreferredBranch stores the branch choice; an empty id forgets it.
func (l *Local) SavePreferredBranch(branchID string) error {
	if branchID == "" {
		return l.Delete(KeyPreferredBranch)
	}
	return l.Set(KeyPreferredBranch, branchID)
}

// DeliveryAddress returns the cached delivery form. ok is false when nothing is
// cached or the cached value can no longer be decoded.
func (l *Local) DeliveryAddress() (models.Address, bool, error) {
	raw, err := l.optional(KeyDeliveryAddress)
	if err != nil || raw == "" {
		return models.Address{}, false, err
	}
	var addr models.Address
	if err := json.Unmarshal([]byte(raw), &addr); err != nil {
		return models.Address{}, false, nil
	}
	return addr, true, nil
}

func (l *Local) SaveDeliveryAddress(addr models.Address) error {
	raw, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	return l.Set(KeyDeliveryAddress, string(raw))
}

func (l *Local) optional(key string) (string, error) {
	v, err := l.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
