package storage

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"food-storefront/models"
)

// Session is key/value storage that only lives for one storefront run.
// Entries written by earlier runs are discarded when a new Session opens.
type Session struct {
	db    *gorm.DB
	runID string
}

func NewSession(db *gorm.DB, runID string) (*Session, error) {
	if runID == "" {
		return nil, errors.New("storage: empty run id")
	}
	if err := db.Where("run_id <> ?", runID).Delete(&models.SessionEntry{}).Error; err != nil {
		return nil, fmt.Errorf("purge stale session entries: %w", err)
	}
	return &Session{db: db, runID: runID}, nil
}

func (s *Session) RunID() string { return s.runID }

func (s *Session) Get(key string) (string, error) {
	var entry models.SessionEntry
	err := s.db.Where("run_id = ? AND entry_key = ?", s.runID, key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read session %s: %w", key, err)
	}
	return entry.Value, nil
}

func (s *Session) Set(key, value string) error {
	entry := models.SessionEntry{RunID: s.runID, Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("write session %s: %w", key, err)
	}
	return nil
}

func (s *Session) Delete(key string) error {
	if err := s.db.Where("run_id = ? AND entry_key = ?", s.runID, key).Delete(&models.SessionEntry{}).Error; err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	return nil
}

// PendingOrder is the order awaiting a payment-provider redirect, or "".
func (s *Session) PendingOrder() (string, error) {
	v, err := s.Get(KeyPendingOrder)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (s *Session) SetPendingOrder(orderID string) error {
	return s.Set(KeyPendingOrder, orderID)
}

func (s *Session) ClearPendingOrder() error {
	return s.Delete(KeyPendingOrder)
}
