package models

import "time"

// LocalEntry is a durable client-side key/value pair (session token, cached
// delivery address, preferred branch).
type LocalEntry struct {
	Key       string `gorm:"column:entry_key;primaryKey"`
	Value     string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionEntry lives only as long as one storefront run; RunID scopes it.
type SessionEntry struct {
	RunID     string `gorm:"primaryKey"`
	Key       string `gorm:"column:entry_key;primaryKey"`
	Value     string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
