package models

import "time"

// CacheEntry is a key/value row backing the database cache store.
type CacheEntry struct {
	Key       string `gorm:"column:cache_key;primaryKey;size:256"`
	Value     []byte
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
