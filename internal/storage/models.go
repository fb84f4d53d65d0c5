// Package storage defines database models and storage interfaces
package storage

import (
	"time"
)

// ProviderRecord is the persisted configuration for one upstream provider.
// Weight and IsActive are editable at runtime by operators; the routing core
// re-reads them on every selection. APIKeyCipher is AES-GCM encrypted with
// the master key, and KeyGeneration is bumped on every credential rotation
// so cached upstream clients know to rebuild.
type ProviderRecord struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"unique;not null;index"` // matches types.ProviderID
	Weight        float64   `json:"weight" gorm:"default:100"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	APIKeyCipher  string    `json:"-" gorm:"not null"` // encrypted at rest
	KeyGeneration int64     `json:"key_generation" gorm:"default:1"`
	BaseURL       string    `json:"base_url"`
	Model         string    `json:"model"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RequestLog records one orchestrated request for auditing. Written by the
// HTTP glue, never read by the routing core.
type RequestLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	RequestID  string    `json:"request_id" gorm:"index"`
	Provider   string    `json:"provider"`
	Intent     string    `json:"intent"`
	CacheHit   bool      `json:"cache_hit"`
	Fallback   bool      `json:"fallback"`
	Success    bool      `json:"success"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
