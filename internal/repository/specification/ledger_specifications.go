// FILE: internal/repository/specification/ledger_specifications.go
package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByExternalRef matches the provider order id; unique across the ledger.
type ByExternalRef struct {
	Ref string
}

func (s ByExternalRef) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("external_ref = ?", s.Ref)
}

// CreatedBefore selects rows older than the cutoff.
type CreatedBefore struct {
	Cutoff time.Time
}

func (s CreatedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at < ?", s.Cutoff)
}

// CreatedBetween selects rows inside a half-open window [From, To).
type CreatedBetween struct {
	From time.Time
	To   time.Time
}

func (s CreatedBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at >= ? AND created_at < ?", s.From, s.To)
}
