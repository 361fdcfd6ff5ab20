// Package visibility implements the read-time predicate that hides private
// records from everyone but their owner. The same rule exists in two forms: a
// pure filter over loaded records and a gorm scope for queries.
package visibility

import (
	"gorm.io/gorm"
)

// Anonymous is the requester ID used for unauthenticated requests. It matches
// no owner.
const Anonymous uint = 0

// Record is any entity with an owner and a visibility flag.
type Record interface {
	OwnerID() uint
	IsPublic() bool
}

// Visible reports whether a single record is visible to the requester.
func Visible(r Record, requesterID uint) bool {
	return r.IsPublic() || r.OwnerID() == requesterID
}

// Filter returns the subset of records visible to the requester. The input
// slice is never mutated.
func Filter[T Record](records []T, requesterID uint) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if Visible(r, requesterID) {
			out = append(out, r)
		}
	}
	return out
}

// Scope restricts a query to records visible to the requester. Applied by
// listing, search and leaderboard queries.
func Scope(requesterID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("visibility = ? OR user_id = ?", true, requesterID)
	}
}

// ScopeTable is Scope with table-qualified columns, for joined queries where
// both sides carry visibility and user_id columns.
func ScopeTable(table string, requesterID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".visibility = ? OR "+table+".user_id = ?", true, requesterID)
	}
}
