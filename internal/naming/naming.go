// Package naming validates candidate names for usernames, solar systems and
// planets. Names share the URL namespace with fixed routes, so every fixed
// route name is part of the default reserved set.
package naming

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wadtheplanet/wadtheplanet/data"
)

// MaxLen bounds accepted name length, matching the column size.
const MaxLen = 50

var namePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Reasons a name can be rejected.
var (
	ErrEmpty    = fmt.Errorf("name must not be empty")
	ErrTooLong  = fmt.Errorf("name must be at most %d characters", MaxLen)
	ErrCharset  = fmt.Errorf("name must contain only letters and digits")
	ErrReserved = fmt.Errorf("name is reserved")
)

// Validator accepts or rejects candidate names against a charset rule and a
// case-insensitive reserved-word set.
type Validator struct {
	reserved map[string]struct{}
}

// NewValidator creates a validator with the given reserved words. The match
// is case-insensitive.
func NewValidator(reserved []string) *Validator {
	set := make(map[string]struct{}, len(reserved))
	for _, word := range reserved {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			set[word] = struct{}{}
		}
	}
	return &Validator{reserved: set}
}

// DefaultReserved returns the embedded default reserved-word list, optionally
// extended with extra entries.
func DefaultReserved(extra ...string) []string {
	words := strings.Fields(data.ReservedNames)
	return append(words, extra...)
}

// Validate returns nil if name is acceptable, or the rejection reason.
func (v *Validator) Validate(name string) error {
	if name == "" {
		return ErrEmpty
	}
	if len(name) > MaxLen {
		return ErrTooLong
	}
	if !namePattern.MatchString(name) {
		return ErrCharset
	}
	if _, ok := v.reserved[strings.ToLower(name)]; ok {
		return ErrReserved
	}
	return nil
}
