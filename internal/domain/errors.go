package domain

import "errors"

var (
	// ErrInvalidSelection: no services chosen, or date, time or customer missing.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrSlotConflict: the slot was taken between listing and confirmation.
	ErrSlotConflict = errors.New("slot no longer available")
	// ErrStoreUnavailable: the document store could not be read or written.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrRuleViolation: the date or time breaks a fixed calendar rule.
	ErrRuleViolation = errors.New("rule violation")
	ErrNotFound      = errors.New("not found")
)
