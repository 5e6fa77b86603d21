package models

import (
	"errors"
	"fmt"
)

var ErrInvalidShuffleMapping = errors.New("invalid shuffle mapping")

// ShuffleMapping translates a presented key back to the canonical key it was shown for.
// A valid mapping is a bijection over A..D.
type ShuffleMapping map[OptionKey]OptionKey

// IdentityMapping is used when an exam does not shuffle options.
func IdentityMapping() ShuffleMapping {
	m := make(ShuffleMapping, len(OptionKeys))
	for _, k := range OptionKeys {
		m[k] = k
	}
	return m
}

func (m ShuffleMapping) Validate() error {
	if len(m) != len(OptionKeys) {
		return fmt.Errorf("%w: expected %d entries, got %d", ErrInvalidShuffleMapping, len(OptionKeys), len(m))
	}
	targets := make(map[OptionKey]bool, len(m))
	for presented, canonical := range m {
		if !presented.IsValid() || !canonical.IsValid() {
			return fmt.Errorf("%w: %q -> %q", ErrInvalidShuffleMapping, presented, canonical)
		}
		if targets[canonical] {
			return fmt.Errorf("%w: canonical key %s mapped twice", ErrInvalidShuffleMapping, canonical)
		}
		targets[canonical] = true
	}
	return nil
}

// Canonical returns the canonical key shown under the presented key.
func (m ShuffleMapping) Canonical(presented OptionKey) (OptionKey, error) {
	canonical, ok := m[presented]
	if !ok {
		return "", fmt.Errorf("%w: no entry for presented key %q", ErrInvalidShuffleMapping, presented)
	}
	return canonical, nil
}
