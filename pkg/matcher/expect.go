package matcher

import (
	"errors"
	"strings"
)

var (
	// ErrNoFragments is returned if a match is requested without any expect strings.
	ErrNoFragments = errors.New("no expect strings given")

	// ErrEmptyFragment is returned for empty expect strings.
	ErrEmptyFragment = errors.New("empty expect string")
)

// MatchSpec describes how a server response is tested against expected strings.
type MatchSpec struct {
	Fragments   []string
	RequireAll  bool // all fragments must match, otherwise any
	ExactPrefix bool // fragments must match at the start of the subject, otherwise anywhere
}

// NewMatchSpec creates a MatchSpec and validates the fragments.
func NewMatchSpec(fragments []string, requireAll, exactPrefix bool) (*MatchSpec, error) {
	if len(fragments) == 0 {
		return nil, ErrNoFragments
	}
	for _, f := range fragments {
		if f == "" {
			return nil, ErrEmptyFragment
		}
	}

	return &MatchSpec{
		Fragments:   fragments,
		RequireAll:  requireAll,
		ExactPrefix: exactPrefix,
	}, nil
}

// Match tests the subject against all fragments.
func (m *MatchSpec) Match(subject string) bool {
	for _, fragment := range m.Fragments {
		matched := m.matchOne(subject, fragment)
		switch {
		case matched && !m.RequireAll:
			return true
		case !matched && m.RequireAll:
			return false
		}
	}

	return m.RequireAll
}

func (m *MatchSpec) matchOne(subject, fragment string) bool {
	if m.ExactPrefix {
		return strings.HasPrefix(subject, fragment)
	}

	return strings.Contains(subject, fragment)
}

// Match is a shortcut for NewMatchSpec(...).Match(subject).
func Match(subject string, fragments []string, requireAll, exactPrefix bool) (bool, error) {
	spec, err := NewMatchSpec(fragments, requireAll, exactPrefix)
	if err != nil {
		return false, err
	}

	return spec.Match(subject), nil
}
