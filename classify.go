package reltrack

import (
	"fmt"
	"slices"
	"strings"
)

// Kind tags how a relation is stored relative to its owner.
type Kind int

const (
	KindUnknown         Kind = iota
	EmbedsOne                // embedded-single
	EmbedsMany               // embedded-many
	HasOne                   // referenced-single
	HasMany                  // referenced-many
	HasAndBelongsToMany      // referenced-many-to-many
	BelongsTo                // referenced-inverse: the owner holds the foreign key
)

var kindNames = map[Kind]string{
	EmbedsOne:           "embeds_one",
	EmbedsMany:          "embeds_many",
	HasOne:              "has_one",
	HasMany:             "has_many",
	HasAndBelongsToMany: "has_and_belongs_to_many",
	BelongsTo:           "belongs_to",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Recognized reports whether relations of this kind can be tracked.
func (k Kind) Recognized() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind resolves a relation macro name such as "embeds_many".
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Tracking selects the relations that participate in change tracking.
// A non-empty Only wins over Except.
type Tracking struct {
	Only   []string `yaml:"only"`
	Except []string `yaml:"except"`
}

// Merge returns the union of both trackings. Neither receiver nor argument is modified.
func (t Tracking) Merge(other Tracking) Tracking {
	return Tracking{
		Only:   union(t.Only, other.Only),
		Except: union(t.Except, other.Except),
	}
}

// Only returns a Tracking that restricts tracking to the named relations.
func Only(names ...string) Tracking {
	return Tracking{Only: union(nil, names)}
}

// Except returns a Tracking that excludes the named relations.
func Except(names ...string) Tracking {
	return Tracking{Except: union(nil, names)}
}

// KindLookup returns the declared kind of a relation, or KindUnknown if there is none.
type KindLookup func(name string) Kind

// IsTracked reports whether a relation participates in change tracking.
func IsTracked(name string, t Tracking, lookup KindLookup) bool {
	var selected bool
	if len(t.Only) > 0 {
		selected = slices.Contains(t.Only, name)
	} else {
		selected = !slices.Contains(t.Except, name)
	}
	if !selected || lookup == nil {
		return false
	}
	return lookup(name).Recognized()
}

// TrackedNames filters names down to the tracked ones, keeping their order.
func TrackedNames(names []string, t Tracking, lookup KindLookup) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if IsTracked(name, t, lookup) {
			out = append(out, name)
		}
	}
	return out
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s == "" || slices.Contains(out, s) {
				continue
			}
			out = append(out, s)
		}
	}
	return out
}
