package reltrack

import (
	"errors"

	"github.com/mickamy/reltrack/internal/shape"
)

// Changes maps a field or relation name to a Pair, or to a bare value when it did not change.
type Changes = shape.Map

// Pair holds the old and new side of a single change.
type Pair = shape.Pair

// Seq is the ordered shape of to-many relations.
type Seq = shape.Seq

// NativeChanges is implemented by records and embedded children that track their own fields.
type NativeChanges interface {
	Changes() Changes
}

// RelationAwareChanges is implemented by children that also report changes of their own relations.
// It is preferred over NativeChanges when both are available.
type RelationAwareChanges interface {
	ChangesWithRelations() (Changes, error)
}

// Attributer exposes named attributes without reflection.
type Attributer interface {
	Attribute(name string) (any, bool)
}

// Relater exposes the live value of a named relation without reflection.
type Relater interface {
	Relation(name string) any
}

var (
	// ErrShapeMismatch is returned when a relation's shadow and its current value have incompatible shapes.
	ErrShapeMismatch = shape.ErrMismatch
	// ErrNoChangeReport is returned when an embedded child implements neither change interface.
	ErrNoChangeReport = errors.New("reltrack: embedded child does not report changes")
	// ErrUnknownKind is returned for relation kinds outside the recognized set.
	ErrUnknownKind = errors.New("reltrack: unknown relation kind")
	// ErrDuplicateRelation is returned when two relations share a name.
	ErrDuplicateRelation = errors.New("reltrack: duplicate relation")
	// ErrNilTarget is returned when a nil model or record is given.
	ErrNilTarget = errors.New("reltrack: nil target")
	// ErrNotRegistered is returned when tracking a record whose type was never registered.
	ErrNotRegistered = errors.New("reltrack: type not registered")
)
