package reltrack

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mickamy/reltrack/internal/shape"
)

// Tracker holds the relation shadow of one in-memory record.
// It is not safe for concurrent use; callers sharing a record must synchronize.
type Tracker struct {
	d          *Descriptor
	record     any
	shadow     map[string]any
	snapshotID string
}

// Track returns an empty tracker for record. Call Capture after loading or saving it.
func (d *Descriptor) Track(record any) *Tracker {
	return &Tracker{d: d, record: record}
}

// Track looks up the descriptor registered for the record's type and returns a tracker for it.
func (h *Handler) Track(record any) (*Tracker, error) {
	if isNil(record) {
		return nil, ErrNilTarget
	}
	d, ok := h.Lookup(record)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotRegistered, record)
	}
	return d.Track(record), nil
}

// Descriptor returns the descriptor the tracker was created from.
func (t *Tracker) Descriptor() *Descriptor { return t.d }

// Record returns the tracked record.
func (t *Tracker) Record() any { return t.record }

// Captured reports whether a snapshot has been taken.
func (t *Tracker) Captured() bool { return t.shadow != nil }

// SnapshotID identifies the current snapshot. It is empty before the first capture.
func (t *Tracker) SnapshotID() string { return t.snapshotID }

// Shadow returns the captured representation of a tracked relation.
func (t *Tracker) Shadow(name string) (any, bool) {
	v, ok := t.shadow[name]
	return v, ok
}

// Capture replaces the shadow with the current state of every tracked relation.
func (t *Tracker) Capture() error {
	shadow := make(map[string]any, len(t.d.tracked))
	for _, name := range t.d.tracked {
		v, err := t.current(name)
		if err != nil {
			return fmt.Errorf("reltrack: capture %s: %w", t.d.name, err)
		}
		shadow[name] = v
	}
	t.shadow = shadow
	t.snapshotID = uuid.NewString()
	t.d.h.log.Debug("captured relations",
		zap.String("model", t.d.name),
		zap.String("snapshot_id", t.snapshotID),
		zap.Int("relations", len(shadow)),
	)
	return nil
}

// AfterLoad is the hook to call once the record has been materialized from storage.
func (t *Tracker) AfterLoad() error { return t.Capture() }

// AfterSave is the hook to call after the record was saved successfully.
func (t *Tracker) AfterSave() error { return t.Capture() }

// RelationChanges reports, per tracked relation, the old and new shape of every relation
// that differs from the captured shadow. Relations are absent in the shadow until the first capture.
func (t *Tracker) RelationChanges() (Changes, error) {
	changes := Changes{}
	for _, name := range t.d.tracked {
		current, err := t.current(name)
		if err != nil {
			return nil, fmt.Errorf("reltrack: %s: %w", t.d.name, err)
		}
		old, n, err := shape.Derive(t.shadow[name], current)
		if err != nil {
			t.d.h.log.Warn("relation shape mismatch",
				zap.String("model", t.d.name),
				zap.String("relation", name),
				zap.String("snapshot_id", t.snapshotID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("reltrack: relation %s.%s: %w", t.d.name, name, err)
		}
		if !shape.Equal(old, n) {
			changes[name] = Pair{old, n}
		}
	}
	return changes, nil
}

// ChangesWithRelations merges the record's own changes with its relation changes.
// Relation entries win when a name appears in both.
func (t *Tracker) ChangesWithRelations() (Changes, error) {
	rel, err := t.RelationChanges()
	if err != nil {
		return nil, err
	}
	native := t.nativeChanges()
	out := make(Changes, len(native)+len(rel))
	for k, v := range native {
		out[k] = v
	}
	for k, v := range rel {
		out[k] = v
	}
	return out, nil
}

// RelationsChanged reports whether any tracked relation changed since the last capture.
func (t *Tracker) RelationsChanged() (bool, error) {
	rel, err := t.RelationChanges()
	if err != nil {
		return false, err
	}
	return len(rel) > 0, nil
}

// ChangedWithRelations reports whether the record or any tracked relation changed.
func (t *Tracker) ChangedWithRelations() (bool, error) {
	if len(t.nativeChanges()) > 0 {
		return true, nil
	}
	return t.RelationsChanged()
}

func (t *Tracker) nativeChanges() Changes {
	if nc, ok := t.record.(NativeChanges); ok {
		return nc.Changes()
	}
	return nil
}

func (t *Tracker) current(name string) (any, error) {
	rel, ok := t.d.Relation(name)
	if !ok {
		return nil, nil
	}
	return t.d.extract(t.record, rel)
}
