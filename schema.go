package reltrack

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/mickamy/reltrack/internal/naming"
)

// tagName is the struct tag that declares a relation, e.g. `reltrack:"embeds_many"`.
const tagName = "reltrack"

// Relation describes one association of a record type, as the host ORM knows it.
type Relation struct {
	Name       string
	Kind       Kind
	Key        string // has_one: attribute read from the target; has_many: key of each id entry (default: id)
	PrimaryKey string // has_and_belongs_to_many: key of each id entry (default: id)
	ForeignKey string // belongs_to: attribute on the owner (default: <singular>_id)
	IDs        string // has_many, has_and_belongs_to_many: attribute holding the live ids (default: <singular>_ids)

	field []int
}

func (r Relation) withDefaults() Relation {
	if r.Key == "" {
		r.Key = "id"
	}
	if r.PrimaryKey == "" {
		r.PrimaryKey = "id"
	}
	if r.ForeignKey == "" {
		r.ForeignKey = naming.ForeignKey(r.Name)
	}
	if r.IDs == "" {
		r.IDs = naming.IDs(r.Name)
	}
	return r
}

// ModelNamer provides a custom model name for a record type.
type ModelNamer interface {
	ModelName() string
}

// Option customizes a registration.
type Option func(*registration)

type registration struct {
	relations []Relation
	tracking  Tracking
}

// WithRelations declares relations in addition to the ones found in struct tags.
func WithRelations(rels ...Relation) Option {
	return func(r *registration) {
		r.relations = append(r.relations, rels...)
	}
}

// WithTracking adds include/exclude lists. Repeated calls accumulate.
func WithTracking(t Tracking) Option {
	return func(r *registration) {
		r.tracking = r.tracking.Merge(t)
	}
}

// Descriptor is the immutable, registered view of a record type.
type Descriptor struct {
	h         *Handler
	name      string
	typ       reflect.Type
	relations []Relation
	index     map[string]int
	tracking  Tracking
	tracked   []string
}

// Register resolves relations and tracking configuration for the target's type.
// Registering the same type again merges tracking with the previous registration.
func (h *Handler) Register(target any, opts ...Option) (*Descriptor, error) {
	typ, name, err := resolveModel(target)
	if err != nil {
		return nil, err
	}

	var reg registration
	for _, opt := range opts {
		opt(&reg)
	}

	rels, err := tagRelations(typ)
	if err != nil {
		return nil, err
	}
	for _, rel := range reg.relations {
		rel.Name = strings.TrimSpace(rel.Name)
		if rel.Name == "" {
			return nil, fmt.Errorf("reltrack: relation without name on %s", name)
		}
		if typ.Kind() == reflect.Struct {
			rel.field, _ = fieldIndex(typ, rel.Name)
		}
		rels = append(rels, rel)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.models[typ]
	if prev != nil {
		rels = mergeRelations(prev.relations, rels)
	}
	d := &Descriptor{
		h:        h,
		name:     name,
		typ:      typ,
		index:    make(map[string]int, len(rels)),
		tracking: Except(h.cfg.DefaultExcept...).Merge(h.cfg.Models[name]),
	}
	for _, rel := range rels {
		if _, ok := d.index[rel.Name]; ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateRelation, name, rel.Name)
		}
		d.index[rel.Name] = len(d.relations)
		d.relations = append(d.relations, rel.withDefaults())
	}
	if prev != nil {
		d.tracking = d.tracking.Merge(prev.tracking)
	}
	d.tracking = d.tracking.Merge(reg.tracking)
	d.tracked = TrackedNames(d.relationNames(), d.tracking, d.Kind)

	h.models[typ] = d
	h.log.Debug("registered model",
		zap.String("model", name),
		zap.Int("relations", len(d.relations)),
		zap.Strings("tracked", d.tracked),
	)
	return d, nil
}

// Name returns the model name.
func (d *Descriptor) Name() string { return d.name }

// Tracking returns the merged tracking configuration.
func (d *Descriptor) Tracking() Tracking { return d.tracking }

// Relations returns every declared relation in declaration order.
func (d *Descriptor) Relations() []Relation {
	out := make([]Relation, len(d.relations))
	copy(out, d.relations)
	return out
}

// Relation returns the named relation.
func (d *Descriptor) Relation(name string) (Relation, bool) {
	i, ok := d.index[name]
	if !ok {
		return Relation{}, false
	}
	return d.relations[i], true
}

// Kind returns the kind of the named relation, or KindUnknown when it is not declared.
func (d *Descriptor) Kind(name string) Kind {
	if rel, ok := d.Relation(name); ok {
		return rel.Kind
	}
	return KindUnknown
}

// TrackedNames returns the tracked relation names, computed once at registration.
func (d *Descriptor) TrackedNames() []string {
	out := make([]string, len(d.tracked))
	copy(out, d.tracked)
	return out
}

// IsTracked reports whether the named relation is tracked.
func (d *Descriptor) IsTracked(name string) bool {
	return IsTracked(name, d.tracking, d.Kind)
}

func (d *Descriptor) relationNames() []string {
	names := make([]string, len(d.relations))
	for i, rel := range d.relations {
		names[i] = rel.Name
	}
	return names
}

// mergeRelations keeps earlier declarations and lets later ones replace them by name.
func mergeRelations(prev, next []Relation) []Relation {
	out := make([]Relation, 0, len(prev)+len(next))
	seen := make(map[string]bool, len(next))
	for _, rel := range next {
		seen[rel.Name] = true
	}
	for _, rel := range prev {
		if !seen[rel.Name] {
			out = append(out, rel)
		}
	}
	return append(out, next...)
}

// tagRelations collects relations declared with `reltrack` struct tags.
func tagRelations(typ reflect.Type) ([]Relation, error) {
	if typ.Kind() != reflect.Struct {
		return nil, nil
	}
	var rels []Relation
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup(tagName)
		if !ok || tag == "-" || !f.IsExported() {
			continue
		}
		head, opts := naming.Tag(tag)
		kind, err := ParseKind(head)
		if err != nil {
			return nil, fmt.Errorf("reltrack: field %s.%s: %w", typ.Name(), f.Name, err)
		}
		rel := Relation{
			Name:       opts["name"],
			Kind:       kind,
			Key:        opts["key"],
			PrimaryKey: opts["primary_key"],
			ForeignKey: opts["foreign_key"],
			IDs:        opts["ids"],
			field:      f.Index,
		}
		if rel.Name == "" {
			rel.Name = naming.Snake(f.Name)
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

var modelNamerType = reflect.TypeOf((*ModelNamer)(nil)).Elem()

func resolveModel(target any) (reflect.Type, string, error) {
	if target == nil {
		return nil, "", ErrNilTarget
	}

	val := reflect.ValueOf(target)
	typ := val.Type()

	if typ.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, "", fmt.Errorf("%w: %T", ErrNilTarget, target)
		}
		typ = typ.Elem()
		val = val.Elem()
	}

	if namer, ok := target.(ModelNamer); ok {
		return namedModel(typ, namer)
	}
	if namer, ok := val.Interface().(ModelNamer); ok {
		return namedModel(typ, namer)
	}
	if typ.Kind() == reflect.Struct && reflect.PointerTo(typ).Implements(modelNamerType) {
		if namer, ok := reflect.New(typ).Interface().(ModelNamer); ok {
			return namedModel(typ, namer)
		}
	}

	if typ.Kind() != reflect.Struct {
		return nil, "", fmt.Errorf("reltrack: unsupported model target %T", target)
	}
	if typ.Name() == "" {
		return nil, "", fmt.Errorf("reltrack: cannot derive model name for anonymous struct of type %v", typ)
	}
	return typ, naming.Collection(typ.Name()), nil
}

func namedModel(typ reflect.Type, namer ModelNamer) (reflect.Type, string, error) {
	name := strings.TrimSpace(namer.ModelName())
	if name == "" {
		return nil, "", errors.New("reltrack: ModelName returned empty string")
	}
	return typ, name, nil
}
