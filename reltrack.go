package reltrack

import (
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Config defines the main configuration options for reltrack.
type Config struct {
	DefaultExcept []string            `yaml:"default_except"` // relations never tracked unless listed in Only (default: versions)
	StripKeys     []string            `yaml:"strip_keys"`     // housekeeping keys removed from embedded change reports
	Models        map[string]Tracking `yaml:"models"`         // per-model tracking, keyed by model name
	Logger        *zap.Logger         `yaml:"-"`
}

// Handler is the main entry point: it registers record types and hands out trackers.
type Handler struct {
	cfg Config
	log *zap.Logger

	mu     sync.RWMutex
	models map[reflect.Type]*Descriptor
}

// New creates a new Handler instance with sensible defaults.
func New(cfg Config) *Handler {
	if cfg.DefaultExcept == nil {
		cfg.DefaultExcept = []string{"versions"}
	}
	if cfg.Models == nil {
		cfg.Models = map[string]Tracking{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handler{
		cfg:    cfg,
		log:    cfg.Logger.Named("reltrack"),
		models: map[reflect.Type]*Descriptor{},
	}
}

// Config returns the effective configuration.
func (h *Handler) Config() Config {
	return h.cfg
}

// stripKeys returns a copy of m without the configured housekeeping keys.
// The copy is always made so that shadows never alias a child's own change map.
func (h *Handler) stripKeys(m Changes) Changes {
	out := make(Changes, len(m))
	for k, v := range m {
		if slices.Contains(h.cfg.StripKeys, k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Lookup returns the descriptor registered for the target's type.
func (h *Handler) Lookup(target any) (*Descriptor, bool) {
	typ := modelType(target)
	if typ == nil {
		return nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	d, ok := h.models[typ]
	return d, ok
}

func modelType(target any) reflect.Type {
	if target == nil {
		return nil
	}
	typ := reflect.TypeOf(target)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ
}
