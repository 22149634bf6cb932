package modules

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/semver"

	"github.com/Sumatoshi-tech/pbmerge/pkg/csharp"
	"github.com/Sumatoshi-tech/pbmerge/pkg/options"
)

// Sentinel errors for module registration and resolution.
var (
	// ErrModuleNotFound indicates a reference to an unregistered module id.
	ErrModuleNotFound = errors.New("module not found")
	// ErrNoMatchingVersion indicates no registered version satisfies the constraint.
	ErrNoMatchingVersion = errors.New("no registered module version satisfies the constraint")
	// ErrInvalidVersion indicates an unparsable version or constraint.
	ErrInvalidVersion = errors.New("invalid module version")
	// ErrDuplicateModule indicates a second registration of the same id, kind and version.
	ErrDuplicateModule = errors.New("module already registered")
	// ErrWrongKind indicates a composer referenced as publisher or the reverse.
	ErrWrongKind = errors.New("module has the wrong kind")
)

// Info describes one registered module version.
type Info struct {
	ID      string
	Version string
	Kind    Kind
}

type entry struct {
	version      *semver.Version
	kind         Kind
	newMinifier  func() Minifier
	newPublisher func() Publisher
}

// Registry maps module identifiers and versions to factories.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string][]entry)}
}

// DefaultRegistry returns a Registry holding the built-in modules.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Built-in registrations use fixed valid versions and unique ids.
	_ = r.RegisterMinifier(NoopMinifierID, BuiltinVersion, func() Minifier { return NoopMinifier{} })
	_ = r.RegisterMinifier(CommentMinifierID, BuiltinVersion, func() Minifier {
		return NewCommentMinifier(csharp.NewParser())
	})
	_ = r.RegisterPublisher(LocalPublisherID, BuiltinVersion, func() Publisher { return LocalPublisher{} })
	_ = r.RegisterPublisher(ManifestPublisherID, BuiltinVersion, func() Publisher { return NewManifestPublisher() })

	return r
}

// RegisterMinifier adds a composer module.
func (r *Registry) RegisterMinifier(id, version string, factory func() Minifier) error {
	return r.register(id, version, entry{kind: KindComposer, newMinifier: factory})
}

// RegisterPublisher adds a publisher module.
func (r *Registry) RegisterPublisher(id, version string, factory func() Publisher) error {
	return r.register(id, version, entry{kind: KindPublisher, newPublisher: factory})
}

func (r *Registry) register(id, version string, e entry) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %s@%s: %w", ErrInvalidVersion, id, version, err)
	}

	e.version = v
	key := strings.ToLower(strings.TrimSpace(id))

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.entries[key] {
		if existing.kind == e.kind && existing.version.Equal(v) {
			return fmt.Errorf("%w: %s@%s", ErrDuplicateModule, id, v)
		}
	}

	r.entries[key] = append(r.entries[key], e)

	return nil
}

// ResolveMinifier returns a new instance of the highest registered composer
// version satisfying the reference.
func (r *Registry) ResolveMinifier(ref options.ModuleRef) (Minifier, error) {
	e, err := r.resolve(ref, KindComposer)
	if err != nil {
		return nil, err
	}

	return e.newMinifier(), nil
}

// ResolvePublisher returns a new instance of the highest registered publisher
// version satisfying the reference.
func (r *Registry) ResolvePublisher(ref options.ModuleRef) (Publisher, error) {
	e, err := r.resolve(ref, KindPublisher)
	if err != nil {
		return nil, err
	}

	return e.newPublisher(), nil
}

func (r *Registry) resolve(ref options.ModuleRef, kind Kind) (entry, error) {
	constraint := strings.TrimSpace(ref.Version)
	if constraint == "" {
		constraint = "*"
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return entry{}, fmt.Errorf("%w: %s: %w", ErrInvalidVersion, ref, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates, ok := r.entries[strings.ToLower(strings.TrimSpace(ref.ID))]
	if !ok {
		return entry{}, fmt.Errorf("%w: %s", ErrModuleNotFound, ref.ID)
	}

	var (
		best    entry
		found   bool
		hasKind bool
	)

	for _, e := range candidates {
		if e.kind != kind {
			continue
		}

		hasKind = true

		if !c.Check(e.version) {
			continue
		}

		if !found || e.version.GreaterThan(best.version) {
			best = e
			found = true
		}
	}

	if !hasKind {
		return entry{}, fmt.Errorf("%w: %s is a %s, not a %s", ErrWrongKind, ref.ID, candidates[0].kind, kind)
	}

	if !found {
		return entry{}, fmt.Errorf("%w: %s", ErrNoMatchingVersion, ref)
	}

	return best, nil
}

// List returns every registered module version ordered by id and version.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Info

	for id, entries := range r.entries {
		for _, e := range entries {
			out = append(out, Info{ID: id, Version: e.version.String(), Kind: e.kind})
		}
	}

	slices.SortFunc(out, func(a, b Info) int {
		if c := strings.Compare(a.ID, b.ID); c != 0 {
			return c
		}

		return semver.MustParse(a.Version).Compare(semver.MustParse(b.Version))
	})

	return out
}
