// Package registry resolves a ComponentDefinition's type string against
// versioned built-in factories, the way a plugin manifest pins a host
// API version: a topology can request "memory-topic@^1.0" and get
// whichever registered factory satisfies that range.
package registry

import (
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/khulnasoft/DataLineup/errors"
)

// Factory builds one instance of a registered component from its
// declared options.
type Factory func(options map[string]any) (any, error)

type entry struct {
	version *semver.Version
	build   Factory
}

// Registry maps kind (topic, inventory, executor, resources_provider)
// and type name to version-tagged factories.
type Registry struct {
	mu             sync.RWMutex
	entries        map[string]map[string][]entry // kind -> typeName -> versions
	knownNoFactory map[string]bool               // kind:typeName pairs registered as known but undriven (e.g. amqp)
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		entries:        make(map[string]map[string][]entry),
		knownNoFactory: make(map[string]bool),
	}
}

// Register adds a factory for kind/typeName at the given semver
// version (e.g. "1.2.0").
func (r *Registry) Register(kind, typeName, version string, build Factory) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(err, "invalid version %q for %s/%s", version, kind, typeName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[kind] == nil {
		r.entries[kind] = make(map[string][]entry)
	}
	r.entries[kind][typeName] = append(r.entries[kind][typeName], entry{version: v, build: build})
	return nil
}

// RegisterKnownType records a type name as a recognized component
// type with no in-process factory: resolving it fails with a distinct
// "external collaborator" error rather than "unknown type", e.g. amqp
// topics, which are named at the registry but implemented only at the
// transport boundary outside this module.
func (r *Registry) RegisterKnownType(kind, typeName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.knownNoFactory[kind+":"+typeName] = true
}

// Resolve finds the highest registered version of kind/typeName
// satisfying constraint (e.g. "^1.0", "" meaning any) and builds it.
func (r *Registry) Resolve(kind, typeName, constraint string, options map[string]any) (any, error) {
	r.mu.RLock()
	candidates := r.entries[kind][typeName]
	knownUndriven := r.knownNoFactory[kind+":"+typeName]
	r.mu.RUnlock()

	if len(candidates) == 0 {
		if knownUndriven {
			return nil, errors.WithKind(
				errors.Newf("%s/%s is a known external collaborator type with no in-process driver", kind, typeName),
				errors.KindConfigurationInvalid,
			)
		}
		return nil, errors.WithKind(errors.Newf("no factory registered for %s/%s", kind, typeName), errors.KindConfigurationInvalid)
	}

	var constraints *semver.Constraints
	if constraint != "" {
		c, err := semver.NewConstraint(constraint)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid version constraint %q", constraint)
		}
		constraints = c
	}

	var best *entry
	for i := range candidates {
		c := candidates[i]
		if constraints != nil && !constraints.Check(c.version) {
			continue
		}
		if best == nil || c.version.GreaterThan(best.version) {
			best = &c
		}
	}
	if best == nil {
		return nil, errors.WithKind(errors.Newf("no version of %s/%s satisfies %q", kind, typeName, constraint), errors.KindConfigurationInvalid)
	}
	return best.build(options)
}
