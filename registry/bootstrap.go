package registry

import (
	"github.com/khulnasoft/DataLineup/topic"
	"github.com/khulnasoft/DataLineup/topic/file"
	"github.com/khulnasoft/DataLineup/topic/memory"
)

// NewDefault returns a Registry with the in-process topic/inventory
// drivers registered under the names a declarative topology references
// them by, plus the transports named at the interface only (§1: amqp is
// recognized so a topology referencing it fails with a clear
// "no in-process driver" error instead of "unknown type").
func NewDefault() *Registry {
	r := New()

	r.mustRegister("topic", "memory-topic", "1.0.0", func(options map[string]any) (any, error) {
		size := 0
		if v, ok := options["size"].(int); ok {
			size = v
		}
		return memory.NewTopic(size), nil
	})
	r.mustRegister("inventory", "memory-inventory", "1.0.0", func(options map[string]any) (any, error) {
		return memory.NewInventory(nil), nil
	})

	r.mustRegister("topic", "file-topic", "1.0.0", func(options map[string]any) (any, error) {
		path, _ := options["path"].(string)
		return file.NewTopic(path), nil
	})
	r.mustRegister("inventory", "file-inventory", "1.0.0", func(options map[string]any) (any, error) {
		path, _ := options["path"].(string)
		return file.NewInventory(path), nil
	})

	r.RegisterKnownType("topic", "amqp-topic")
	r.RegisterKnownType("inventory", "amqp-inventory")

	return r
}

// mustRegister panics on registration failure, which only happens for a
// malformed semver constant supplied here rather than by a caller, i.e.
// a programming error in this file.
func (r *Registry) mustRegister(kind, typeName, version string, build Factory) {
	if err := r.Register(kind, typeName, version, build); err != nil {
		panic(err)
	}
}

var _ topic.Inventory = (*memory.Inventory)(nil)
