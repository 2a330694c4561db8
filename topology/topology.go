// Package topology parses the declarative YAML documents that define
// a worker's assigned topics, inventories, executors, resources, and
// jobs, and compiles them into the queue assignments a manager.Client
// would otherwise hand out over the wire. It exists so a standalone
// worker can boot from a local file instead of a running manager.
package topology

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/khulnasoft/DataLineup/errors"
	"github.com/khulnasoft/DataLineup/manager"
)

// APIVersion is the only declarative schema version this loader accepts.
const APIVersion = "datalineup.khulnasoft.io/v1alpha1"

// Recognized kinds, see §6.
const (
	KindJob               = "DatalineupJob"
	KindJobDefinition     = "DatalineupJobDefinition"
	KindInventory         = "DatalineupInventory"
	KindTopic             = "DatalineupTopic"
	KindExecutor          = "DatalineupExecutor"
	KindDynamicTopology   = "DatalineupDynamicTopology"
	KindResource          = "DatalineupResource"
	KindResourcesProvider = "DatalineupResourcesProvider"
)

// Metadata is the common name/labels envelope every document carries.
type Metadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels"`
}

// baseObject is the outer envelope every document must match before
// its spec is decoded against a kind-specific type.
type baseObject struct {
	APIVersion string    `yaml:"apiVersion"`
	Kind       string    `yaml:"kind"`
	Metadata   Metadata  `yaml:"metadata"`
	Spec       yaml.Node `yaml:"spec"`
}

// ComponentSpec is the shared shape of Topic/Inventory/Executor/
// ResourcesProvider specs: a typed, versioned, option-bearing factory
// reference.
type ComponentSpec struct {
	Type    string         `yaml:"type"`
	Version string         `yaml:"version"`
	Options map[string]any `yaml:"options"`
}

// JobSpec is a DatalineupJob's spec: input/output component
// references (by name, resolved against the topology's inventories
// and topics) plus pipeline and resource metadata.
type JobSpec struct {
	Input    string              `yaml:"input"`
	Output   map[string][]string `yaml:"output"`
	Pipeline struct {
		Info string         `yaml:"info"`
		Args map[string]any `yaml:"args"`
	} `yaml:"pipeline"`
	RequiredResources []string       `yaml:"requiredResources"`
	Executor          string         `yaml:"executor"`
	Config            map[string]any `yaml:"config"`
}

// ResourceSpec is a DatalineupResource's spec: a named typed instance
// plus its rate-limit declaration.
type ResourceSpec struct {
	Type         string   `yaml:"type"`
	Name         string   `yaml:"name"`
	Data         any      `yaml:"data"`
	DefaultDelay string   `yaml:"defaultDelay"`
	RateLimits   []string `yaml:"rateLimits"`
	Strategy     string   `yaml:"strategy"`
}

// DynamicTopologySpec fans a single job template out over a list of
// per-instance overrides, e.g. one DatalineupJobDefinition applied to
// N inventories discovered at topology-build time.
type DynamicTopologySpec struct {
	JobDefinition string           `yaml:"jobDefinition"`
	Instances     []map[string]any `yaml:"instances"`
}

// Topology is the fully-parsed, not-yet-compiled set of documents in
// one declarative bundle, indexed by kind and name.
type Topology struct {
	Inventories        map[string]ComponentSpec
	Topics             map[string]ComponentSpec
	Executors          map[string]ComponentSpec
	ResourcesProviders map[string]ComponentSpec
	Resources          map[string]ResourceSpec
	Jobs               map[string]JobSpec
	JobDefinitions     map[string]JobSpec
	DynamicTopologies  map[string]DynamicTopologySpec
}

func newTopology() *Topology {
	return &Topology{
		Inventories:        make(map[string]ComponentSpec),
		Topics:             make(map[string]ComponentSpec),
		Executors:          make(map[string]ComponentSpec),
		ResourcesProviders: make(map[string]ComponentSpec),
		Resources:          make(map[string]ResourceSpec),
		Jobs:               make(map[string]JobSpec),
		JobDefinitions:     make(map[string]JobSpec),
		DynamicTopologies:  make(map[string]DynamicTopologySpec),
	}
}

// Parse decodes a multi-document YAML stream into a Topology,
// rejecting any document whose apiVersion isn't APIVersion or whose
// kind isn't recognized.
func Parse(data []byte) (*Topology, error) {
	topo := newTopology()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var obj baseObject
		if err := dec.Decode(&obj); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "decode topology document")
		}
		if obj.Kind == "" && obj.APIVersion == "" {
			continue // blank document between `---` separators
		}
		if obj.APIVersion != APIVersion {
			return nil, errors.WithKind(
				errors.Newf("unrecognized apiVersion %q (want %q)", obj.APIVersion, APIVersion),
				errors.KindConfigurationInvalid,
			)
		}
		if err := topo.ingest(obj); err != nil {
			return nil, err
		}
	}
	return topo, nil
}

func (t *Topology) ingest(obj baseObject) error {
	name := obj.Metadata.Name
	switch obj.Kind {
	case KindInventory:
		var spec ComponentSpec
		if err := obj.Spec.Decode(&spec); err != nil {
			return errors.Wrapf(err, "decode %s %q", obj.Kind, name)
		}
		t.Inventories[name] = spec
	case KindTopic:
		var spec ComponentSpec
		if err := obj.Spec.Decode(&spec); err != nil {
			return errors.Wrapf(err, "decode %s %q", obj.Kind, name)
		}
		t.Topics[name] = spec
	case KindExecutor:
		var spec ComponentSpec
		if err := obj.Spec.Decode(&spec); err != nil {
			return errors.Wrapf(err, "decode %s %q", obj.Kind, name)
		}
		t.Executors[name] = spec
	case KindResourcesProvider:
		var spec ComponentSpec
		if err := obj.Spec.Decode(&spec); err != nil {
			return errors.Wrapf(err, "decode %s %q", obj.Kind, name)
		}
		t.ResourcesProviders[name] = spec
	case KindResource:
		var spec ResourceSpec
		if err := obj.Spec.Decode(&spec); err != nil {
			return errors.Wrapf(err, "decode %s %q", obj.Kind, name)
		}
		t.Resources[name] = spec
	case KindJob:
		var spec JobSpec
		if err := obj.Spec.Decode(&spec); err != nil {
			return errors.Wrapf(err, "decode %s %q", obj.Kind, name)
		}
		t.Jobs[name] = spec
	case KindJobDefinition:
		var spec JobSpec
		if err := obj.Spec.Decode(&spec); err != nil {
			return errors.Wrapf(err, "decode %s %q", obj.Kind, name)
		}
		t.JobDefinitions[name] = spec
	case KindDynamicTopology:
		var spec DynamicTopologySpec
		if err := obj.Spec.Decode(&spec); err != nil {
			return errors.Wrapf(err, "decode %s %q", obj.Kind, name)
		}
		t.DynamicTopologies[name] = spec
	default:
		return errors.WithKind(errors.Newf("unrecognized kind %q", obj.Kind), errors.KindConfigurationInvalid)
	}
	return nil
}

// Compile resolves every DatalineupJob (static and dynamic-topology
// expanded) against its named input/output/executor components into
// the queue assignments a worker's Syncer reconciles against.
func (t *Topology) Compile() ([]manager.QueueItemWithState, error) {
	var items []manager.QueueItemWithState

	for name, job := range t.Jobs {
		item, err := t.compileJob(name, job)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	for _, dyn := range t.DynamicTopologies {
		def, ok := t.JobDefinitions[dyn.JobDefinition]
		if !ok {
			return nil, errors.WithKind(errors.Newf("dynamic topology references unknown job definition %q", dyn.JobDefinition), errors.KindConfigurationInvalid)
		}
		for i, instance := range dyn.Instances {
			job := def
			if input, ok := instance["input"].(string); ok {
				job.Input = input
			}
			name := fmt.Sprintf("%s-%d", dyn.JobDefinition, i)
			if n, ok := instance["name"].(string); ok {
				name = n
			}
			item, err := t.compileJob(name, job)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func (t *Topology) compileJob(name string, job JobSpec) (manager.QueueItemWithState, error) {
	input, ok := t.Inventories[job.Input]
	if !ok {
		return manager.QueueItemWithState{}, errors.WithKind(errors.Newf("job %q references unknown inventory %q", name, job.Input), errors.KindConfigurationInvalid)
	}

	output := make(map[string][]manager.ComponentDefinition, len(job.Output))
	for channel, topicNames := range job.Output {
		defs := make([]manager.ComponentDefinition, 0, len(topicNames))
		for _, topicName := range topicNames {
			spec, ok := t.Topics[topicName]
			if !ok {
				return manager.QueueItemWithState{}, errors.WithKind(errors.Newf("job %q output %q references unknown topic %q", name, channel, topicName), errors.KindConfigurationInvalid)
			}
			defs = append(defs, manager.ComponentDefinition{Name: topicName, Type: spec.Type, Version: spec.Version, Options: spec.Options})
		}
		output[channel] = defs
	}

	return manager.QueueItemWithState{
		Name:              name,
		Input:             manager.ComponentDefinition{Name: job.Input, Type: input.Type, Version: input.Version, Options: input.Options},
		Output:            output,
		Pipeline:          manager.QueueMeta{Info: job.Pipeline.Info, Args: job.Pipeline.Args},
		RequiredResources: job.RequiredResources,
		Executor:          job.Executor,
		Config:            job.Config,
	}, nil
}
