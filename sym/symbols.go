// Package sym defines canonical symbols for worker pipeline stages and
// lifecycle events. These symbols are attached to structured log fields so
// logs stay queryable by stage regardless of the free-text message, and are
// stable across CLI output and documentation.
package sym

// Pipeline-stage symbols — each corresponds to one stage of the scheduling
// pipeline a message moves through: poll, schedule, submit, execute, publish.
const (
	Poll     = "◌" // poll — dequeue attempt from a topic
	Schedule = "⊛" // schedule — resource/backpressure check before submit
	Park     = "⏸" // park — blocked waiting on a resource or rate limit
	Submit   = "▷" // submit — handed off to an executor
	Execute  = "▶" // execute — pipeline running inside an executor
	Publish  = "⤳" // publish — result routed to its destination topic
	Sync     = "⟲" // sync — work-manager reconciliation with the manager
)

// Lifecycle and subsystem symbols — not surfaced as CLI commands, used only
// to tag log lines from their owning subsystem.
const (
	Open     = "✺" // open — worker startup, cursor replay and lease recovery
	Close    = "✻" // close — graceful shutdown, cursor flush
	Cursor   = "⌁" // cursor — cursor-state store operations
	Resource = "◈" // resource — resource manager acquire/release
)

// entry binds a symbol to its glyph, CLI command, and description.
type entry struct {
	glyph       string
	command     string
	label       string
	description string
}

// registry is the canonical mapping between symbols and their metadata.
var registry = []entry{
	{Poll, "poll", "Poll", "Dequeue attempt from a topic"},
	{Schedule, "schedule", "Schedule", "Resource and backpressure check before submit"},
	{Park, "park", "Park", "Blocked waiting on a resource or rate limit"},
	{Submit, "submit", "Submit", "Handed off to an executor"},
	{Execute, "execute", "Execute", "Pipeline running inside an executor"},
	{Publish, "publish", "Publish", "Result routed to its destination topic"},
	{Sync, "sync", "Sync", "Work-manager reconciliation with the manager"},
}

// Commands lists the CLI command names for every symbol that has one,
// in registry order.
var Commands = func() []string {
	cmds := make([]string, 0, len(registry))
	for _, e := range registry {
		cmds = append(cmds, e.command)
	}
	return cmds
}()

// PaletteOrder defines the canonical ordering for status output and
// progress displays.
var PaletteOrder = []string{Poll, Schedule, Park, Submit, Execute, Publish, Sync}

// SymbolToCommand maps glyph strings to their CLI command equivalents.
var SymbolToCommand = map[string]string{
	Poll:     "poll",
	Schedule: "schedule",
	Park:     "park",
	Submit:   "submit",
	Execute:  "execute",
	Publish:  "publish",
	Sync:     "sync",
}

// CommandToSymbol maps CLI command names to their canonical glyph strings.
var CommandToSymbol = map[string]string{
	"poll":     Poll,
	"schedule": Schedule,
	"park":     Park,
	"submit":   Submit,
	"execute":  Execute,
	"publish":  Publish,
	"sync":     Sync,
}

// CommandDescriptions provides human-readable explanations for CLI help text.
var CommandDescriptions = map[string]string{
	"poll":     "Poll — dequeue attempt from a topic",
	"schedule": "Schedule — resource and backpressure check before submit",
	"park":     "Park — blocked waiting on a resource or rate limit",
	"submit":   "Submit — handed off to an executor",
	"execute":  "Execute — pipeline running inside an executor",
	"publish":  "Publish — result routed to its destination topic",
	"sync":     "Sync — work-manager reconciliation with the manager",
}
