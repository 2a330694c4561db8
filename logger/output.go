package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - User-facing output only: results, errors with hints
//	1 (-v)      - + Progress, startup info, pipeline stage transitions
//	2 (-vv)     - + park/resource detail, timing, config loaded, HTTP requests
//	3 (-vvv)    - + remote executor stdout/stderr, internal flow
//	4 (-vvvv)   - + SQL queries, full request/response bodies, data dumps

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Job results, command output
	OutputErrors                           // Errors with hints and resolution steps
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v) - Informational
	OutputProgress      // Progress indicators (e.g., "processed 50/100 messages")
	OutputStartup       // Startup banners, config summary
	OutputExecutorStatus // Executor registered/unregistered/health status
	OutputOperationInfo // High-level operation summaries
	OutputStageTransitions // poll -> schedule -> submit -> execute -> publish transitions

	// Level 2 (-vv) - Detailed
	OutputParkDetail   // What resource/limit a message parked on
	OutputTiming       // Operation timing (e.g., "execute took 42ms")
	OutputConfig       // Config values loaded/applied
	OutputHTTPRequests // Outgoing HTTP request URLs and methods
	OutputHTTPStatus   // HTTP response status codes
	OutputDBStats      // Database statistics and connection info
	OutputSyncDetail   // Work-manager sync diff detail (added/dropped queues)

	// Level 3 (-vvv) - Debug
	OutputRemoteStdout // Remote executor process stdout
	OutputRemoteStderr // Remote executor process stderr
	OutputRemoteCall   // Remote executor call (method name, timing)
	OutputRemoteStatus // Remote executor response status
	OutputInternalFlow // Internal operation flow (function entry/exit)
	OutputResourceFlow // Resource acquire/release flow

	// Level 4 (-vvvv) - Full dump
	OutputSQLQueries // Full SQL queries executed
	OutputSQLResults // SQL query result summaries
	OutputHTTPBody   // Full HTTP request/response bodies
	OutputRemoteBody // Full remote executor request/response bodies
	OutputDataDump   // Full data structure contents
	OutputCursorPlan // Full cursor compaction plan
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	// Level 0 - Always shown
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	// Level 1 - Informational
	OutputProgress:         VerbosityInfo,
	OutputStartup:          VerbosityInfo,
	OutputExecutorStatus:   VerbosityInfo,
	OutputOperationInfo:    VerbosityInfo,
	OutputStageTransitions: VerbosityInfo,

	// Level 2 - Detailed
	OutputParkDetail:   VerbosityDebug,
	OutputTiming:       VerbosityDebug,
	OutputConfig:       VerbosityDebug,
	OutputHTTPRequests: VerbosityDebug,
	OutputHTTPStatus:   VerbosityDebug,
	OutputDBStats:      VerbosityDebug,
	OutputSyncDetail:   VerbosityDebug,

	// Level 3 - Debug
	OutputRemoteStdout: VerbosityTrace,
	OutputRemoteStderr: VerbosityTrace,
	OutputRemoteCall:   VerbosityTrace,
	OutputRemoteStatus: VerbosityTrace,
	OutputInternalFlow: VerbosityTrace,
	OutputResourceFlow: VerbosityTrace,

	// Level 4 - Full dump
	OutputSQLQueries: VerbosityAll,
	OutputSQLResults: VerbosityAll,
	OutputHTTPBody:   VerbosityAll,
	OutputRemoteBody: VerbosityAll,
	OutputDataDump:   VerbosityAll,
	OutputCursorPlan: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

// categoryNames provides human-readable names for output categories
var categoryNames = map[OutputCategory]string{
	OutputResults:          "results",
	OutputErrors:           "errors",
	OutputUserStatus:       "status",
	OutputProgress:         "progress",
	OutputStartup:          "startup",
	OutputExecutorStatus:   "executor-status",
	OutputOperationInfo:    "operation-info",
	OutputStageTransitions: "stage-transitions",
	OutputParkDetail:       "park-detail",
	OutputTiming:           "timing",
	OutputConfig:           "config",
	OutputHTTPRequests:     "http-requests",
	OutputHTTPStatus:       "http-status",
	OutputDBStats:          "db-stats",
	OutputSyncDetail:       "sync-detail",
	OutputRemoteStdout:     "remote-stdout",
	OutputRemoteStderr:     "remote-stderr",
	OutputRemoteCall:       "remote-call",
	OutputRemoteStatus:     "remote-status",
	OutputInternalFlow:     "internal-flow",
	OutputResourceFlow:     "resource-flow",
	OutputSQLQueries:       "sql-queries",
	OutputSQLResults:       "sql-results",
	OutputHTTPBody:         "http-body",
	OutputRemoteBody:       "remote-body",
	OutputDataDump:         "data-dump",
	OutputCursorPlan:       "cursor-plan",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}

// EnabledCategories returns all output categories enabled at the given verbosity
func EnabledCategories(verbosity int) []OutputCategory {
	var enabled []OutputCategory
	for cat, minLevel := range categoryLevels {
		if verbosity >= minLevel {
			enabled = append(enabled, cat)
		}
	}
	return enabled
}

// VerbosityDescription returns a description of what's shown at each level
func VerbosityDescription(verbosity int) string {
	switch verbosity {
	case VerbosityUser:
		return "results and errors only"
	case VerbosityInfo:
		return "results, errors, progress, stage transitions"
	case VerbosityDebug:
		return "above + park detail, timing, config"
	case VerbosityTrace:
		return "above + remote executor logs, internal flow"
	case VerbosityAll:
		return "above + SQL queries, full bodies"
	default:
		if verbosity > VerbosityAll {
			return "maximum verbosity"
		}
		return "unknown verbosity level"
	}
}

// Stage output helpers

// ShouldShowStageTransitions returns true if pipeline stage transitions should be displayed
func ShouldShowStageTransitions(verbosity int) bool {
	return ShouldOutput(verbosity, OutputStageTransitions)
}

// ShouldShowParkDetail returns true if park/resource detail should be displayed
func ShouldShowParkDetail(verbosity int) bool {
	return ShouldOutput(verbosity, OutputParkDetail)
}

// ShouldShowSQL returns true if SQL queries should be displayed
func ShouldShowSQL(verbosity int) bool {
	return ShouldOutput(verbosity, OutputSQLQueries)
}

// Remote executor output helpers

// ShouldShowRemoteStdout returns true if remote executor stdout should be forwarded
func ShouldShowRemoteStdout(verbosity int) bool {
	return ShouldOutput(verbosity, OutputRemoteStdout)
}

// ShouldShowRemoteStderr returns true if remote executor stderr should be forwarded
func ShouldShowRemoteStderr(verbosity int) bool {
	return ShouldOutput(verbosity, OutputRemoteStderr)
}

// Timing helpers

// SlowThresholdMS is the threshold in milliseconds above which timing is always shown
const SlowThresholdMS = 100

// ShouldShowTiming returns true if timing info should be displayed.
// Shows if: verbosity >= 2 (-vv) OR operation exceeded slow threshold.
func ShouldShowTiming(verbosity int, durationMS int64) bool {
	if durationMS >= SlowThresholdMS {
		return true // Always show slow operations
	}
	return ShouldOutput(verbosity, OutputTiming)
}

// ShouldShowTimingAlways returns true if timing should always be shown (slow operation)
func ShouldShowTimingAlways(durationMS int64) bool {
	return durationMS >= SlowThresholdMS
}
