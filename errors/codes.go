package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration and topology errors (fatal, construction-time)
const (
	// ErrCodeTopologyMismatch indicates lane counts at a fan-out/fan-in boundary do not divide.
	ErrCodeTopologyMismatch ErrorCode = "TOPOLOGY_MISMATCH"
	// ErrCodeInvalidTopology indicates a graph invariant does not hold.
	ErrCodeInvalidTopology ErrorCode = "INVALID_TOPOLOGY"
	// ErrCodeUnknownTruncation indicates the truncation point is not declared for the variant.
	ErrCodeUnknownTruncation ErrorCode = "UNKNOWN_TRUNCATION"
	// ErrCodeUnknownParameter indicates a parameter or configuration key outside the schema.
	ErrCodeUnknownParameter ErrorCode = "UNKNOWN_PARAMETER"
	// ErrCodeInvalidParameter indicates a parameter value of the wrong type or a read-only parameter.
	ErrCodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
	// ErrCodeInvalidConfig indicates the configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeAlreadyMaterialized indicates the deferred build phase already ran.
	ErrCodeAlreadyMaterialized ErrorCode = "ALREADY_MATERIALIZED"
)

// Engine errors
const (
	// ErrCodeElementUnavailable indicates the engine could not create an element.
	ErrCodeElementUnavailable ErrorCode = "ELEMENT_UNAVAILABLE"
	// ErrCodeLinkFailed indicates the engine refused a pad link.
	ErrCodeLinkFailed ErrorCode = "LINK_FAILED"
	// ErrCodeEngineStartup indicates the engine refused the Paused transition.
	ErrCodeEngineStartup ErrorCode = "ENGINE_STARTUP"
	// ErrCodeEngineError indicates the engine reported an error while running.
	ErrCodeEngineError ErrorCode = "ENGINE_ERROR"
)

// Run control errors
const (
	// ErrCodeCanceled indicates the run was canceled from outside.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeInternal indicates a programming error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeEngineError: true,
	ErrCodeInternal:    false,
}

// IsRetryableCode returns true if the caller may retry the whole run.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// Process exit codes used by the command line.
const (
	ExitOK       = 0
	ExitStartup  = 1
	ExitConfig   = 2
	ExitTopology = 3
	ExitRuntime  = 4
)

var exitCodes = map[ErrorCode]int{
	ErrCodeTopologyMismatch:    ExitTopology,
	ErrCodeInvalidTopology:     ExitTopology,
	ErrCodeUnknownTruncation:   ExitConfig,
	ErrCodeUnknownParameter:    ExitConfig,
	ErrCodeInvalidParameter:    ExitConfig,
	ErrCodeInvalidConfig:       ExitConfig,
	ErrCodeAlreadyMaterialized: ExitRuntime,
	ErrCodeElementUnavailable:  ExitStartup,
	ErrCodeLinkFailed:          ExitTopology,
	ErrCodeEngineStartup:       ExitStartup,
	ErrCodeEngineError:         ExitRuntime,
	ErrCodeCanceled:            ExitOK,
	ErrCodeInternal:            ExitRuntime,
}

// ExitCodeFor returns the process exit code for an error code.
func ExitCodeFor(code ErrorCode) int {
	if c, ok := exitCodes[code]; ok {
		return c
	}
	return ExitRuntime
}
