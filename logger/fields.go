package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldRunID     = "run_id"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"

	FieldVariant = "variant"
	FieldPoint   = "point"
	FieldStage   = "stage"
	FieldKind    = "kind"
	FieldLane    = "lane"
	FieldPad     = "pad"
	FieldState   = "state"
	FieldEvent   = "event"
	FieldSource  = "source"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("linked", logger.Fields("from", "tee_0.src_0", "to", "queue_3.sink"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}

// StageFields creates fields describing a graph stage.
func StageFields(id, kind string, lane int) map[string]interface{} {
	m := map[string]interface{}{
		FieldStage: id,
		FieldKind:  kind,
	}
	if lane >= 0 {
		m[FieldLane] = lane
	}
	return m
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldError] = err.Error()
	return fields
}
