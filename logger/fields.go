package logger

import "time"

// Common field keys.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldUserID    = "user_id"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// File manager field keys.
const (
	FieldBucket   = "bucket"
	FieldKey      = "key"
	FieldPrefix   = "prefix"
	FieldAction   = "action"
	FieldPath     = "path"
	FieldFromPath = "from_path"
	FieldToPath   = "to_path"
	FieldCount    = "count"
)

// Fields pairs up alternating keys and values. Non-string keys and a
// trailing odd value are dropped.
//
//	log.Info("copied", logger.Fields(logger.FieldKey, key, logger.FieldCount, n))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// DurationFields tags op with its elapsed milliseconds.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{FieldOperation: op, FieldDuration: d.Milliseconds()}
}
