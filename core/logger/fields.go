package logger

import "strings"

const (
	// LevelDebug represents the debug severity level name.
	LevelDebug = "DEBUG"
	// LevelInfo represents the info severity level name.
	LevelInfo = "INFO"
	// LevelWarn represents the warning severity level name.
	LevelWarn = "WARN"
	// LevelError represents the error severity level name.
	LevelError = "ERROR"
)

// enumField restricts a field to a closed set of values. Unknown values are
// kept verbatim when keepUnknown is set and dropped otherwise.
type enumField struct {
	values      map[string]string
	keepUnknown bool
}

var enumFields = map[string]enumField{
	"status": {
		values:      setOf("ok", "fail", "skip", "retry", "rate_limited", "cancelled", "error"),
		keepUnknown: true,
	},
	"outcome": {
		values: setOf("ok", "fail", "cancelled", "rate_limited", "rejected", "not_found", "empty"),
	},
	"state": {
		values: setOf("idle", "awaiting_product_fields", "awaiting_broadcast_text", "awaiting_field_edit"),
	},
}

func setOf(values ...string) map[string]string {
	m := make(map[string]string, len(values))
	for _, v := range values {
		m[v] = v
	}
	return m
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return strings.ToUpper(level)
}

// normalizeEnum returns the canonical value and whether the field should be kept.
func normalizeEnum(key, value string) (string, bool) {
	spec, ok := enumFields[key]
	if !ok {
		return value, true
	}
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", false
	}
	if mapped, ok := spec.values[v]; ok {
		return mapped, true
	}
	return v, spec.keepUnknown
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"op",
	"cb_key",
	"action",
	"state",
	"outcome",
	"duration_ms",
	"product_id",
	"order_id",
	"category",
	"field",
	"quantity",
	"total",
	"items",
	"count",
	"sent",
	"failed",
	"payment_id",
	"username",
	"mode",
	"listen",
	"public_url",
	"http_code",
	"db",
	"host",
	"port",
	"version",
	"err",
	"err_code",
	"retryable",
	"attempts",
	"backoff_ms",
	"rate_limited",
	"collapsed",
	"repeats",
}
