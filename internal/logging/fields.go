package logging

import (
	"time"

	"go.uber.org/zap"
)

// String constructs a field with the given key and value.
func String(key, value string) zap.Field {
	return zap.String(key, value)
}

// Strings constructs a field with the given key and values.
func Strings(key string, values []string) zap.Field {
	return zap.Strings(key, values)
}

// Int constructs a field with the given key and value.
func Int(key string, value int) zap.Field {
	return zap.Int(key, value)
}

// Int64 constructs a field with the given key and value.
func Int64(key string, value int64) zap.Field {
	return zap.Int64(key, value)
}

// Uint64 constructs a field with the given key and value.
func Uint64(key string, value uint64) zap.Field {
	return zap.Uint64(key, value)
}

// Float64 constructs a field with the given key and value.
func Float64(key string, value float64) zap.Field {
	return zap.Float64(key, value)
}

// Bool constructs a field with the given key and value.
func Bool(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}

// Duration constructs a field with the given key and value.
func Duration(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

// Time constructs a field with the given key and value.
func Time(key string, value time.Time) zap.Field {
	return zap.Time(key, value)
}

// Error constructs a field that lazily stores err.Error() under the key "error".
func Error(err error) zap.Field {
	return zap.Error(err)
}

// Actor is the field used everywhere an actor identity is logged.
func Actor(actor string) zap.Field {
	return zap.String("actor", actor)
}

// Cell is the field used everywhere a grid index is logged.
func Cell(index int) zap.Field {
	return zap.Int("cell", index)
}
