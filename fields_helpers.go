package hyperrotate

import (
	"time"
)

// Str creates a Field with a string value.
func Str(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a Field with a boolean value.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Int creates a Field with an int value.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Uint64 creates a Field with an uint64 value.
func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a Field with a time.Duration value.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err creates the conventional "error" field. Nil errors produce a nil value.
func Err(err error) Field {
	var val any
	if err != nil {
		val = err
	}

	return Field{Key: "error", Value: val}
}

// Path creates the conventional "path" field.
func Path(value string) Field {
	return Field{Key: "path", Value: value}
}
