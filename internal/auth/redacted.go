package auth

// RedactedKey wraps a raw API key to prevent accidental logging.
//
// The type implements fmt.Stringer to return "[REDACTED]" instead of the
// key value, so a key that ends up in a log message, error string, or debug
// dump renders harmlessly.
//
// Usage:
//
//	key := auth.NewRedactedKey("wb-key-value")
//	fmt.Println(key)       // prints: [REDACTED]
//	actual := key.Value()  // returns: "wb-key-value"
type RedactedKey struct {
	value string
}

// NewRedactedKey creates a new RedactedKey wrapping the given value.
func NewRedactedKey(value string) RedactedKey {
	return RedactedKey{value: value}
}

// Value returns the actual key value. Use this only when the key needs to
// be placed in an upstream request; never log the result.
func (k RedactedKey) Value() string {
	return k.value
}

// String implements fmt.Stringer, returning "[REDACTED]" to prevent
// accidental logging of the key value.
func (k RedactedKey) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (k RedactedKey) GoString() string {
	return "auth.RedactedKey{[REDACTED]}"
}

// IsEmpty returns true if the key value is empty.
func (k RedactedKey) IsEmpty() bool {
	return k.value == ""
}

// MarshalText implements encoding.TextMarshaler, returning "[REDACTED]"
// to prevent accidental serialization of the key value.
func (k RedactedKey) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// MarshalJSON implements json.Marshaler, returning "[REDACTED]" to prevent
// accidental JSON serialization of the key value.
func (k RedactedKey) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}
