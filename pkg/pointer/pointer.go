package pointer

// Uint64 returns a pointer to the provided uint64 value
func Uint64(value uint64) *uint64 {
	return &value
}

// Uint64OrDefault returns the pointed to value if not nil, otherwise the
// default value
func Uint64OrDefault(value *uint64, defaultValue uint64) uint64 {
	if value != nil {
		return *value
	}
	return defaultValue
}

// Uint64Copy returns a pointer that's a copy of the provided value
func Uint64Copy(value *uint64) *uint64 {
	if value == nil {
		return nil
	}

	return Uint64(*value)
}
