// Package record provides field accessors for the loosely-typed JSON
// records the Canvas API returns. JSON numbers arrive as float64.
package record

// String returns the string value for key, or "" when absent or not a string.
func String(m map[string]interface{}, key string) string {
	if val, exists := m[key]; exists {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// StringOr returns the string value for key, or fallback when absent or empty.
func StringOr(m map[string]interface{}, key, fallback string) string {
	if s := String(m, key); s != "" {
		return s
	}
	return fallback
}

// Int returns the numeric value for key as int64, or 0 when absent.
func Int(m map[string]interface{}, key string) int64 {
	return IntOr(m, key, 0)
}

// IntOr returns the numeric value for key as int64, or fallback when absent.
func IntOr(m map[string]interface{}, key string, fallback int64) int64 {
	if val, exists := m[key]; exists {
		switch v := val.(type) {
		case float64:
			return int64(v)
		case int:
			return int64(v)
		case int64:
			return v
		}
	}
	return fallback
}

// Float returns the numeric value for key, or 0 when absent.
func Float(m map[string]interface{}, key string) float64 {
	if val, exists := m[key]; exists {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return 0
}

// Bool returns the boolean value for key, or false when absent.
func Bool(m map[string]interface{}, key string) bool {
	if val, exists := m[key]; exists {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

// Has reports whether key is present with a non-null value.
func Has(m map[string]interface{}, key string) bool {
	val, exists := m[key]
	return exists && val != nil
}

// Map returns the object value for key, or nil.
func Map(m map[string]interface{}, key string) map[string]interface{} {
	if val, exists := m[key]; exists {
		if sub, ok := val.(map[string]interface{}); ok {
			return sub
		}
	}
	return nil
}

// Maps returns the array-of-objects value for key, skipping non-objects.
func Maps(m map[string]interface{}, key string) []map[string]interface{} {
	val, exists := m[key]
	if !exists {
		return nil
	}
	items, ok := val.([]interface{})
	if !ok {
		return nil
	}
	result := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if sub, ok := item.(map[string]interface{}); ok {
			result = append(result, sub)
		}
	}
	return result
}

// Strings returns the array-of-strings value for key, skipping non-strings.
func Strings(m map[string]interface{}, key string) []string {
	val, exists := m[key]
	if !exists {
		return nil
	}
	items, ok := val.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
