package masking

import "strings"

const maskToken = "****"

// sensitiveKeys hold customer contact data and unit identifiers.
var sensitiveKeys = map[string]struct{}{
	"customer_name":    {},
	"customer_phone":   {},
	"customer_email":   {},
	"customer_address": {},
	"vin":              {},
	"serial_number":    {},
}

// MaskValue redacts a value while keeping its last four characters.
func MaskValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if at := strings.LastIndex(trimmed, "@"); at > 0 {
		return trimmed[:1] + maskToken + trimmed[at:]
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskSensitive returns a copy of input with values under sensitive keys
// masked, descending into nested maps and slices.
func MaskSensitive(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := sensitiveKeys[strings.ToLower(key)]; ok {
			masked[key] = maskAny(value)
			continue
		}
		masked[key] = descend(value)
	}
	if len(masked) == 0 {
		return nil
	}
	return masked
}

func maskAny(value any) any {
	switch cast := value.(type) {
	case string:
		return MaskValue(cast)
	case *string:
		if cast == nil {
			return nil
		}
		return MaskValue(*cast)
	default:
		return value
	}
}

func descend(value any) any {
	switch cast := value.(type) {
	case map[string]any:
		return MaskSensitive(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, descend(item))
		}
		return out
	default:
		return value
	}
}
