package router

import "strconv"

// Loose decoding helpers for socket payloads. The engine.io parser hands
// objects over as map[string]interface{} with float64 numbers; clients also
// send ids as strings.

func argString(args []interface{}, index int) string {
	if index >= len(args) {
		return ""
	}
	return asString(args[index])
}

func argMap(args []interface{}, index int) (map[string]interface{}, bool) {
	if index >= len(args) {
		return nil, false
	}
	payload, ok := args[index].(map[string]interface{})
	return payload, ok
}

func asString(value interface{}) string {
	s, _ := value.(string)
	return s
}

func asBool(value interface{}) bool {
	b, _ := value.(bool)
	return b
}

func asUint(value interface{}) uint {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0
		}
		return uint(v)
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0
		}
		return uint(parsed)
	case uint:
		return v
	case int:
		if v < 0 {
			return 0
		}
		return uint(v)
	}
	return 0
}

func asStringSlice(value interface{}) []string {
	raw, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
