package schema

import "strconv"

// Decode validates and coerces a raw LLM response (already JSON-decoded
// into a generic map) against the compiled schema, returning a single map
// keyed by field name; the adjudicator splits it into exclusion and
// extraction results by each Field's Origin. Fields missing or failing to coerce fall back to
// the field's documented default, per spec §4.3's "coerce where safe,
// else default" contract.
func (cs *CompiledSchema) Decode(raw map[string]any) map[string]any {
	out := make(map[string]any, len(cs.Fields))
	for _, f := range cs.Fields {
		v, ok := raw[f.Name]
		if !ok {
			out[f.Name] = f.Default
			continue
		}
		coerced, ok := coerce(f.Kind, v)
		if !ok {
			out[f.Name] = f.Default
			continue
		}
		out[f.Name] = coerced
	}
	return out
}

func coerce(kind Kind, v any) (any, bool) {
	switch kind {
	case KindBoolean:
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, false
			}
			return parsed, true
		}
		return nil, false

	case KindInteger:
		switch n := v.(type) {
		case float64:
			return int(n), true
		case int:
			return n, true
		case string:
			parsed, err := strconv.Atoi(n)
			if err != nil {
				return nil, false
			}
			return parsed, true
		}
		return nil, false

	case KindNumber:
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case string:
			parsed, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, false
			}
			return parsed, true
		}
		return nil, false

	case KindList:
		switch l := v.(type) {
		case []any:
			out := make([]string, 0, len(l))
			for _, item := range l {
				s, ok := item.(string)
				if !ok {
					return nil, false
				}
				out = append(out, s)
			}
			return out, true
		case []string:
			return l, true
		}
		return nil, false

	default: // KindString
		if s, ok := v.(string); ok {
			return s, true
		}
		return nil, false
	}
}
