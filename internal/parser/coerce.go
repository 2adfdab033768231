package parser

import "encoding/json"

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asNullableString(v any) *string {
	if v == nil {
		return nil
	}
	s := asString(v)
	return &s
}

// asInt coerces a JSON number to int64, truncating fractions. Non-numeric
// values are zero.
func asInt(v any) int64 {
	n, ok := v.(json.Number)
	if !ok {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return int64(f)
	}
	return 0
}

func asNullableInt(v any) *int64 {
	if v == nil {
		return nil
	}
	i := asInt(v)
	return &i
}

func asFloat(v any) float64 {
	n, ok := v.(json.Number)
	if !ok {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}

func asNullableFloat(v any) *float64 {
	if v == nil {
		return nil
	}
	f := asFloat(v)
	return &f
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asIntList(v any) []int {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = int(asInt(item))
	}
	return out
}
