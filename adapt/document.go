package adapt

import (
	"strconv"
	"strings"
)

// deepCopy clones a raw document tree so pipeline stages never mutate the
// caller's input.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

func getMap(doc map[string]any, key string) (map[string]any, bool) {
	m, ok := doc[key].(map[string]any)
	return m, ok
}

func getSlice(doc map[string]any, key string) ([]any, bool) {
	s, ok := doc[key].([]any)
	return s, ok
}

func getString(doc map[string]any, key string) (string, bool) {
	s, ok := doc[key].(string)
	return s, ok
}

// lookupParent walks a JSON pointer and returns the container holding its
// final segment, so a fix can assign through it. Intermediate segments must
// be maps or slice indexes; the final segment is returned unresolved.
func lookupParent(doc map[string]any, pointer string) (container any, last string, ok bool) {
	segs := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	if len(segs) == 0 {
		return nil, "", false
	}
	var cur any = doc
	for _, seg := range segs[:len(segs)-1] {
		switch t := cur.(type) {
		case map[string]any:
			next, found := t[seg]
			if !found {
				return nil, "", false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(t) {
				return nil, "", false
			}
			cur = t[i]
		default:
			return nil, "", false
		}
	}
	return cur, segs[len(segs)-1], true
}

// setAtPointer assigns a value at a JSON pointer, creating nothing: every
// intermediate container must already exist.
func setAtPointer(doc map[string]any, pointer string, value any) bool {
	container, last, ok := lookupParent(doc, pointer)
	if !ok {
		return false
	}
	switch t := container.(type) {
	case map[string]any:
		t[last] = value
		return true
	case []any:
		i, err := strconv.Atoi(last)
		if err != nil || i < 0 || i >= len(t) {
			return false
		}
		t[i] = value
		return true
	default:
		return false
	}
}

// titleize turns a slug like "culver-city" into "Culver City". Used when a
// deterministic display name has to be invented from an id.
func titleize(slug string) string {
	fields := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, f := range fields {
		fields[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return strings.Join(fields, " ")
}
