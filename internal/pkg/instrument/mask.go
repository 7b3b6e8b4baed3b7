package instrument

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/lo"
)

// Redacted replaces masked values in logs.
const Redacted = "***"

// Masker redacts values whose key matches a configured field name, case-insensitively.
type Masker struct {
	keys map[string]struct{}
}

// NewMasker builds a Masker from field names such as "password", "otp", "authorization".
func NewMasker(fields []string) Masker {
	names := lo.Compact(lo.Map(fields, func(f string, _ int) string {
		return strings.ToLower(strings.TrimSpace(f))
	}))
	return Masker{keys: lo.SliceToMap(names, func(n string) (string, struct{}) { return n, struct{}{} })}
}

// Empty reports whether no field is masked.
func (m Masker) Empty() bool { return len(m.keys) == 0 }

// Hit reports whether key is masked.
func (m Masker) Hit(key string) bool {
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

// Value walks decoded JSON (maps and slices) and redacts masked keys.
func (m Masker) Value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if m.Hit(k) {
				out[k] = Redacted
				continue
			}
			out[k] = m.Value(inner)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = lo.Ternary[any](m.Hit(k), Redacted, inner)
		}
		return out
	case []any:
		return lo.Map(val, func(inner any, _ int) any { return m.Value(inner) })
	default:
		return v
	}
}

// JSON decodes b and masks it. ok is false when b is not JSON.
func (m Masker) JSON(b []byte) (any, bool) {
	if len(b) == 0 {
		return nil, false
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, false
	}
	return m.Value(doc), true
}

// Headers returns a copy of h with masked headers redacted.
func (m Masker) Headers(h http.Header) http.Header {
	if m.Empty() {
		return h
	}
	out := h.Clone()
	for k := range out {
		if m.Hit(k) {
			out.Set(k, Redacted)
		}
	}
	return out
}

// Attr redacts a log attribute by key, then descends into groups and
// JSON-shaped payloads.
func (m Masker) Attr(a slog.Attr) slog.Attr {
	if m.Hit(a.Key) {
		return slog.String(a.Key, Redacted)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		a.Value = slog.GroupValue(lo.Map(group, func(ga slog.Attr, _ int) slog.Attr { return m.Attr(ga) })...)
	case slog.KindString:
		s := a.Value.String()
		if s != "" && (s[0] == '{' || s[0] == '[') {
			if doc, ok := m.JSON([]byte(s)); ok {
				if b, err := json.Marshal(doc); err == nil {
					a.Value = slog.StringValue(string(b))
				}
			}
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, map[string]string, []any:
			a.Value = slog.AnyValue(m.Value(v))
		case []byte:
			if doc, ok := m.JSON(v); ok {
				if b, err := json.Marshal(doc); err == nil {
					a.Value = slog.StringValue(string(b))
				}
			}
		}
	}
	return a
}
