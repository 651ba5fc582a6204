package game

import (
	"fmt"
	"math"
)

// Flags are open-ended narrative markers. Values are bool, string or
// float64; other numeric kinds are normalised to float64 on Set so a JSON
// round trip loses nothing.
type Flags map[string]any

func NormalizeFlag(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case bool, string, float64, nil:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (f Flags) Set(name string, value any) {
	f[name] = NormalizeFlag(value)
}

func (f Flags) Bool(name string) bool {
	v, ok := f[name].(bool)
	return ok && v
}

func (f Flags) String(name string) string {
	switch v := f[name].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Equals compares a flag against an expected value, treating all numeric
// kinds alike.
func (f Flags) Equals(name string, want any) bool {
	got, ok := f[name]
	want = NormalizeFlag(want)
	if !ok {
		// an unset boolean reads as false
		if b, isBool := want.(bool); isBool {
			return !b
		}
		return want == nil
	}
	got = NormalizeFlag(got)
	if g, ok := got.(float64); ok {
		w, ok := want.(float64)
		return ok && math.Abs(g-w) < 1e-9
	}
	return got == want
}

// Matches reports whether every required flag holds.
func (f Flags) Matches(required map[string]any) bool {
	for name, want := range required {
		if !f.Equals(name, want) {
			return false
		}
	}
	return true
}

func (f Flags) Clone() Flags {
	out := make(Flags, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
