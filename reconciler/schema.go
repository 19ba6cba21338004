package reconciler

import (
	"strconv"
	"strings"

	"github.com/vintari/cskeeper/gateway"
)

// Comparison declares how a field's desired and current values are
// compared during diffing. The API returns strings for numbers in some
// responses, so numeric fields must not be compared textually.
type Comparison int

const (
	CompareExact Comparison = iota
	CompareFold             // case-insensitive string
	CompareNumeric
	CompareBool
)

// Schema maps mutable attribute names (API field names) to their
// comparison semantics. Natural-key fields never appear in a schema.
type Schema map[string]Comparison

// Changed reports whether any desired field differs from the current
// resource. Fields absent from the desired set mean "don't care"; fields
// the platform does not report cannot be diffed and are skipped.
func (s Schema) Changed(want gateway.Params, current gateway.Response) bool {
	for field, cmp := range s {
		desired, ok := want[field]
		if !ok || desired == "" {
			continue
		}
		if !current.Has(field) {
			continue
		}
		if differs(cmp, desired, current.Str(field)) {
			return true
		}
	}
	return false
}

func differs(cmp Comparison, desired, current string) bool {
	switch cmp {
	case CompareFold:
		return !strings.EqualFold(desired, current)
	case CompareNumeric:
		d, derr := strconv.ParseFloat(desired, 64)
		c, cerr := strconv.ParseFloat(current, 64)
		if derr == nil && cerr == nil {
			return d != c
		}
		return desired != current
	case CompareBool:
		d, derr := strconv.ParseBool(desired)
		c, cerr := strconv.ParseBool(current)
		if derr == nil && cerr == nil {
			return d != c
		}
		return desired != current
	default:
		return desired != current
	}
}
