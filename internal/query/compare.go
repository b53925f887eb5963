package query

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/curious-machines/typed-tables/internal/instance"
	"github.com/curious-machines/typed-tables/internal/ttcore"
)

// toFloat64 coerces a scalar value (as produced by instance.Schema.Load
// or a querylang.Literal) to a float64 for numeric comparison/folding.
func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case *big.Int:
		f := new(big.Float).SetInt(x)
		result, _ := f.Float64()

		return result, true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}

		return 0, true
	default:
		return 0, false
	}
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case rune:
		return string(x), true
	case instance.EnumValue:
		// Enum values order lexicographically by variant name rather than
		// by declared tag order: comparison has no access to the owning
		// Enum definition here, only the decoded value.
		return x.Variant, true
	default:
		return "", false
	}
}

// compareOrdered reports -1/0/1 comparing a to b, or an error if the
// pair is not comparable (mismatched kinds).
func compareOrdered(a, b any) (int, error) {
	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}

	if as, aok := toString(a); aok {
		if bs, bok := toString(b); bok {
			return strings.Compare(as, bs), nil
		}
	}

	return 0, ttcore.NewQueryError("values %v and %v are not comparable", a, b)
}

// valuesEqual reports whether a and b are the logically equal value,
// comparing across numeric/string/bool representations.
func valuesEqual(a, b any) bool {
	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			return af == bf
		}
	}

	if as, aok := toString(a); aok {
		if bs, bok := toString(b); bok {
			return as == bs
		}
	}

	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// matchesPattern implements the "matches" string predicate: the pattern
// is anchored at both ends (a full match), per spec.
func matchesPattern(target, pattern string) (bool, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return false, ttcore.NewQueryError("invalid regex %q: %s", pattern, err)
	}

	return re.MatchString(target), nil
}
