package query

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/curious-machines/typed-tables/internal/codec"
	"github.com/curious-machines/typed-tables/internal/fieldpath"
	"github.com/curious-machines/typed-tables/internal/instance"
	"github.com/curious-machines/typed-tables/internal/querylang"
	"github.com/curious-machines/typed-tables/internal/ttcore"
	"github.com/curious-machines/typed-tables/internal/types"
)

// eval computes expr's value against row, which is either nil (a row-free
// context, e.g. a "create" field's value) or a map[string]any as produced
// by instance.Schema.Load(ref, true). Boolean-valued nodes (comparisons,
// "and"/"or"/"not", string predicates) return a bool; everything else
// returns whatever scalar/slice/map value the expression denotes.
func eval(expr querylang.Expr, row any) (any, error) {
	switch e := expr.(type) {
	case *querylang.Literal:
		return e.Value, nil

	case *querylang.TypedLiteral:
		prim, err := primitiveForSuffix(e.TypeName)
		if err != nil {
			return nil, err
		}

		// Encode-then-discard: this is purely a range/kind check against
		// the pinned width (e.g. "300u8" is rejected here, not silently
		// accepted as an untyped 300 and rejected later by some field's
		// unrelated codec.Encode call, or never rejected at all).
		if _, err := codec.Encode(e.Value, prim); err != nil {
			return nil, err
		}

		return e.Value, nil

	case *querylang.FieldRef:
		if row == nil {
			return nil, ttcore.NewQueryError("field %q has no row to resolve against here", joinPath(e.Path))
		}

		val, err := fieldpath.Resolve(row, e.Path)
		if err != nil {
			return nil, ttcore.NewQueryError("%s", err)
		}

		return val, nil

	case *querylang.BinaryExpr:
		return evalBinary(e, row)

	case *querylang.UnaryExpr:
		return evalUnary(e, row)

	case *querylang.StringPredicate:
		return evalStringPredicate(e, row)

	case *querylang.AggregateExpr:
		return nil, ttcore.NewQueryError("aggregate %s() is only valid in a select/sort expression", e.Func)

	default:
		return nil, ttcore.NewQueryError("unsupported expression")
	}
}

// primitiveForSuffix parses a typed-literal suffix ("u8", "i32", "f64")
// into the primitive it pins, independent of any registry: the suffix
// grammar is a closed kind letter ('u'/'i'/'f') plus one of spec.md
// §3.1's fixed widths, the same set schemalang.RegisterBuiltins defines.
func primitiveForSuffix(suffix string) (types.Primitive, error) {
	if len(suffix) < 2 {
		return types.Primitive{}, ttcore.NewQueryError("invalid type suffix %q", suffix)
	}

	bits, err := strconv.Atoi(suffix[1:])
	if err != nil {
		return types.Primitive{}, ttcore.NewQueryError("invalid type suffix %q", suffix)
	}

	switch suffix[0] {
	case 'u':
		prim, err := types.NewUint(uint(bits))
		if err != nil {
			return types.Primitive{}, ttcore.NewQueryError("invalid type suffix %q: %s", suffix, err)
		}

		return prim, nil

	case 'i':
		prim, err := types.NewInt(uint(bits))
		if err != nil {
			return types.Primitive{}, ttcore.NewQueryError("invalid type suffix %q: %s", suffix, err)
		}

		return prim, nil

	case 'f':
		prim, err := types.NewFloat(uint(bits))
		if err != nil {
			return types.Primitive{}, ttcore.NewQueryError("invalid type suffix %q: %s", suffix, err)
		}

		return prim, nil

	default:
		return types.Primitive{}, ttcore.NewQueryError("unsupported type suffix %q", suffix)
	}
}

func evalBinary(e *querylang.BinaryExpr, row any) (any, error) {
	if e.Op == "and" || e.Op == "or" {
		left, err := evalBool(e.Left, row)
		if err != nil {
			return nil, err
		}

		if e.Op == "and" && !left {
			return false, nil
		}

		if e.Op == "or" && left {
			return true, nil
		}

		return evalBool(e.Right, row)
	}

	left, err := eval(e.Left, row)
	if err != nil {
		return nil, err
	}

	right, err := eval(e.Right, row)
	if err != nil {
		return nil, err
	}

	if e.Op == "=" {
		return valuesEqual(left, right), nil
	}

	if e.Op == "!=" {
		return !valuesEqual(left, right), nil
	}

	cmp, err := compareOrdered(left, right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return nil, ttcore.NewQueryError("unsupported comparison operator %q", e.Op)
	}
}

func evalUnary(e *querylang.UnaryExpr, row any) (any, error) {
	if e.Op != "not" {
		return nil, ttcore.NewQueryError("unsupported unary operator %q", e.Op)
	}

	v, err := evalBool(e.Operand, row)
	if err != nil {
		return nil, err
	}

	return !v, nil
}

func evalStringPredicate(e *querylang.StringPredicate, row any) (any, error) {
	targetVal, err := eval(e.Target, row)
	if err != nil {
		return nil, err
	}

	patternVal, err := eval(e.Pattern, row)
	if err != nil {
		return nil, err
	}

	target, ok := toString(targetVal)
	if !ok {
		return nil, ttcore.NewQueryError("%q predicate requires a string target", e.Op)
	}

	pattern, ok := toString(patternVal)
	if !ok {
		return nil, ttcore.NewQueryError("%q predicate requires a string pattern", e.Op)
	}

	// Per spec.md §4.9: string predicates operate on the sequence of
	// characters, not bytes.
	targetRunes := []rune(target)
	patternRunes := []rune(pattern)

	switch e.Op {
	case "starts with":
		return hasRunePrefix(targetRunes, patternRunes), nil
	case "ends with":
		return hasRuneSuffix(targetRunes, patternRunes), nil
	case "contains":
		return containsRunes(targetRunes, patternRunes), nil
	case "matches":
		return matchesPattern(target, pattern)
	default:
		return nil, ttcore.NewQueryError("unsupported string predicate %q", e.Op)
	}
}

func hasRunePrefix(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}

	for i, r := range prefix {
		if s[i] != r {
			return false
		}
	}

	return true
}

func hasRuneSuffix(s, suffix []rune) bool {
	if len(suffix) > len(s) {
		return false
	}

	offset := len(s) - len(suffix)

	for i, r := range suffix {
		if s[offset+i] != r {
			return false
		}
	}

	return true
}

func containsRunes(s, sub []rune) bool {
	if len(sub) == 0 {
		return true
	}

	for start := 0; start+len(sub) <= len(s); start++ {
		if hasRunePrefix(s[start:], sub) {
			return true
		}
	}

	return false
}

// evalBool evaluates expr and requires the result to already be (or
// cleanly coerce to) a bool — the shape every "where" clause and boolean
// combinator operand must produce.
func evalBool(expr querylang.Expr, row any) (bool, error) {
	v, err := eval(expr, row)
	if err != nil {
		return false, err
	}

	b, ok := v.(bool)
	if !ok {
		return false, ttcore.NewQueryError("expression did not evaluate to a boolean")
	}

	return b, nil
}

// groupKey normalises a value into a string suitable for grouping rows
// with logically equal keys together, regardless of their Go
// representation (*big.Int, float64, string, instance.EnumValue, ...).
func groupKey(v any) string {
	switch x := v.(type) {
	case string:
		return "s:" + x
	case instance.EnumValue:
		return "e:" + x.Variant
	case *big.Int:
		return "n:" + x.String()
	case float64:
		return "n:" + strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return "n:" + strconv.FormatFloat(float64(x), 'g', -1, 32)
	case bool:
		return "b:" + strconv.FormatBool(x)
	default:
		return "v:" + fmt.Sprintf("%v", x)
	}
}

func joinPath(path []string) string {
	out := ""

	for i, p := range path {
		if i > 0 {
			out += "."
		}

		out += p
	}

	return out
}
