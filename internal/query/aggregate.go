package query

import (
	"github.com/curious-machines/typed-tables/internal/querylang"
	"github.com/curious-machines/typed-tables/internal/ttcore"
)

// foldAggregate computes one aggregate function over rows (each a
// map[string]any from instance.Schema.Load), per spec.md §4.9's
// count/sum/average/min/max projections. arg is nil for count().
func foldAggregate(fn string, arg querylang.Expr, rows []any) (any, error) {
	switch fn {
	case "count":
		return len(rows), nil

	case "sum", "average":
		if arg == nil {
			return nil, ttcore.NewQueryError("%s() requires an argument expression", fn)
		}

		var total float64

		for _, row := range rows {
			v, err := eval(arg, row)
			if err != nil {
				return nil, err
			}

			f, ok := toFloat64(v)
			if !ok {
				return nil, ttcore.NewQueryError("%s() requires a numeric argument", fn)
			}

			total += f
		}

		if fn == "sum" {
			return total, nil
		}

		if len(rows) == 0 {
			return 0.0, nil
		}

		return total / float64(len(rows)), nil

	case "min", "max":
		if arg == nil {
			return nil, ttcore.NewQueryError("%s() requires an argument expression", fn)
		}

		if len(rows) == 0 {
			return nil, nil
		}

		best, err := eval(arg, rows[0])
		if err != nil {
			return nil, err
		}

		for _, row := range rows[1:] {
			v, err := eval(arg, row)
			if err != nil {
				return nil, err
			}

			cmp, err := compareOrdered(v, best)
			if err != nil {
				return nil, err
			}

			if (fn == "min" && cmp < 0) || (fn == "max" && cmp > 0) {
				best = v
			}
		}

		return best, nil

	default:
		return nil, ttcore.NewQueryError("unknown aggregate function %q", fn)
	}
}
