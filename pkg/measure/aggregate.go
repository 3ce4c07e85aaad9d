package measure

// Max returns the largest numeric value. The result is an Int when every
// input is an Int and a Float as soon as one input is a Float. Non-numeric
// values are ignored; ok is false when no numeric value is present.
func Max(values []Value) (Value, bool) {
	return reduce(values, func(acc, next float64) float64 {
		if next > acc {
			return next
		}

		return acc
	}, func(acc, next int64) int64 {
		if next > acc {
			return next
		}

		return acc
	})
}

// Sum adds all numeric values with the same kind rules as Max.
func Sum(values []Value) (Value, bool) {
	return reduce(values, func(acc, next float64) float64 {
		return acc + next
	}, func(acc, next int64) int64 {
		return acc + next
	})
}

func reduce(
	values []Value,
	floatOp func(acc, next float64) float64,
	intOp func(acc, next int64) int64,
) (Value, bool) {
	numeric := make([]Value, 0, len(values))
	allInt := true

	for _, v := range values {
		if !v.IsNumeric() {
			continue
		}

		if v.kind == KindFloat {
			allInt = false
		}

		numeric = append(numeric, v)
	}

	if len(numeric) == 0 {
		return Value{}, false
	}

	if allInt {
		acc := numeric[0].i
		for _, v := range numeric[1:] {
			acc = intOp(acc, v.i)
		}

		return Int(acc), true
	}

	acc, _ := numeric[0].Float64()

	for _, v := range numeric[1:] {
		next, _ := v.Float64()
		acc = floatOp(acc, next)
	}

	return Float(acc), true
}
