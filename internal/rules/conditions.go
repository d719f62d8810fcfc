package rules

import (
	"encoding/json"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

// EvaluateGroup evaluates a condition group against a flattened payload.
// A group with zero conditions always matches. AND groups require every
// condition, OR groups require at least one.
func EvaluateGroup(group domain.ConditionGroup, flat map[string]any, log *zap.Logger) bool {
	if len(group.Conditions) == 0 {
		return true
	}

	if strings.EqualFold(group.Logic, domain.LogicOr) {
		for _, cond := range group.Conditions {
			if evaluateCondition(cond, flat, log) {
				return true
			}
		}
		return false
	}

	for _, cond := range group.Conditions {
		if !evaluateCondition(cond, flat, log) {
			return false
		}
	}
	return true
}

func evaluateCondition(cond domain.Condition, flat map[string]any, log *zap.Logger) bool {
	actual, present := flat[cond.Field]

	switch cond.Operator {
	case domain.OpExists:
		return present && actual != nil
	case domain.OpNotExists:
		return !present || actual == nil
	}

	// Missing fields are falsy for every remaining operator.
	if !present || actual == nil {
		return false
	}

	switch cond.Operator {
	case domain.OpEquals:
		return valuesEqual(actual, cond.Value)
	case domain.OpNotEquals:
		return !valuesEqual(actual, cond.Value)
	case domain.OpGreaterThan:
		a, b, ok := bothNumbers(actual, cond.Value)
		return ok && a > b
	case domain.OpGreaterThanOrEqual:
		a, b, ok := bothNumbers(actual, cond.Value)
		return ok && a >= b
	case domain.OpLessThan:
		a, b, ok := bothNumbers(actual, cond.Value)
		return ok && a < b
	case domain.OpLessThanOrEqual:
		a, b, ok := bothNumbers(actual, cond.Value)
		return ok && a <= b
	case domain.OpContains:
		result, supported := contains(actual, cond.Value)
		return supported && result
	case domain.OpNotContains:
		// "does not contain" is vacuously true for non-containers, unlike
		// contains which fails closed.
		result, supported := contains(actual, cond.Value)
		if !supported {
			return true
		}
		return !result
	case domain.OpStartsWith:
		a, aok := actual.(string)
		b, bok := cond.Value.(string)
		return aok && bok && strings.HasPrefix(a, b)
	case domain.OpEndsWith:
		a, aok := actual.(string)
		b, bok := cond.Value.(string)
		return aok && bok && strings.HasSuffix(a, b)
	case domain.OpIn:
		expected, ok := toSlice(cond.Value)
		if !ok {
			return false
		}
		return sliceContains(expected, actual)
	case domain.OpNotIn:
		expected, ok := toSlice(cond.Value)
		if !ok {
			return false
		}
		return !sliceContains(expected, actual)
	default:
		log.Warn("Unknown condition operator, failing closed",
			zap.String("operator", cond.Operator),
			zap.String("field", cond.Field))
		return false
	}
}

// valuesEqual is a strict comparison, except that numeric values compare by
// value regardless of their Go representation (JSON decoding yields float64,
// hand-built rules may carry ints).
func valuesEqual(a, b any) bool {
	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	if aok && bok {
		return af == bf
	}
	if aok != bok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func bothNumbers(a, b any) (float64, float64, bool) {
	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	return af, bf, aok && bok
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// contains reports substring or array membership. The second return value
// is false when the actual value is neither a string nor an array.
func contains(actual, expected any) (bool, bool) {
	switch a := actual.(type) {
	case string:
		e, ok := expected.(string)
		if !ok {
			return false, true
		}
		return strings.Contains(a, e), true
	case []any:
		return sliceContains(a, expected), true
	}
	if slice, ok := toSlice(actual); ok {
		return sliceContains(slice, expected), true
	}
	return false, false
}

func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func sliceContains(slice []any, value any) bool {
	for _, item := range slice {
		if valuesEqual(item, value) {
			return true
		}
	}
	return false
}
