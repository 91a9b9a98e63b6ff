package internal

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// attributeValuesEqual compares the before and after value of a watched
// attribute. Booleans are coerced from their mixed string/number forms, lists
// are compared on their serialized form after dropping falsy elements, and
// scalars compare numerically when both sides are numbers.
func attributeValuesEqual(before, after any) bool {
	if isBool(before) || isBool(after) {
		left, lok := coerceBool(before)
		right, rok := coerceBool(after)
		if lok && rok {
			return left == right
		}
	}

	if isList(before) || isList(after) {
		return normalizedList(before) == normalizedList(after)
	}

	left, right := scalarString(before), scalarString(after)
	if left == right {
		return true
	}
	ld, lerr := decimal.NewFromString(left)
	rd, rerr := decimal.NewFromString(right)
	if lerr == nil && rerr == nil {
		return ld.Equal(rd)
	}
	return false
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

// coerceBool accepts bools, 0/1 numbers and the usual string spellings.
func coerceBool(v any) (bool, bool) {
	switch value := v.(type) {
	case nil:
		return false, true
	case bool:
		return value, true
	case int:
		return value != 0, true
	case int64:
		return value != 0, true
	case float64:
		return value != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "on":
			return true, true
		case "", "0", "false", "no", "off":
			return false, true
		}
	}
	return false, false
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	kind := reflect.TypeOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

// normalizedList serializes the truthy elements of v, keeping their order.
// A scalar is treated as a one-element list.
func normalizedList(v any) string {
	items := make([]any, 0)
	if isList(v) {
		rv := reflect.ValueOf(v)
		for i := 0; i < rv.Len(); i++ {
			items = append(items, rv.Index(i).Interface())
		}
	} else if v != nil {
		items = append(items, v)
	}

	kept := make([]any, 0, len(items))
	for _, item := range items {
		if isFalsy(item) {
			continue
		}
		kept = append(kept, item)
	}

	encoded, err := json.Marshal(kept)
	if err != nil {
		return fmt.Sprint(kept)
	}
	return string(encoded)
}

func isFalsy(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case bool:
		return !value
	case string:
		return value == "" || value == "0"
	case int:
		return value == 0
	case int64:
		return value == 0
	case float64:
		return value == 0
	case decimal.Decimal:
		return value.IsZero()
	}
	return false
}

func scalarString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case decimal.Decimal:
		return value.String()
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}
