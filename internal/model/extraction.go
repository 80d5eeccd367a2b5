package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ValueKind tags the variant held by a Value
type ValueKind string

const (
	KindNull   ValueKind = "null"
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
	KindObject ValueKind = "object"
	KindList   ValueKind = "list"
)

// Value is one extracted field value as a tagged union, so validators
// can switch over kinds exhaustively instead of type-asserting through
// interface{} soup.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Obj  map[string]Value
	List []Value
}

// Null is the shared null value
var Null = Value{Kind: KindNull}

// ExtractionResult is the structured output of one extraction run,
// keyed by schema field names. It is read-only for every validator.
type ExtractionResult map[string]Value

// DecodeExtraction parses raw extraction JSON into typed values.
// The input must be a JSON object at top level.
func DecodeExtraction(raw []byte) (ExtractionResult, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}
	res := make(ExtractionResult, len(m))
	for k, v := range m {
		res[k] = fromInterface(v)
	}
	return res, nil
}

func fromInterface(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case string:
		return Value{Kind: KindString, Str: t}
	case float64:
		return Value{Kind: KindNumber, Num: t}
	case bool:
		return Value{Kind: KindBool, Bool: t}
	case map[string]interface{}:
		obj := make(map[string]Value, len(t))
		for k, e := range t {
			obj[k] = fromInterface(e)
		}
		return Value{Kind: KindObject, Obj: obj}
	case []interface{}:
		list := make([]Value, 0, len(t))
		for _, e := range t {
			list = append(list, fromInterface(e))
		}
		return Value{Kind: KindList, List: list}
	default:
		// json.Unmarshal into interface{} never yields anything else
		return Value{Kind: KindString, Str: fmt.Sprintf("%v", t)}
	}
}

// IsEmpty reports whether the value counts as empty for required-field
// checks: null, "", {} and [] are all empty.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.Str) == ""
	case KindObject:
		return len(v.Obj) == 0
	case KindList:
		return len(v.List) == 0
	default:
		return false
	}
}

// Interface converts the value back to its plain JSON representation
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindObject:
		obj := make(map[string]interface{}, len(v.Obj))
		for k, e := range v.Obj {
			obj[k] = e.Interface()
		}
		return obj
	case KindList:
		list := make([]interface{}, 0, len(v.List))
		for _, e := range v.List {
			list = append(list, e.Interface())
		}
		return list
	default:
		return nil
	}
}

// MarshalJSON renders the value as the plain JSON it was decoded from
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// String renders scalars for messages; composite kinds get a short tag
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindString:
		return v.Str
	case KindNumber:
		if v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < 1e15 {
			return fmt.Sprintf("%d", int64(v.Num))
		}
		return fmt.Sprintf("%g", v.Num)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindObject:
		return fmt.Sprintf("object(%d)", len(v.Obj))
	case KindList:
		return fmt.Sprintf("list(%d)", len(v.List))
	default:
		return ""
	}
}

// EquivalentTo compares two values with light normalization: strings
// are trimmed and lowercased, null and "" are interchangeable, numbers
// compare within a cent tolerance. Used by the cross-model check.
func (v Value) EquivalentTo(other Value) bool {
	if v.bothEmptyWith(other) {
		return true
	}
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return normalizeString(v.Str) == normalizeString(other.Str)
	case KindNumber:
		return math.Abs(v.Num-other.Num) <= 0.02
	case KindBool:
		return v.Bool == other.Bool
	case KindObject:
		if len(v.Obj) != len(other.Obj) {
			return false
		}
		for k, e := range v.Obj {
			o, ok := other.Obj[k]
			if !ok || !e.EquivalentTo(o) {
				return false
			}
		}
		return true
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i, e := range v.List {
			if !e.EquivalentTo(other.List[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v Value) bothEmptyWith(other Value) bool {
	scalarEmpty := func(x Value) bool {
		return x.Kind == KindNull || (x.Kind == KindString && strings.TrimSpace(x.Str) == "")
	}
	return scalarEmpty(v) && scalarEmpty(other)
}

func normalizeString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SortedKeys returns the field names in deterministic order
func (r ExtractionResult) SortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DocType returns the routing discriminator field ("typ"), lowercased
func (r ExtractionResult) DocType() string {
	v, ok := r["typ"]
	if !ok || v.Kind != KindString {
		return ""
	}
	return normalizeString(v.Str)
}
