package document

import (
	"strconv"
	"strings"
)

// ValueType enumerates the scalar base types of the lattice format.
type ValueType int

const (
	TypeString ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeDate
)

// String returns the type's declaration token.
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeDate:
		return "date"
	default:
		return "unknown"
	}
}

// TypeSpec is a value's shape: a scalar base type, optionally lifted to an
// array of that base type.
type TypeSpec struct {
	Base  ValueType
	Array bool
}

// Token returns the declaration token for the spec ("int", "int[]", ...).
func (s TypeSpec) Token() string {
	if s.Array {
		return s.Base.String() + "[]"
	}
	return s.Base.String()
}

// scalarTokens maps recognized declared-type tokens to their base type.
var scalarTokens = map[string]ValueType{
	"string": TypeString,
	"int":    TypeInt,
	"float":  TypeFloat,
	"bool":   TypeBool,
	"date":   TypeDate,
}

// ParseTypeToken resolves a raw declared-type token to a TypeSpec. The
// second result is false for unrecognized tokens; the caller decides how to
// report that (the materializer records a diagnostic, the editor an error).
func ParseTypeToken(tok string) (TypeSpec, bool) {
	if base, ok := scalarTokens[strings.TrimSuffix(tok, "[]")]; ok {
		return TypeSpec{Base: base, Array: strings.HasSuffix(tok, "[]")}, true
	}
	return TypeSpec{}, false
}

// Element is one delimiter-bounded slot of an array value. An empty slot is
// missing-but-valid, not an error. Only the payload field matching the
// array's element type is meaningful.
type Element struct {
	Raw   string
	Empty bool
	Valid bool
	Str   string
	Int   int64
	Float float64
	Bool  bool
}

// Value is the closed typed-value variant. Raw always preserves the original
// literal text, including after a failed coercion collapsed the held type to
// string. Only the payload fields matching Spec are meaningful.
type Value struct {
	Spec     TypeSpec
	Raw      string
	Str      string
	Int      int64
	Float    float64
	Bool     bool
	Elements []Element
}

// StringValue wraps a literal as a plain string value. This is also the
// collapse target after a failed coercion.
func StringValue(raw string) Value {
	return Value{Spec: TypeSpec{Base: TypeString}, Raw: raw, Str: raw}
}

// Infer returns the scalar type suggested by the literal's shape: integer
// and decimal number patterns, the bool literals, everything else string.
// Dates are never inferred; they require a declaration.
func Infer(raw string) ValueType {
	if isIntLiteral(raw) {
		return TypeInt
	}
	if isFloatLiteral(raw) {
		return TypeFloat
	}
	if raw == "true" || raw == "false" {
		return TypeBool
	}
	return TypeString
}

func isIntLiteral(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isFloatLiteral(s string) bool {
	if s == "" || !strings.ContainsAny(s, ".eE") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// CoerceScalar attempts to interpret a literal as the given base type. On
// failure it reports false and the caller applies the collapse-to-string
// policy. Date literals are accepted verbatim; the format records dates but
// does not interpret them.
func CoerceScalar(raw string, base ValueType) (Value, bool) {
	v := Value{Spec: TypeSpec{Base: base}, Raw: raw}
	switch base {
	case TypeString, TypeDate:
		v.Str = raw
		return v, true
	case TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, false
		}
		v.Int = n
		return v, true
	case TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, false
		}
		v.Float = f
		return v, true
	case TypeBool:
		switch raw {
		case "true":
			v.Bool = true
		case "false":
			v.Bool = false
		default:
			return Value{}, false
		}
		return v, true
	default:
		return Value{}, false
	}
}

// InferScalar builds a value from a literal using shape inference.
func InferScalar(raw string) Value {
	v, _ := CoerceScalar(raw, Infer(raw))
	return v
}

// CoerceArray splits a literal on '|' and coerces each slot to the element
// type. Every slot is preserved: empty slots are marked Empty (valid), and
// slots that fail coercion keep their raw text with Valid false. The second
// result lists the zero-based indexes of the invalid slots.
func CoerceArray(raw string, elem ValueType) (Value, []int) {
	parts := strings.Split(raw, "|")
	v := Value{
		Spec:     TypeSpec{Base: elem, Array: true},
		Raw:      raw,
		Elements: make([]Element, 0, len(parts)),
	}
	var invalid []int
	for i, part := range parts {
		e := Element{Raw: part, Valid: true}
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			e.Empty = true
			v.Elements = append(v.Elements, e)
			continue
		}
		sv, ok := CoerceScalar(trimmed, elem)
		if !ok {
			e.Valid = false
			invalid = append(invalid, i)
			v.Elements = append(v.Elements, e)
			continue
		}
		e.Str, e.Int, e.Float, e.Bool = sv.Str, sv.Int, sv.Float, sv.Bool
		v.Elements = append(v.Elements, e)
	}
	return v, invalid
}
