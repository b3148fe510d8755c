// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package results

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/zclconf/go-cty/cty"
)

// Kind identifies the scalar type held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNumber
	KindInt
	KindString
	KindBool
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindNumber:  "number",
	KindInt:     "int",
	KindString:  "string",
	KindBool:    "bool",
}

func (k Kind) String() string {
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name && k != KindInvalid {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown value kind %q", name)
}

// Value is an immutable scalar. Numbers keep their exact float64 bits,
// including NaN, through every codec in this module.
type Value struct {
	kind Kind
	num  float64
	i    int64
	s    string
	b    bool
}

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Int(i int64) Value      { return Value{kind: KindInt, i: i} }
func String(s string) Value  { return Value{kind: KindString, s: s} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric value; ints are widened.
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.num
}

func (v Value) Int() int64   { return v.i }
func (v Value) Str() string  { return v.s }
func (v Value) Bool() bool   { return v.b }
func (v Value) IsNaN() bool  { return v.kind == KindNumber && math.IsNaN(v.num) }
func (v Value) IsZero() bool { return v.kind == KindInvalid }

// Equal compares kind and payload. Two NaN numbers with the same bits are equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return math.Float64bits(v.num) == math.Float64bits(other.num)
	case KindInt:
		return v.i == other.i
	case KindString:
		return v.s == other.s
	case KindBool:
		return v.b == other.b
	}
	return true
}

// Text renders the value losslessly. Parse(kind, Text()) yields an equal value.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

func (v Value) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	return v.Text()
}

// Parse decodes text produced by Value.Text.
func Parse(kind Kind, text string) (Value, error) {
	switch kind {
	case KindNumber:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", text, err)
		}
		return Number(f), nil
	case KindInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid int %q: %w", text, err)
		}
		return Int(i), nil
	case KindString:
		return String(text), nil
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("invalid bool %q: %w", text, err)
		}
		return Bool(b), nil
	}
	return Value{}, fmt.Errorf("cannot parse value of kind %s", kind)
}

// FromCty converts a known, non-null primitive cty value. Whole numbers that
// fit in an int64 become KindInt so that inputs such as `water = 1` are
// recorded as integers.
func FromCty(v cty.Value) (Value, error) {
	if v.IsNull() || !v.IsKnown() {
		return Value{}, fmt.Errorf("cannot record null or unknown value")
	}
	switch v.Type() {
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return Int(i), nil
			}
		}
		f, _ := bf.Float64()
		return Number(f), nil
	case cty.String:
		return String(v.AsString()), nil
	case cty.Bool:
		return Bool(v.True()), nil
	}
	return Value{}, fmt.Errorf("cannot record value of type %s", v.Type().FriendlyName())
}
