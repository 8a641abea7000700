/*
Copyright 2025 The Antfly Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package xpartition implements the cross-partition ORDER BY execution
// stage of a distributed document database client: a k-way merge across
// per-partition cursors, continuation-token encoding, resume-filter
// synthesis, and mid-query partition-split handling.
package xpartition

import (
	"cmp"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind discriminates the shape of a Value, fixing the cross-type
// precedence Undefined < Null < Bool < Number < String < Array < Object.
type ValueKind int

const (
	KindUndefined ValueKind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a discriminated document field value produced by the server and
// carried opaquely through the merger. The comparator (CompareValues) never
// fails; values of differing kinds always resolve by type precedence.
type Value struct {
	Kind   ValueKind
	Bool   bool
	Number float64
	String string
	Array  []Value
	Object map[string]Value
}

// Undefined is the zero Value and the lowest element of the total order.
var Undefined = Value{Kind: KindUndefined}

// Null is the Value representing a JSON null.
var Null = Value{Kind: KindNull}

// BoolValue wraps a bool as a Value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NumberValue wraps a float64 as a Value. NaN is never produced by a
// conformant server and is not handled specially here.
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Number: n} }

// StringValue wraps a string as a Value.
func StringValue(s string) Value { return Value{Kind: KindString, String: s} }

// ArrayValue wraps a slice of Values as a Value.
func ArrayValue(vs []Value) Value { return Value{Kind: KindArray, Array: vs} }

// ObjectValue wraps a field map as a Value.
func ObjectValue(m map[string]Value) Value { return Value{Kind: KindObject, Object: m} }

// CompareValues returns -1, 0, or 1 comparing a and b under the database's
// total cross-type order. It never fails: values of differing kinds are
// ordered by type precedence (Undefined < Null < Bool < Number < String <
// Array < Object); values of the same kind fall back to type precedence
// only if no finer-grained rule applies (there always is one, so this is
// unreachable for any currently-defined Kind).
func CompareValues(a, b Value) int {
	if a.Kind != b.Kind {
		return cmp.Compare(a.Kind, b.Kind)
	}
	switch a.Kind {
	case KindUndefined, KindNull:
		return 0
	case KindBool:
		return cmp.Compare(boolRank(a.Bool), boolRank(b.Bool))
	case KindNumber:
		return cmp.Compare(a.Number, b.Number)
	case KindString:
		return strings.Compare(a.String, b.String)
	case KindArray:
		return compareArrays(a.Array, b.Array)
	case KindObject:
		return compareObjects(a.Object, b.Object)
	default:
		return cmp.Compare(a.Kind, b.Kind)
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// compareArrays compares element-wise; on a common prefix the shorter
// array sorts first.
func compareArrays(a, b []Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := CompareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// compareObjects compares element-wise on sorted keys: first by key name,
// then by value, with shorter-is-smaller on a common prefix of keys.
func compareObjects(a, b map[string]Value) int {
	ak := sortedKeys(a)
	bk := sortedKeys(b)
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := strings.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := CompareValues(a[ak[i]], b[bk[i]]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(ak), len(bk))
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortDirection is one element of a query's ORDER BY clause direction.
type SortDirection int

const (
	Asc SortDirection = iota
	Desc
)

// DirectedCompare compares a and b under CompareValues, flipping the sign
// for a Desc column so that the result is always "a's rank minus b's rank"
// in the column's own emission order.
func DirectedCompare(dir SortDirection, a, b Value) int {
	c := CompareValues(a, b)
	if dir == Desc {
		return -c
	}
	return c
}

// SQLLiteral renders v using the database's SQL literal grammar: numbers
// unquoted, strings single-quoted with escaping, null/bool as keywords,
// and composite kinds recursively.
func SQLLiteral(v Value) string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case KindString:
		return "'" + strings.ReplaceAll(v.String, "'", "''") + "'"
	case KindArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = SQLLiteral(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		keys := sortedKeys(v.Object)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q: %s", k, SQLLiteral(v.Object[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "undefined"
	}
}
