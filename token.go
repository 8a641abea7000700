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

package xpartition

import (
	"fmt"

	"github.com/antflydb/xpartition-go/internal/wire"
)

// ResumeKey is the per-partition continuation captured at the moment the
// merge stopped drawing from that partition's cursor. Range records the
// partition interval the key was captured against, so a later resume can
// detect that the partition has since split (see MapPartitions).
type ResumeKey struct {
	SortValues  []Value
	RID         RID
	SkipCount   uint32
	ServerToken string
	Range       Range
}

// MergeToken is the global continuation: a non-empty ordered array of
// resume keys. The first element identifies the target partition (the one
// most recently drawn from); the rest carry server tokens for the other
// live partitions.
type MergeToken []ResumeKey

// Target returns the resume key for the partition the client was last
// drawing from. Callers must not call this on an empty token.
func (t MergeToken) Target() ResumeKey { return t[0] }

// wireValue mirrors Value for JSON round-tripping without exposing the
// internal float64/[]Value/map[string]Value union directly as field names.
type wireValue struct {
	Kind   ValueKind            `json:"kind"`
	Bool   bool                 `json:"bool,omitempty"`
	Number float64              `json:"number,omitempty"`
	String string               `json:"string,omitempty"`
	Array  []wireValue          `json:"array,omitempty"`
	Object map[string]wireValue `json:"object,omitempty"`
}

func toWireValue(v Value) wireValue {
	w := wireValue{Kind: v.Kind, Bool: v.Bool, Number: v.Number, String: v.String}
	if v.Array != nil {
		w.Array = make([]wireValue, len(v.Array))
		for i, e := range v.Array {
			w.Array[i] = toWireValue(e)
		}
	}
	if v.Object != nil {
		w.Object = make(map[string]wireValue, len(v.Object))
		for k, e := range v.Object {
			w.Object[k] = toWireValue(e)
		}
	}
	return w
}

func fromWireValue(w wireValue) Value {
	v := Value{Kind: w.Kind, Bool: w.Bool, Number: w.Number, String: w.String}
	if w.Array != nil {
		v.Array = make([]Value, len(w.Array))
		for i, e := range w.Array {
			v.Array[i] = fromWireValue(e)
		}
	}
	if w.Object != nil {
		v.Object = make(map[string]Value, len(w.Object))
		for k, e := range w.Object {
			v.Object[k] = fromWireValue(e)
		}
	}
	return v
}

type wireRange struct {
	ID           string `json:"id"`
	MinInclusive string `json:"min"`
	MaxExclusive string `json:"max"`
}

type wireResumeKey struct {
	SortValues  []wireValue `json:"sort_values"`
	RID         string      `json:"rid"`
	SkipCount   uint32      `json:"skip_count"`
	ServerToken string      `json:"server_token,omitempty"`
	Range       wireRange   `json:"range"`
}

// MarshalMergeToken serializes t as the JSON array continuation token. The
// first element is always the target; the order of the rest is
// unobservable to callers.
func MarshalMergeToken(t MergeToken) ([]byte, error) {
	out := make([]wireResumeKey, len(t))
	for i, rk := range t {
		values := make([]wireValue, len(rk.SortValues))
		for j, v := range rk.SortValues {
			values[j] = toWireValue(v)
		}
		out[i] = wireResumeKey{
			SortValues:  values,
			RID:         string(rk.RID),
			SkipCount:   rk.SkipCount,
			ServerToken: rk.ServerToken,
			Range: wireRange{
				ID:           rk.Range.ID,
				MinInclusive: rk.Range.MinInclusive,
				MaxExclusive: rk.Range.MaxExclusive,
			},
		}
	}
	return wire.Marshal(out)
}

// ParseMergeToken parses the JSON array continuation token, validating each
// element's sort_values arity against sortKeyArity and each RID's shape.
// Returns a MalformedContinuation error on any violation; the stage must
// not issue network traffic before this succeeds.
func ParseMergeToken(data []byte, sortKeyArity int) (MergeToken, error) {
	var raw []wireResumeKey
	if err := wire.Unmarshal(data, &raw); err != nil {
		return nil, newMalformed(fmt.Errorf("%w: %v", ErrTokenNotArray, err), "")
	}
	if len(raw) == 0 {
		return nil, newMalformed(ErrTokenNotArray, "empty array")
	}

	token := make(MergeToken, len(raw))
	for i, rk := range raw {
		if len(rk.SortValues) != sortKeyArity {
			return nil, newMalformed(ErrSortKeyArityMismatch,
				fmt.Sprintf("element %d: got %d values, want %d", i, len(rk.SortValues), sortKeyArity))
		}
		if _, err := RID(rk.RID).Parse(); err != nil {
			return nil, newMalformed(ErrMalformedRID, fmt.Sprintf("element %d: rid %q", i, rk.RID))
		}
		values := make([]Value, len(rk.SortValues))
		for j, v := range rk.SortValues {
			values[j] = fromWireValue(v)
		}
		token[i] = ResumeKey{
			SortValues:  values,
			RID:         RID(rk.RID),
			SkipCount:   rk.SkipCount,
			ServerToken: rk.ServerToken,
			Range: Range{
				ID:           rk.Range.ID,
				MinInclusive: rk.Range.MinInclusive,
				MaxExclusive: rk.Range.MaxExclusive,
			},
		}
	}
	return token, nil
}
