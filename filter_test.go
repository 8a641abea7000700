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

import "testing"

func TestSynthesizeFiltersSingleColumnAscending(t *testing.T) {
	key := SortKey{{Expression: "c.x", Direction: Asc}}
	got, err := SynthesizeFilters(key, []Value{NumberValue(5)})
	if err != nil {
		t.Fatalf("SynthesizeFilters: %v", err)
	}
	want := ResumeFilters{Left: "c.x > 5", Target: "true", Right: "c.x >= 5"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSynthesizeFiltersSingleColumnDescending(t *testing.T) {
	key := SortKey{{Expression: "c.x", Direction: Desc}}
	got, err := SynthesizeFilters(key, []Value{NumberValue(5)})
	if err != nil {
		t.Fatalf("SynthesizeFilters: %v", err)
	}
	want := ResumeFilters{Left: "c.x < 5", Target: "true", Right: "c.x <= 5"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestSynthesizeFiltersMultiColumn implements scenario S4: sort c.a ASC,
// c.b DESC, resume values ("A", 1).
func TestSynthesizeFiltersMultiColumn(t *testing.T) {
	key := SortKey{
		{Expression: "a", Direction: Asc},
		{Expression: "b", Direction: Desc},
	}
	values := []Value{StringValue("A"), NumberValue(1)}

	got, err := SynthesizeFilters(key, values)
	if err != nil {
		t.Fatalf("SynthesizeFilters: %v", err)
	}

	wantLeft := "a > 'A' OR (a = 'A' AND b < 1)"
	wantRight := "a > 'A' OR (a = 'A' AND b <= 1)"
	if got.Left != wantLeft {
		t.Errorf("left = %q, want %q", got.Left, wantLeft)
	}
	if got.Right != wantRight {
		t.Errorf("right = %q, want %q", got.Right, wantRight)
	}
	if got.Target != "true" {
		t.Errorf("target = %q, want true", got.Target)
	}
}

func TestSynthesizeFiltersArityMismatch(t *testing.T) {
	key := SortKey{{Expression: "a", Direction: Asc}}
	if _, err := SynthesizeFilters(key, []Value{NumberValue(1), NumberValue(2)}); err == nil {
		t.Fatal("expected error on arity mismatch")
	}
}
