package analytics

import (
	"reflect"
	"testing"
)

func TestCombinationsPairs(t *testing.T) {
	got := Combinations([]string{"A", "B", "C"}, 2)
	want := [][]string{
		{"A", "B"},
		{"A", "C"},
		{"B", "C"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Combinations([A B C], 2) = %v, want %v", got, want)
	}
}

func TestCombinationsDegenerateSizes(t *testing.T) {
	if got := Combinations([]string{"A", "B"}, 3); got != nil {
		t.Errorf("expected nil for k > len(items), got %v", got)
	}
	if got := Combinations([]string{"A", "B"}, 0); got != nil {
		t.Errorf("expected nil for k = 0, got %v", got)
	}
	if got := Combinations(nil, 1); got != nil {
		t.Errorf("expected nil for empty items, got %v", got)
	}
}

func TestCombinationsFullSize(t *testing.T) {
	got := Combinations([]string{"A", "B", "C"}, 3)
	if len(got) != 1 || !reflect.DeepEqual(got[0], []string{"A", "B", "C"}) {
		t.Errorf("Combinations with k = len(items) = %v, want single full subset", got)
	}
}

func TestCombinationsDeckScale(t *testing.T) {
	deck := []string{"A", "B", "C", "D", "E", "F", "G", "H"}

	// C(8,k) for k = 1..8
	wantCounts := []int{8, 28, 56, 70, 56, 28, 8, 1}
	for k := 1; k <= 8; k++ {
		got := Combinations(deck, k)
		if len(got) != wantCounts[k-1] {
			t.Errorf("Combinations(deck, %d) returned %d subsets, want %d", k, len(got), wantCounts[k-1])
		}
		seen := make(map[string]bool)
		for _, subset := range got {
			if len(subset) != k {
				t.Fatalf("subset %v has size %d, want %d", subset, len(subset), k)
			}
			key := ""
			for _, s := range subset {
				key += s
			}
			if seen[key] {
				t.Fatalf("duplicate subset %v for k=%d", subset, k)
			}
			seen[key] = true
		}
	}
}

func TestCombinationsDoesNotMutateInput(t *testing.T) {
	items := []string{"C", "A", "B"}
	Combinations(items, 2)
	if !reflect.DeepEqual(items, []string{"C", "A", "B"}) {
		t.Errorf("input mutated: %v", items)
	}
}

func TestCombinationsDuplicatePositions(t *testing.T) {
	// duplicate names are distinct positions
	got := Combinations([]string{"A", "A", "B"}, 2)
	if len(got) != 3 {
		t.Errorf("expected 3 subsets over duplicate positions, got %v", got)
	}
}
