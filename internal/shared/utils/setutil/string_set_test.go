package setutil

import (
	"testing"
)

// TestNewStringSet verifies that NewStringSet deduplicates its input.
func TestNewStringSet(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		wantLen int
	}{
		{"empty", nil, 0},
		{"distinct", []string{"a", "b", "c"}, 3},
		{"duplicates", []string{"a", "a", "b"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStringSet(tt.values...)
			if got := s.Len(); got != tt.wantLen {
				t.Errorf("Len() = %d, want %d", got, tt.wantLen)
			}
			for _, v := range tt.values {
				if !s.Has(v) {
					t.Errorf("Has(%q) = false, want true", v)
				}
			}
		})
	}
}

// TestDifference verifies set difference in both directions.
func TestDifference(t *testing.T) {
	source := NewStringSet("d1", "d2", "d3")
	target := NewStringSet("d2", "d4")

	got := source.Difference(target).Sorted()
	want := []string{"d1", "d3"}
	if len(got) != len(want) {
		t.Fatalf("Difference() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Difference()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if n := target.Difference(source).Len(); n != 1 {
		t.Errorf("reverse Difference().Len() = %d, want 1", n)
	}
	if n := source.Difference(nil).Len(); n != 3 {
		t.Errorf("Difference(nil).Len() = %d, want 3", n)
	}
}

// TestMissing verifies order preservation and deduplication.
func TestMissing(t *testing.T) {
	got := Missing([]string{"g3", "g1", "g3", "g2"}, []string{"g1"})
	want := []string{"g3", "g2"}
	if len(got) != len(want) {
		t.Fatalf("Missing() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Missing()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := Missing(nil, []string{"x"}); len(got) != 0 {
		t.Errorf("Missing(nil) = %v, want empty", got)
	}
}
