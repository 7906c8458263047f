package source

import "testing"

func TestSpanBasics(t *testing.T) {
	s := Span{File: 1, Start: 4, End: 10}
	if s.Empty() {
		t.Fatalf("span %v reported empty", s)
	}
	if got := s.Len(); got != 6 {
		t.Fatalf("Len() = %d, want 6", got)
	}
	if got := s.String(); got != "1:4-10" {
		t.Fatalf("String() = %q", got)
	}
	if !(Span{File: 1, Start: 3, End: 3}).Empty() {
		t.Fatal("zero-length span not reported empty")
	}
}

func TestSpanContains(t *testing.T) {
	outer := Span{File: 0, Start: 2, End: 20}
	tests := []struct {
		name  string
		inner Span
		want  bool
	}{
		{"strictly inside", Span{File: 0, Start: 5, End: 10}, true},
		{"same span", outer, true},
		{"touching start", Span{File: 0, Start: 2, End: 3}, true},
		{"touching end", Span{File: 0, Start: 19, End: 20}, true},
		{"past end", Span{File: 0, Start: 15, End: 21}, false},
		{"before start", Span{File: 0, Start: 1, End: 5}, false},
		{"other file", Span{File: 1, Start: 5, End: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outer.Contains(tt.inner); got != tt.want {
				t.Fatalf("Contains(%v) = %v, want %v", tt.inner, got, tt.want)
			}
		})
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 0, Start: 5, End: 10}
	b := Span{File: 0, Start: 2, End: 7}
	got := a.Cover(b)
	if got.Start != 2 || got.End != 10 {
		t.Fatalf("Cover = %v", got)
	}
	// Different file: unchanged.
	c := Span{File: 1, Start: 0, End: 100}
	if got := a.Cover(c); got != a {
		t.Fatalf("cross-file Cover = %v", got)
	}
}

func TestSpanOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{"disjoint", Span{0, 0, 4}, Span{0, 4, 8}, false},
		{"overlapping", Span{0, 0, 5}, Span{0, 4, 8}, true},
		{"nested", Span{0, 0, 10}, Span{0, 3, 4}, true},
		{"two empty", Span{0, 3, 3}, Span{0, 3, 3}, false},
		{"empty inside", Span{0, 3, 3}, Span{0, 0, 10}, true},
		{"empty at boundary", Span{0, 10, 10}, Span{0, 0, 10}, false},
		{"other file", Span{0, 0, 5}, Span{1, 0, 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Fatalf("Overlaps not symmetric for %v, %v", tt.a, tt.b)
			}
		})
	}
}
