package source

import "testing"

func TestNormalizeCRLF(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		changed bool
	}{
		{"", "", false},
		{"plain\n", "plain\n", false},
		{"a\r\nb", "a\nb", true},
		{"a\rb", "a\rb", false},
		{"\r\n\r\n", "\n\n", true},
		{"tail\r", "tail\r", false},
	}
	for _, tt := range cases {
		got, changed := normalizeCRLF([]byte(tt.in))
		if string(got) != tt.want || changed != tt.changed {
			t.Fatalf("normalizeCRLF(%q) = %q, %v", tt.in, got, changed)
		}
	}
}

func TestRemoveBOM(t *testing.T) {
	got, had := removeBOM([]byte("\xEF\xBB\xBFx"))
	if string(got) != "x" || !had {
		t.Fatalf("removeBOM = %q, %v", got, had)
	}
	got, had = removeBOM([]byte("xy"))
	if string(got) != "xy" || had {
		t.Fatalf("removeBOM on short input = %q, %v", got, had)
	}
}

func TestNormalizeNFC(t *testing.T) {
	// "e" + combining acute should collapse to the precomposed form.
	got, changed := normalizeNFC([]byte("caf\x65\xcc\x81"))
	if !changed {
		t.Fatal("expected NFC normalization to fire")
	}
	if string(got) != "caf\xc3\xa9" {
		t.Fatalf("normalizeNFC = %q", got)
	}
	_, changed = normalizeNFC([]byte("plain"))
	if changed {
		t.Fatal("ASCII buffer should not change")
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath("a//b/../c"); got != "a/c" {
		t.Fatalf("normalizePath = %q", got)
	}
}
