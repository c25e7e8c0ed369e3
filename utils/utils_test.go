package utils

import "testing"

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("short text must pass through, got %q", got)
	}
	got := Truncate("0123456789abcdef", 10)
	if len([]rune(got)) != 10 {
		t.Fatalf("expected 10 runes, got %d in %q", len([]rune(got)), got)
	}
	if got := Truncate("", 5); got != "" {
		t.Fatalf("empty in, empty out, got %q", got)
	}
	if got := Truncate("non-empty", 0); got != "" {
		t.Fatalf("non-positive maxLen yields empty, got %q", got)
	}
	if got := Truncate("non-empty", -3); got != "" {
		t.Fatalf("negative maxLen yields empty, got %q", got)
	}
}

func TestPathEscape(t *testing.T) {
	if got := PathEscape("dune part two"); got != "dune%20part%20two" {
		t.Fatalf("PathEscape must use %%20 for spaces, got %q", got)
	}
	if got := QueryEscape("dune part two"); got != "dune+part+two" {
		t.Fatalf("QueryEscape keeps + for query strings, got %q", got)
	}
}

func TestFormatCount(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{999, "999"},
		{1200, "1.2k"},
		{1500000, "1.5M"},
		{0, "0"},
	}
	for _, c := range cases {
		if got := FormatCount(c.n); got != c.want {
			t.Fatalf("FormatCount(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestExtractDomain(t *testing.T) {
	if got := ExtractDomain("https://www.variety.com/article"); got != "variety.com" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractDomain("not a url"); got != "Website" {
		t.Fatalf("unparseable URLs get the generic label, got %q", got)
	}
}

func TestFormatISODuration(t *testing.T) {
	cases := []struct {
		iso  string
		want string
	}{
		{"PT1H2M10S", "1:02:10"},
		{"PT4M13S", "4:13"},
		{"PT45S", "0:45"},
		{"", ""},
	}
	for _, c := range cases {
		if got := FormatISODuration(c.iso); got != c.want {
			t.Fatalf("FormatISODuration(%q) = %q, want %q", c.iso, got, c.want)
		}
	}
}
