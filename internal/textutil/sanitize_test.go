package textutil

import "testing"

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "acme-corp"},
		{"  ", "unknown"},
		{"Q3 / Renewal!", "q3-renewal"},
		{"already-safe_token", "already-safe_token"},
	}
	for _, tc := range cases {
		if got := SanitizeToken(tc.in); got != tc.want {
			t.Fatalf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	if got := NormalizeTitle("  Send Q3 report -- FINAL!!  "); got != "send q3 report final" {
		t.Fatalf("NormalizeTitle = %q", got)
	}
}

func TestTitlePrefixMatch(t *testing.T) {
	cases := []struct {
		a, b string
		min  int
		want bool
	}{
		{"Send Q3 report to Acme", "send q3 report (follow up)", 3, true},
		{"Send Q3 report", "Send Q4 report", 3, false},
		{"Ping legal", "Ping legal", 3, true},
		{"Ping legal", "Ping finance", 3, false},
		{"", "", 3, false},
	}
	for _, tc := range cases {
		if got := TitlePrefixMatch(tc.a, tc.b, tc.min); got != tc.want {
			t.Fatalf("TitlePrefixMatch(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("acme-corp"); got != "Acme Corp" {
		t.Fatalf("DisplayName = %q", got)
	}
}
