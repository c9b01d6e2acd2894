package tgui

import "testing"

func TestDataSplitData(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ns, action, payload string
		want                string
	}{
		{"menfes", "approve", "17", "menfes:approve:17"},
		{"menfes", "help", "", "menfes:help"},
		{"menfes", "x", "a:b", "menfes:x:a:b"},
	}
	for _, tc := range cases {
		got := Data(tc.ns, tc.action, tc.payload)
		if got != tc.want {
			t.Fatalf("Data(%q,%q,%q) = %q, want %q", tc.ns, tc.action, tc.payload, got, tc.want)
		}
		ns, action, payload := SplitData(got)
		if ns != tc.ns || action != tc.action || payload != tc.payload {
			t.Fatalf("SplitData(%q) = %q,%q,%q", got, ns, action, payload)
		}
	}
}

func TestTruncRunes(t *testing.T) {
	t.Parallel()

	if got := TruncRunes("hello", 10); got != "hello" {
		t.Fatalf("no-op trunc = %q", got)
	}
	if got := TruncRunes("héllo wörld", 5); got != "héllo…" {
		t.Fatalf("trunc = %q", got)
	}
	if got := TruncRunes("abc", 0); got != "" {
		t.Fatalf("zero trunc = %q", got)
	}
}

func TestEscAndWrap(t *testing.T) {
	t.Parallel()

	if got := B("<x>"); got != "<b>&lt;x&gt;</b>" {
		t.Fatalf("B = %q", got)
	}
	if got := JoinH("\n", B("a"), "", I("b")); got != "<b>a</b>\n<i>b</i>" {
		t.Fatalf("JoinH = %q", got)
	}
}
