package utils

import "testing"

func TestT_Fallback(t *testing.T) {
	if got := T("fr", "health.ok"); got != "ok" {
		t.Fatalf("fallback to en failed: %s", got)
	}
}

func TestT_Russian(t *testing.T) {
	if got := T("ru", "health.ok"); got != "ок" {
		t.Fatalf("ru translation failed: %s", got)
	}
	if got := T("ru", "result.no_band"); got == "result.no_band" {
		t.Fatalf("missing ru key for result.no_band")
	}
}

func TestT_UnknownKeyReturnsKey(t *testing.T) {
	if got := T("en", "nope.missing"); got != "nope.missing" {
		t.Fatalf("unknown key handling: %s", got)
	}
}
