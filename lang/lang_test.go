package lang

import (
	"testing"

	"golang.org/x/text/language"
)

func TestListOrderAndCopy(t *testing.T) {
	got := List()
	want := []string{"en", "hi", "te", "ta", "kn", "ml"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, code := range want {
		if got[i].Code != code {
			t.Errorf("List()[%d].Code = %q, want %q", i, got[i].Code, code)
		}
	}

	got[0].Code = "xx"
	if List()[0].Code != "en" {
		t.Error("mutating List() result changed the catalog")
	}
}

func TestIsSupported(t *testing.T) {
	for _, tt := range []struct {
		code string
		want bool
	}{
		{"en", true},
		{"ml", true},
		{"fr", false},
		{"", false},
		{"EN", false},
	} {
		t.Run(tt.code, func(t *testing.T) {
			if got := IsSupported(tt.code); got != tt.want {
				t.Errorf("IsSupported(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestDefaultsDiffer(t *testing.T) {
	if DefaultSpeaker1 == DefaultSpeaker2 {
		t.Fatal("default languages must differ")
	}
	if !IsSupported(DefaultSpeaker1) || !IsSupported(DefaultSpeaker2) {
		t.Fatal("defaults must be in the catalog")
	}
}

func TestCodesAreValidTags(t *testing.T) {
	for _, l := range List() {
		if Tag(l.Code) == language.Und {
			t.Errorf("%q is not a valid BCP 47 tag", l.Code)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := Label("hi"); got != "हिन्दी (Hindi)" {
		t.Errorf("Label(hi) = %q", got)
	}
	if got := Label("zz"); got != "zz" {
		t.Errorf("Label(zz) = %q, want zz", got)
	}
}

func TestNextPrevWrap(t *testing.T) {
	if got := Next("ml"); got != "en" {
		t.Errorf("Next(ml) = %q, want en", got)
	}
	if got := Prev("en"); got != "ml" {
		t.Errorf("Prev(en) = %q, want ml", got)
	}
	for _, l := range List() {
		if got := Prev(Next(l.Code)); got != l.Code {
			t.Errorf("Prev(Next(%q)) = %q", l.Code, got)
		}
	}
}
