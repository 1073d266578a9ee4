package lang

import (
	"slices"

	"golang.org/x/text/language"
)

type Language struct {
	Label string
	Code  string
}

// catalog is kept in display order.
var catalog = []Language{
	{Label: "English", Code: "en"},
	{Label: "हिन्दी (Hindi)", Code: "hi"},
	{Label: "తెలుగు (Telugu)", Code: "te"},
	{Label: "தமிழ் (Tamil)", Code: "ta"},
	{Label: "ಕನ್ನಡ (Kannada)", Code: "kn"},
	{Label: "മലയാളം (Malayalam)", Code: "ml"},
}

const (
	DefaultSpeaker1 = "en"
	DefaultSpeaker2 = "hi"
)

// List returns a copy of the catalog in display order.
func List() []Language {
	return slices.Clone(catalog)
}

func IsSupported(code string) bool {
	return index(code) >= 0
}

// Label returns the display label for code, or code itself when unknown.
func Label(code string) string {
	if i := index(code); i >= 0 {
		return catalog[i].Label
	}
	return code
}

// Next returns the catalog entry after code, wrapping around. Unknown codes
// yield the first entry.
func Next(code string) string {
	i := index(code)
	return catalog[(i+1)%len(catalog)].Code
}

// Prev returns the catalog entry before code, wrapping around.
func Prev(code string) string {
	i := index(code)
	if i <= 0 {
		return catalog[len(catalog)-1].Code
	}
	return catalog[i-1].Code
}

// Tag parses code as a BCP 47 tag, or returns language.Und.
func Tag(code string) language.Tag {
	t, err := language.Parse(code)
	if err != nil {
		return language.Und
	}
	return t
}

func index(code string) int {
	return slices.IndexFunc(catalog, func(l Language) bool { return l.Code == code })
}
