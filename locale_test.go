package deckforge

import (
	"testing"

	"golang.org/x/text/language"
)

func TestLexiconForResolution(t *testing.T) {
	tests := []struct {
		locale string
		want   language.Tag
	}{
		{"en", language.English},
		{"en-US", language.English},
		{"ja", language.Japanese},
		{"ja-JP", language.Japanese},
		{"", language.English},
		{"xx", language.English},
		{"not a tag", language.English},
	}
	for _, tt := range tests {
		if got := LexiconFor(tt.locale); got.Tag != tt.want {
			t.Errorf("LexiconFor(%q).Tag = %v, want %v", tt.locale, got.Tag, tt.want)
		}
	}
}

func TestBuiltinLexiconFamilies(t *testing.T) {
	for _, locale := range []string{"en", "ja"} {
		lex := LexiconFor(locale)
		checks := []struct {
			name string
			n    int
		}{
			{"situation", len(lex.Situation)},
			{"complication", len(lex.Complication)},
			{"resolution", len(lex.Resolution)},
			{"action verbs", len(lex.ActionVerbs)},
			{"implication markers", len(lex.ImplicationMarkers)},
			{"conclusion markers", len(lex.ConclusionMarkers)},
			{"priority keywords", len(lex.PriorityKeywords)},
			{"frameworks", len(lex.Frameworks)},
			{"stopwords", len(lex.Stopwords)},
		}
		for _, c := range checks {
			if c.n == 0 {
				t.Errorf("%s: %s family is empty", locale, c.name)
			}
		}
	}
}

func TestLexiconHasAny(t *testing.T) {
	lex := LexiconFor("en")
	if !lex.HasAny("Profits INCREASE rapidly", lex.ActionVerbs) {
		t.Error("HasAny should match case-insensitively")
	}
	if lex.HasAny("flat quarter", lex.ActionVerbs) {
		t.Error("HasAny matched an action verb in text that has none")
	}
}

func TestRegisterLexicon(t *testing.T) {
	if got := LexiconFor("de"); got.Tag != language.English {
		t.Fatalf("unregistered locale resolved to %v, want English fallback", got.Tag)
	}

	german := &Lexicon{
		Tag:                language.German,
		Situation:          []string{"aktuell", "markt"},
		Complication:       []string{"problem", "risiko"},
		Resolution:         []string{"empfehlung", "plan"},
		ActionVerbs:        []string{"steigern", "senken"},
		ImplicationMarkers: []string{"ermöglicht", "führt zu"},
		ConclusionMarkers:  []string{"fazit", "zusammenfassung"},
		PriorityKeywords:   []string{"priorität", "sofort"},
		Stopwords:          stopwordSet("der", "die", "das"),
	}
	RegisterLexicon(german)

	if got := LexiconFor("de"); got.Tag != language.German {
		t.Errorf("LexiconFor(de).Tag = %v, want German", got.Tag)
	}
	if got := LexiconFor("de-AT"); got.Tag != language.German {
		t.Errorf("LexiconFor(de-AT).Tag = %v, want German", got.Tag)
	}
	if got := LexiconFor("en"); got.Tag != language.English {
		t.Errorf("LexiconFor(en).Tag = %v after registering German", got.Tag)
	}
	if got := LexiconFor("ja"); got.Tag != language.Japanese {
		t.Errorf("LexiconFor(ja).Tag = %v after registering German", got.Tag)
	}

	replacement := *german
	replacement.ActionVerbs = []string{"verdoppeln"}
	RegisterLexicon(&replacement)
	got := LexiconFor("de")
	if len(got.ActionVerbs) != 1 || got.ActionVerbs[0] != "verdoppeln" {
		t.Errorf("re-registering a tag should replace its lexicon, got verbs %v", got.ActionVerbs)
	}
}
