package logger

import "testing"

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"*", "anything", true},
		{"*", "", true},
		{"foo", "foo", true},
		{"foo", "foobar", false},
		{"foo*", "foobar", true},
		{"*bar", "foobar", true},
		{"fo?", "foo", true},
		{"fo?", "fo", false},
		{"fo?bar", "foxbar", true},
		{"ext.*", "ext.audio", true},
		{"ext.*", "extension", false},
	}
	for _, c := range cases {
		if got := globMatch(c.pattern, c.s); got != c.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", c.pattern, c.s, got, c.want)
		}
	}
}

func TestRuleMatchesRespectsLevel(t *testing.T) {
	r := Rule{Category: "", Level: LevelWarn}
	if r.Matches("anything", LevelInfo) {
		t.Fatal("info should not satisfy a warn-or-above rule")
	}
	if !r.Matches("anything", LevelError) {
		t.Fatal("error should satisfy a warn-or-above rule")
	}
}

func TestRuleLevelOffNeverMatches(t *testing.T) {
	r := Rule{Level: LevelOff}
	if r.Matches("x", LevelFatal) {
		t.Fatal("an off rule must never match, even at the highest level")
	}
}

func TestRuleCategoryGlob(t *testing.T) {
	r := Rule{Category: "ext.*", Level: LevelTrace}
	if !r.Matches("ext.audio", LevelTrace) {
		t.Fatal("expected ext.* to match ext.audio")
	}
	if r.Matches("engine", LevelTrace) {
		t.Fatal("did not expect ext.* to match engine")
	}
}

func TestMatcherFirstMatchWins(t *testing.T) {
	m := Matcher{Rules: []Rule{
		{Category: "noisy", Level: LevelOff},
		{Category: "", Level: LevelInfo},
	}}
	if m.Match("noisy", LevelFatal) {
		t.Fatal("expected the off rule for \"noisy\" to win over the catch-all")
	}
	if !m.Match("quiet", LevelInfo) {
		t.Fatal("expected the catch-all rule to admit an unrelated category")
	}
}

func TestMatcherNoRuleMatchesDrops(t *testing.T) {
	m := Matcher{Rules: []Rule{{Category: "only-this", Level: LevelTrace}}}
	if m.Match("something-else", LevelFatal) {
		t.Fatal("expected no rule to match an unrelated category")
	}
}
