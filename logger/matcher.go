package logger

// Rule is one matcher entry: an optional category glob and the minimum
// level it admits. An empty Category matches every category.
type Rule struct {
	Category string
	Level    Level
}

// Matches reports whether an event at (category, level) satisfies this
// rule: the category glob matches (or is empty) and level is at least
// Rule.Level. Because LevelOff sorts above every real level, a rule with
// Level: off never matches anything; Matcher.Match handles such a rule
// separately, as a drop for the categories it names (spec §4.5).
func (r Rule) Matches(category string, level Level) bool {
	if level < r.Level {
		return false
	}
	if r.Category == "" {
		return true
	}
	return globMatch(r.Category, category)
}

// Matcher is an ordered list of Rules; the first whose category and level
// admit the event wins, and an off rule whose category matches drops the
// event before any later rule is tried. An event matching no rule is
// dropped by this handler.
type Matcher struct {
	Rules []Rule
}

// Match reports whether this handler admits an event at (category, level).
func (m Matcher) Match(category string, level Level) bool {
	for _, r := range m.Rules {
		if r.Level == LevelOff && (r.Category == "" || globMatch(r.Category, category)) {
			return false
		}
		if r.Matches(category, level) {
			return true
		}
	}
	return false
}

// globMatch implements the spec's two-operator glob: '*' matches any run
// of characters (including none), '?' matches exactly one character, and
// ':' is an ordinary character (not a path-style separator). The pack's
// glob library (github.com/ryanuber/go-glob, pulled in via
// opentofu-opentofu) supports only '*', not the single-character '?' this
// DSL requires, so this small matcher is hand-written rather than adapted
// from it.
func globMatch(pattern, s string) bool {
	return globMatchRunes([]rune(pattern), []rune(s))
}

func globMatchRunes(pattern, s []rune) bool {
	if len(pattern) == 0 {
		return len(s) == 0
	}
	switch pattern[0] {
	case '*':
		if globMatchRunes(pattern[1:], s) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if globMatchRunes(pattern[1:], s[i+1:]) {
				return true
			}
		}
		return false
	case '?':
		if len(s) == 0 {
			return false
		}
		return globMatchRunes(pattern[1:], s[1:])
	default:
		if len(s) == 0 || s[0] != pattern[0] {
			return false
		}
		return globMatchRunes(pattern[1:], s[1:])
	}
}
