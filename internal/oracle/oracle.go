// Package oracle implements the per-target guessing engine: a Word holds
// a target split into Unicode extended grapheme clusters and a parallel
// "revealed so far" slice, and answers each guess with Hit/Miss/Solved.
package oracle

import (
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wordloop/hangman/internal/message"
)

// GuessResult classifies the outcome of a single guess.
type GuessResult int

const (
	Miss GuessResult = iota
	Hit
	Solved
)

// ChatColor maps a guess outcome to the chat color clients should use,
// per spec.md §3: Hit and Solved render green, Miss renders red.
func (r GuessResult) ChatColor() message.ChatColor {
	if r == Miss {
		return message.ColorRed
	}
	return message.ColorGreen
}

func graphemes(s string) []string {
	out := make([]string, 0, len(s))
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		out = append(out, gr.Str())
	}
	return out
}

// caserFor returns the case folder appropriate to a wordlist language.
// Turkish in particular needs this: ASCII strings.ToLower maps "I" to
// "i", but Turkish case-folds it to "ı" (dotless) while "İ" folds to "i" —
// getting this wrong breaks single-letter guesses against Turkish words.
func caserFor(lang message.GameLanguage) cases.Caser {
	switch lang {
	case message.LanguageTurkish:
		return cases.Lower(language.Turkish)
	case message.LanguageRussian:
		return cases.Lower(language.Russian)
	case message.LanguageFrench:
		return cases.Lower(language.French)
	case message.LanguageGerman:
		return cases.Lower(language.German)
	case message.LanguageSpanish:
		return cases.Lower(language.Spanish)
	default:
		return cases.Lower(language.English)
	}
}

// Word is the per-target oracle state: the target's graphemes and which
// positions have been revealed.
type Word struct {
	language message.GameLanguage
	caser    cases.Caser
	target   []string
	revealed []bool
}

// New builds a Word oracle for target in the given language. target must
// be non-empty.
func New(target string, lang message.GameLanguage) *Word {
	g := graphemes(target)
	return &Word{
		language: lang,
		caser:    caserFor(lang),
		target:   g,
		revealed: make([]bool, len(g)),
	}
}

// Target returns the original, unredacted target word.
func (w *Word) Target() string {
	return strings.Join(w.target, "")
}

// Render concatenates the current reveal state: the target's grapheme at
// each revealed position, "_" everywhere else.
func (w *Word) Render() string {
	var b strings.Builder
	for i, g := range w.target {
		if w.revealed[i] {
			b.WriteString(g)
		} else {
			b.WriteString("_")
		}
	}
	return b.String()
}

func (w *Word) allRevealed() bool {
	for _, r := range w.revealed {
		if !r {
			return false
		}
	}
	return true
}

func (w *Word) fold(g string) string {
	return w.caser.String(g)
}

// Guess classifies s against the target and updates reveal state.
//
// Whole-word guesses (case-insensitive) solve immediately. A single
// grapheme reveals every matching position (case-insensitive) and
// reports Hit, or Miss if it matches nowhere, or Solved if that reveal
// was the last one needed. Multi-grapheme guesses that aren't an exact
// whole-word match are always a Miss. An empty guess is a Miss.
func (w *Word) Guess(s string) GuessResult {
	g := graphemes(s)
	if len(g) == 0 {
		return Miss
	}

	if len(g) == len(w.target) && w.equalsTargetFolded(g) {
		for i := range w.revealed {
			w.revealed[i] = true
		}
		return Solved
	}

	if len(g) != 1 {
		return Miss
	}

	needle := w.fold(g[0])
	found := false
	for i, t := range w.target {
		if w.fold(t) == needle {
			w.revealed[i] = true
			found = true
		}
	}
	if !found {
		return Miss
	}
	if w.allRevealed() {
		return Solved
	}
	return Hit
}

func (w *Word) equalsTargetFolded(g []string) bool {
	for i, t := range w.target {
		if w.fold(t) != w.fold(g[i]) {
			return false
		}
	}
	return true
}

// UnknownCount reports how many slots remain unrevealed. Used by tests
// asserting the Hit/Miss/Solved monotonicity invariants from spec.md §8.
func (w *Word) UnknownCount() int {
	n := 0
	for _, r := range w.revealed {
		if !r {
			n++
		}
	}
	return n
}
