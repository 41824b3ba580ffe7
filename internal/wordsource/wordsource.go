// Package wordsource preprocesses frequency-ranked wordlist files into a
// sampling-ready form and serves random draws by (language, difficulty).
//
// Preprocessing happens once, either ahead of time via the wordprep tool
// (cmd/wordprep) or lazily the first time a language is loaded; sampling
// afterward never touches the raw frequency file again.
package wordsource

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wordloop/hangman/internal/message"
)

// ErrLanguageNotPreprocessed is returned by Sample when asked for a
// language the Source never successfully loaded.
var ErrLanguageNotPreprocessed = errors.New("wordsource: language not preprocessed")

// wordlistFile maps a language to its raw frequency-list filename, as
// shipped by the wordfreq-style corpora the original tool targeted.
var wordlistFile = map[message.GameLanguage]string{
	message.LanguageEnglish: "eng-com_web-public_2018_1M-words.txt",
	message.LanguageSpanish: "spa_web_2016_1M-words.txt",
	message.LanguageFrench:  "fra_mixed_2009_1M-words.txt",
	message.LanguageGerman:  "deu-de_web_2021_1M-words.txt",
	message.LanguageRussian: "rus-ru_web-public_2019_1M-words.txt",
	message.LanguageTurkish: "tur-tr_web_2019_1M-words.txt",
}

// PreprocessedName returns the sibling file a raw wordlist's preprocessing
// pass is expected to produce, e.g. "foo-words.txt" -> "foo-words.pre.txt".
func PreprocessedName(raw string) string {
	return strings.TrimSuffix(raw, filepath.Ext(raw)) + ".pre.txt"
}

// RawPath and PreprocessedPath resolve a language's wordlist paths under
// a wordlists directory.
func RawPath(dir string, lang message.GameLanguage) (string, error) {
	name, ok := wordlistFile[lang]
	if !ok {
		return "", fmt.Errorf("wordsource: no wordlist mapping for language %q", lang)
	}
	return filepath.Join(dir, name), nil
}

func PreprocessedPath(dir string, lang message.GameLanguage) (string, error) {
	raw, err := RawPath(dir, lang)
	if err != nil {
		return "", err
	}
	return PreprocessedName(raw), nil
}

// Preprocess reads a raw frequency file (lines of "id\tword\toccurrences")
// and returns the eligible words, most-frequent first: drop the first 100
// ids (common punctuation/stop tokens), then keep words with at least 100
// occurrences, no digits, and no embedded special-token substring. This
// is the same pipeline the original wordlists-preprocessor tool used and
// must stay stable across runs since difficulty quarters are defined over
// its output order.
func Preprocess(rawPath string) ([]string, error) {
	f, err := os.Open(rawPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var specialTokens []string
	var words []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		word := fields[1]
		occurrences, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}

		if id <= 100 {
			specialTokens = append(specialTokens, word)
			continue
		}
		if occurrences < 100 {
			continue
		}
		if strings.ContainsAny(word, "0123456789") {
			continue
		}
		if containsAny(word, specialTokens) {
			continue
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

func containsAny(word string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(word, t) {
			return true
		}
	}
	return false
}

// WritePreprocessed writes words, one per line, to path. Used by
// cmd/wordprep to emit the ".pre.txt" sibling of a raw wordlist.
func WritePreprocessed(path string, words []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, word := range words {
		if _, err := w.WriteString(word); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

func readPreprocessed(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			words = append(words, line)
		}
	}
	return words, scanner.Err()
}

// Source serves random word draws by (language, difficulty) from an
// in-memory copy of each language's preprocessed wordlist. It is
// read-only after Load and safe for concurrent use.
type Source struct {
	words map[message.GameLanguage][]string
}

// Load preprocesses (or reads an already-preprocessed sibling of) every
// requested language's wordlist under dir and returns a ready Source.
// Any I/O error is returned so callers can treat it as fatal at startup,
// per spec.md §7: a failed read of the ".pre.txt" file is returned as is,
// while preprocessing and write failures are wrapped with the file path.
func Load(dir string, languages []message.GameLanguage) (*Source, error) {
	src := &Source{words: make(map[message.GameLanguage][]string, len(languages))}
	for _, lang := range languages {
		rawPath, err := RawPath(dir, lang)
		if err != nil {
			return nil, err
		}
		prePath := PreprocessedName(rawPath)

		words, err := readPreprocessed(prePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			words, err = Preprocess(rawPath)
			if err != nil {
				return nil, fmt.Errorf("preprocessing %s: %w", rawPath, err)
			}
			if err := WritePreprocessed(prePath, words); err != nil {
				return nil, fmt.Errorf("writing %s: %w", prePath, err)
			}
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("wordsource: %s produced zero eligible words", rawPath)
		}
		src.words[lang] = words
	}
	return src, nil
}

// quarterBounds returns the [start, end) line range a difficulty spans
// over n preprocessed words, ordered easy (most frequent) to insane
// (least frequent).
func quarterBounds(difficulty message.Difficulty, n int) (int, int, bool) {
	quarters := message.RankedDifficulties()
	frac := n / len(quarters)
	for k, d := range quarters {
		if d == difficulty {
			start := k * frac
			end := start + frac
			return start, end, true
		}
	}
	return 0, 0, false
}

// Sample draws one word for (language, difficulty). Random draws
// uniformly over the whole preprocessed list; Easy/Medium/Hard/Insane
// each draw uniformly within their contiguous quarter.
func (s *Source) Sample(lang message.GameLanguage, difficulty message.Difficulty) (string, error) {
	words, ok := s.words[lang]
	if !ok {
		return "", ErrLanguageNotPreprocessed
	}

	n := len(words)
	if difficulty == message.DifficultyRandom {
		return words[rand.IntN(n)], nil
	}

	start, end, ok := quarterBounds(difficulty, n)
	if !ok || end <= start {
		return words[rand.IntN(n)], nil
	}
	return words[start+rand.IntN(end-start)], nil
}

// Count reports the preprocessed word count for a language, or false if
// it was never loaded.
func (s *Source) Count(lang message.GameLanguage) (int, bool) {
	words, ok := s.words[lang]
	return len(words), ok
}
