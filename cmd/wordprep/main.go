/*
wordprep preprocesses raw frequency-ranked wordlist files into the
".pre.txt" form the hangman server samples from at runtime.

Running it ahead of time is optional — the server preprocesses any
language missing its ".pre.txt" sibling the first time it loads a
wordlists directory — but doing it once in a build step avoids paying
that cost on every server restart.

Usage:

	wordprep -dir ./wordlists [-lang english,french]
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/wordloop/hangman/internal/message"
	"github.com/wordloop/hangman/internal/wordsource"
)

func main() {
	log.SetFlags(0)

	dir := flag.String("dir", "wordlists", "directory containing raw wordlist files")
	langFlag := flag.String("lang", "", "comma-separated languages to preprocess (default: all supported languages)")
	flag.Parse()

	languages := message.AllLanguages()
	if *langFlag != "" {
		languages = nil
		for _, name := range strings.Split(*langFlag, ",") {
			languages = append(languages, message.GameLanguage(strings.TrimSpace(name)))
		}
	}

	for _, lang := range languages {
		rawPath, err := wordsource.RawPath(*dir, lang)
		if err != nil {
			log.Fatalf("%s: %v", lang, err)
		}

		words, err := wordsource.Preprocess(rawPath)
		if err != nil {
			log.Fatalf("preprocessing %s: %v", rawPath, err)
		}

		prePath := wordsource.PreprocessedName(rawPath)
		if err := wordsource.WritePreprocessed(prePath, words); err != nil {
			log.Fatalf("writing %s: %v", prePath, err)
		}

		fmt.Printf("%s: %d words -> %s\n", lang, len(words), prePath)
	}
}
