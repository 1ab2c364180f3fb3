package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	_ "time/tzdata"

	"github.com/mattn/go-runewidth"

	"press-transcripts/pkg/content"
	"press-transcripts/pkg/grammar"
)

func main() {
	var (
		maxTokens = flag.Int("n", 20, "Number of tokens to show (<=0 shows all)")
		width     = flag.Int("width", 100, "Truncate token text to this many columns")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("Usage: %s [-n tokens] [-width cols] <transcript.html>", os.Args[0])
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read document: %v", err)
	}

	doc, err := content.NewDocument(string(data))
	if err != nil {
		log.Fatalf("Failed to parse document: %v", err)
	}

	fmt.Printf("Title: %s\n", doc.PageTitle())
	if date, err := doc.Date(); err != nil {
		fmt.Printf("Date:  <%v>\n", err)
	} else {
		fmt.Printf("Date:  %s\n", date.Format("02.01.2006"))
	}

	topics := doc.Topics()
	fmt.Printf("Topics (%d):\n", len(topics))
	for _, t := range topics {
		fmt.Printf("  - %s\n", t)
	}

	body, err := doc.BodyText()
	if err != nil {
		log.Fatalf("Failed to extract body: %v", err)
	}

	result, err := grammar.Parse(body)
	if err != nil {
		log.Fatalf("Failed to parse transcript: %v", err)
	}

	if len(result.Roster) > 0 {
		fmt.Printf("Roster: %s\n", strings.Join(result.Roster, ", "))
	}

	shown := len(result.Tokens)
	if *maxTokens > 0 && *maxTokens < shown {
		shown = *maxTokens
	}
	fmt.Printf("\nFound %d tokens. Showing first %d:\n\n", len(result.Tokens), shown)

	for _, tok := range result.Tokens[:shown] {
		text := strings.ReplaceAll(tok.Text, "\n", " ")
		fmt.Printf("%7d  %s  %s\n",
			tok.Offset,
			runewidth.FillRight(tok.Kind.String(), 8),
			runewidth.Truncate(text, *width, "…"))
	}
}
