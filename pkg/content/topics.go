package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var topicMarker = regexp.MustCompile(`^Themen:?`)

// ParseTopics turns a topics block into a list of topics.
//
// Lines are stripped of bullets and empty lines are dropped. The leading "Themen:" marker
// is removed from the first line. A single remaining line is treated as a comma separated
// list whose fragments get an upper-case first letter; otherwise every line is one topic.
func ParseTopics(text string) []string {
	var topics []string
	for _, line := range strings.Split(text, "\n") {
		if t := CleanText(strings.ReplaceAll(line, "•", "")); t != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		return nil
	}

	topics[0] = strings.TrimSpace(topicMarker.ReplaceAllString(topics[0], ""))
	if topics[0] == "" {
		topics = topics[1:]
	}

	if len(topics) == 1 {
		var out []string
		for _, part := range strings.Split(topics[0], ", ") {
			if t := upperFirst(part); t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	return topics
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
