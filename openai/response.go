package openai

import (
	"encoding/json"
	"regexp"
	"strings"

	"commitmsg/llmerr"
)

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Models sometimes wrap the message in a markdown code block despite the
// instructions; unwrap it when the whole candidate is one fenced block.
var fencedBlock = regexp.MustCompile("(?s)^```(?:\\w+)?\\s*(.+?)\\s*```$")

// A single trailing period is dropped only when it follows a word
// character, so "fix bug." loses the dot but "..." stays intact.
var trailingPeriod = regexp.MustCompile(`(\w)\.$`)

// ExtractCandidates parses a successful response body into sanitized,
// deduplicated commit-message candidates. Choices without content are
// dropped rather than kept as empty candidates; a parseable body with zero
// usable choices yields an empty, non-error result.
func ExtractCandidates(body string) ([]string, error) {
	var out chatResp
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, llmerr.Malformed("response body is not valid chat-completion JSON", err)
	}

	seen := make(map[string]bool, len(out.Choices))
	candidates := make([]string, 0, len(out.Choices))
	for _, choice := range out.Choices {
		if choice.Message.Content == "" {
			continue
		}
		msg := Sanitize(unwrapFence(choice.Message.Content))
		if msg == "" || seen[msg] {
			continue
		}
		seen[msg] = true
		candidates = append(candidates, msg)
	}
	return candidates, nil
}

// Sanitize normalizes one candidate: trims surrounding whitespace, removes
// newline characters, and drops a single trailing period after a word
// character.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return trailingPeriod.ReplaceAllString(s, "$1")
}

func unwrapFence(s string) string {
	m := fencedBlock.FindStringSubmatch(strings.TrimSpace(s))
	if len(m) == 2 {
		return m[1]
	}
	return s
}
