package narrative

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/kasuganosora/hikiquest/server/quest"
)

var (
	jsonFenceRe  = regexp.MustCompile("(?i)```json\\s*([\\s\\S]*?)\\s*```")
	anyFenceRe   = regexp.MustCompile("```\\s*([\\s\\S]*?)\\s*```")
	firstBraceRe = regexp.MustCompile(`\{[\s\S]*?\}`)
	nestedRe     = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
)

// Candidates returns the JSON-looking fragments of text in the order they
// should be tried: a ```json fence, a plain fence holding a quests object,
// the first brace span mentioning quests or stage, then every one-level
// nested object mentioning quests or stage.
func Candidates(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	mentions := func(s string) bool {
		return strings.Contains(s, `"quests"`) || strings.Contains(s, `"stage"`)
	}

	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		add(m[1])
	}
	if m := anyFenceRe.FindStringSubmatch(text); m != nil {
		c := strings.TrimSpace(m[1])
		if strings.HasPrefix(c, "{") && strings.Contains(c, `"quests"`) {
			add(c)
		}
	}
	if m := firstBraceRe.FindString(text); m != "" && mentions(m) {
		add(m)
	}
	for _, m := range nestedRe.FindAllString(text, -1) {
		if mentions(m) {
			add(m)
		}
	}
	return out
}

// text decodes a JSON string or number as a string.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string, got %s", b)
	}
	*t = text(n.String())
	return nil
}

type payloadQuest struct {
	Title               text `json:"title"`
	UnlockCondition     text `json:"unlock_condition"`
	CompletionCondition text `json:"completion_condition"`
	Reward              text `json:"reward"`
}

type payload struct {
	Name   text           `json:"name"`
	Stage  text           `json:"stage"`
	Quests []payloadQuest `json:"quests"`
}

// ParseDesign extracts and validates a quest design from free-form model
// output. It returns ErrNoPayload when no candidate exists and
// ErrInvalidPayload when none of the candidates passes validation.
func ParseDesign(output string) (quest.Design, error) {
	cands := Candidates(output)
	if len(cands) == 0 {
		return quest.Design{}, ErrNoPayload
	}
	var lastErr error
	for _, c := range cands {
		d, err := decodeCandidate(c)
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	return quest.Design{}, fmt.Errorf("%w: %v", ErrInvalidPayload, lastErr)
}

func decodeCandidate(c string) (quest.Design, error) {
	var p payload
	if err := json.Unmarshal([]byte(c), &p); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(c)
		if rerr != nil {
			return quest.Design{}, fmt.Errorf("decode: %w", err)
		}
		p = payload{}
		if err := json.Unmarshal([]byte(repaired), &p); err != nil {
			return quest.Design{}, fmt.Errorf("decode repaired: %w", err)
		}
	}
	return validate(p)
}

func validate(p payload) (quest.Design, error) {
	if len(p.Quests) < quest.QuestsPerSet {
		return quest.Design{}, fmt.Errorf("want %d quests, got %d", quest.QuestsPerSet, len(p.Quests))
	}
	out := make([]quest.Quest, 0, quest.QuestsPerSet)
	for i, q := range p.Quests[:quest.QuestsPerSet] {
		fields := []struct {
			name  string
			value text
		}{
			{"title", q.Title},
			{"unlock_condition", q.UnlockCondition},
			{"completion_condition", q.CompletionCondition},
			{"reward", q.Reward},
		}
		for _, f := range fields {
			if strings.TrimSpace(string(f.value)) == "" {
				return quest.Design{}, fmt.Errorf("quest %d: missing %s", i, f.name)
			}
		}
		out = append(out, quest.Quest{
			Title:               strings.TrimSpace(string(q.Title)),
			UnlockCondition:     strings.TrimSpace(string(q.UnlockCondition)),
			CompletionCondition: strings.TrimSpace(string(q.CompletionCondition)),
			Reward:              strings.TrimSpace(string(q.Reward)),
		})
	}
	return quest.Design{Stage: strings.TrimSpace(string(p.Stage)), Quests: out}, nil
}
