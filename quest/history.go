package quest

import "strings"

// Summary is the aggregate of a user's completed quests.
type Summary struct {
	CompletedTokens map[string]struct{}
	TotalCompleted  int
}

// Has reports whether a quest family token was completed before.
func (s Summary) Has(token string) bool {
	_, ok := s.CompletedTokens[token]
	return ok
}

// Aggregate collects the title tokens and count of every completed quest
// across the given sets.
func Aggregate(history []QuestSet) Summary {
	sum := Summary{CompletedTokens: make(map[string]struct{})}
	for _, set := range history {
		for _, q := range set.Quests {
			if !q.Completed {
				continue
			}
			sum.CompletedTokens[TitleToken(q.Title)] = struct{}{}
			sum.TotalCompleted++
		}
	}
	return sum
}

// TitleToken returns the first whitespace-delimited word of a title.
func TitleToken(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
