package quest

import (
	"errors"
	"time"
)

// QuestsPerSet is the number of quests every generation run produces.
const QuestsPerSet = 3

var (
	// ErrNotFound is returned when a profile, quest set or quest does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyCompleted is returned when completing a quest twice.
	ErrAlreadyCompleted = errors.New("quest already completed")
	// ErrCompletionReversal is returned when asked to un-complete a quest.
	ErrCompletionReversal = errors.New("quest completion cannot be reversed")
)

// Quest is a single recommended micro-task.
type Quest struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	UnlockCondition     string     `json:"unlock_condition"`
	CompletionCondition string     `json:"completion_condition"`
	Reward              string     `json:"reward"`
	Completed           bool       `json:"completed"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
}

// QuestSet is one generation run owned by an account.
type QuestSet struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	UserName  string    `json:"userName"`
	Stage     Stage     `json:"stage"`
	Source    string    `json:"source"`
	Quests    []Quest   `json:"quests"`
	CreatedAt time.Time `json:"createdAt"`
}

// Generation sources recorded on a QuestSet.
const (
	SourceNarrative = "narrative"
	SourceFallback  = "fallback"
)

// Clone returns a deep copy of q.
func (q Quest) Clone() Quest {
	cp := q
	if q.CompletedAt != nil {
		t := *q.CompletedAt
		cp.CompletedAt = &t
	}
	return cp
}

// CloneQuests deep-copies a quest slice.
func CloneQuests(in []Quest) []Quest {
	out := make([]Quest, len(in))
	for i, q := range in {
		out[i] = q.Clone()
	}
	return out
}

// Clone returns a deep copy of s.
func (s QuestSet) Clone() QuestSet {
	cp := s
	cp.Quests = CloneQuests(s.Quests)
	return cp
}

// CompletedCount returns how many quests of the set are done.
func (s QuestSet) CompletedCount() int {
	n := 0
	for _, q := range s.Quests {
		if q.Completed {
			n++
		}
	}
	return n
}

// Find returns the index of the quest with the given id, or -1.
func (s QuestSet) Find(questID string) int {
	for i, q := range s.Quests {
		if q.ID == questID {
			return i
		}
	}
	return -1
}
