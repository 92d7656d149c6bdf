// Package store persists profiles and quest sets through GORM.
package store

import (
	"errors"

	"github.com/kasuganosora/hikiquest/server/quest"
)

// Re-exported so callers outside the quest package can match store failures.
var (
	ErrNotFound           = quest.ErrNotFound
	ErrAlreadyCompleted   = quest.ErrAlreadyCompleted
	ErrCompletionReversal = quest.ErrCompletionReversal
)

// errConflict is returned internally when an optimistic update lost a race.
var errConflict = errors.New("store: concurrent update")

// maxRetries bounds optimistic-lock retries on quest completion.
const maxRetries = 5
