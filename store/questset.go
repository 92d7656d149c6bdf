package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kasuganosora/hikiquest/server/model"
	"github.com/kasuganosora/hikiquest/server/quest"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestSetStore is the append-only log of generation runs per account.
type QuestSetStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewQuestSetStore(db *gorm.DB) *QuestSetStore {
	return &QuestSetStore{db: db, now: time.Now}
}

func toRecord(set quest.QuestSet) (*model.QuestSetRecord, error) {
	data, err := json.Marshal(set.Quests)
	if err != nil {
		return nil, err
	}
	return &model.QuestSetRecord{
		ID:        set.ID,
		AccountID: set.AccountID,
		UserName:  set.UserName,
		Stage:     string(set.Stage),
		Source:    set.Source,
		Quests:    datatypes.JSON(data),
		Completed: set.CompletedCount(),
		CreatedAt: set.CreatedAt,
	}, nil
}

func fromRecord(rec *model.QuestSetRecord) (quest.QuestSet, error) {
	var qs []quest.Quest
	if err := json.Unmarshal(rec.Quests, &qs); err != nil {
		return quest.QuestSet{}, fmt.Errorf("quest set %d decode: %w", rec.ID, err)
	}
	return quest.QuestSet{
		ID:        rec.ID,
		AccountID: rec.AccountID,
		UserName:  rec.UserName,
		Stage:     quest.Stage(rec.Stage),
		Source:    rec.Source,
		Quests:    qs,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// Put appends a quest set and returns it with its storage id and creation
// time filled in. The stored quests are a copy of the caller's.
func (s *QuestSetStore) Put(ctx context.Context, set quest.QuestSet) (quest.QuestSet, error) {
	set = set.Clone()
	set.ID = 0
	if set.CreatedAt.IsZero() {
		set.CreatedAt = s.now()
	}
	rec, err := toRecord(set)
	if err != nil {
		return quest.QuestSet{}, fmt.Errorf("quest set encode: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return quest.QuestSet{}, fmt.Errorf("quest set put: %w", err)
	}
	set.ID = rec.ID
	return set, nil
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

// Latest returns the newest quest set of an account or ErrNotFound.
func (s *QuestSetStore) Latest(ctx context.Context, accountID int64) (quest.QuestSet, error) {
	var rec model.QuestSetRecord
	err := newestFirst(s.db.WithContext(ctx).Where("account_id = ?", accountID)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return quest.QuestSet{}, ErrNotFound
	}
	if err != nil {
		return quest.QuestSet{}, fmt.Errorf("quest set latest: %w", err)
	}
	return fromRecord(&rec)
}

// All returns every quest set of an account, newest first.
func (s *QuestSetStore) All(ctx context.Context, accountID int64) ([]quest.QuestSet, error) {
	var recs []model.QuestSetRecord
	if err := newestFirst(s.db.WithContext(ctx).Where("account_id = ?", accountID)).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("quest set all: %w", err)
	}
	out := make([]quest.QuestSet, 0, len(recs))
	for i := range recs {
		set, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, set)
	}
	return out, nil
}

// UpdateCompletion sets the completed flag of one quest in a stored set.
// Completion only moves from false to true: completing twice returns
// ErrAlreadyCompleted and clearing a completed quest returns
// ErrCompletionReversal. Clearing an incomplete quest is a no-op.
// Only the account's newest set is writable; a superseded set yields
// ErrNotFound. The newest check and the versioned write share a transaction.
func (s *QuestSetStore) UpdateCompletion(ctx context.Context, setID int64, questID string, completed bool) (quest.QuestSet, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		var set quest.QuestSet
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			set, err = s.tryComplete(tx, setID, questID, completed)
			return err
		})
		if errors.Is(err, errConflict) {
			continue
		}
		return set, err
	}
	return quest.QuestSet{}, fmt.Errorf("quest set %d: %w", setID, errConflict)
}

func (s *QuestSetStore) tryComplete(tx *gorm.DB, setID int64, questID string, completed bool) (quest.QuestSet, error) {
	var rec model.QuestSetRecord
	err := tx.First(&rec, setID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return quest.QuestSet{}, ErrNotFound
	}
	if err != nil {
		return quest.QuestSet{}, fmt.Errorf("quest set load: %w", err)
	}
	var newer int64
	if err := tx.Model(&model.QuestSetRecord{}).
		Where("account_id = ? AND id > ?", rec.AccountID, rec.ID).
		Count(&newer).Error; err != nil {
		return quest.QuestSet{}, fmt.Errorf("quest set newest check: %w", err)
	}
	if newer > 0 {
		return quest.QuestSet{}, fmt.Errorf("quest set %d superseded: %w", setID, ErrNotFound)
	}
	set, err := fromRecord(&rec)
	if err != nil {
		return quest.QuestSet{}, err
	}
	idx := set.Find(questID)
	if idx < 0 {
		return quest.QuestSet{}, ErrNotFound
	}
	q := &set.Quests[idx]
	switch {
	case q.Completed && completed:
		return set, ErrAlreadyCompleted
	case q.Completed && !completed:
		return set, ErrCompletionReversal
	case !completed:
		return set, nil
	}
	now := s.now()
	q.Completed = true
	q.CompletedAt = &now

	data, err := json.Marshal(set.Quests)
	if err != nil {
		return quest.QuestSet{}, err
	}
	res := tx.Model(&model.QuestSetRecord{}).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Updates(map[string]interface{}{
			"quests":    datatypes.JSON(data),
			"completed": set.CompletedCount(),
			"version":   rec.Version + 1,
		})
	if res.Error != nil {
		return quest.QuestSet{}, fmt.Errorf("quest set update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return quest.QuestSet{}, errConflict
	}
	return set, nil
}

// Stats summarizes all stored quest sets.
type Stats struct {
	Sets            int64 `json:"sets"`
	CompletedQuests int64 `json:"completed_quests"`
}

// Stats returns table-wide counts.
func (s *QuestSetStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.WithContext(ctx).Model(&model.QuestSetRecord{}).
		Select("COUNT(*) AS sets, COALESCE(SUM(completed), 0) AS completed_quests").
		Scan(&st).Error
	return st, err
}
