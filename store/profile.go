package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kasuganosora/hikiquest/server/model"
	"github.com/kasuganosora/hikiquest/server/quest"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileStore keeps one profile per account.
type ProfileStore struct {
	db *gorm.DB
}

func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Get returns the account's profile or ErrNotFound.
func (s *ProfileStore) Get(ctx context.Context, accountID int64) (quest.Profile, error) {
	var rec model.ProfileRecord
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return quest.Profile{}, ErrNotFound
	}
	if err != nil {
		return quest.Profile{}, fmt.Errorf("profile get: %w", err)
	}
	var p quest.Profile
	if err := json.Unmarshal(rec.Data, &p); err != nil {
		return quest.Profile{}, fmt.Errorf("profile decode: %w", err)
	}
	p.Normalize()
	return p, nil
}

// Put inserts or replaces the account's profile. The classified stage is
// stored alongside for admin queries.
func (s *ProfileStore) Put(ctx context.Context, accountID int64, p quest.Profile) error {
	p.Normalize()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("profile encode: %w", err)
	}
	rec := model.ProfileRecord{
		AccountID: accountID,
		Name:      p.Name,
		Stage:     string(quest.Classify(p)),
		Data:      datatypes.JSON(data),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "stage", "data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("profile put: %w", err)
	}
	return nil
}

// CountByStage returns how many stored profiles fall in each stage.
func (s *ProfileStore) CountByStage(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Stage string
		N     int64
	}
	err := s.db.WithContext(ctx).Model(&model.ProfileRecord{}).
		Select("stage, COUNT(*) AS n").Group("stage").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Stage] = r.N
	}
	return out, nil
}
