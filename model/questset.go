package model

import (
	"time"

	"gorm.io/datatypes"
)

// QuestSetRecord is one generation run. Quests holds the JSON array of
// quests; Version guards concurrent completion updates.
type QuestSetRecord struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID int64          `gorm:"index:idx_questset_account_created,priority:1;not null" json:"account_id"`
	UserName  string         `gorm:"size:64" json:"user_name"`
	Stage     string         `gorm:"size:32;not null" json:"stage"`
	Source    string         `gorm:"size:16" json:"source"`
	Quests    datatypes.JSON `gorm:"not null" json:"quests"`
	Completed int            `gorm:"default:0" json:"completed"`
	Version   int            `gorm:"default:0" json:"-"`
	CreatedAt time.Time      `gorm:"index:idx_questset_account_created,priority:2;autoCreateTime:milli" json:"created_at"`
}
