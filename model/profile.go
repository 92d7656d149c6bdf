package model

import (
	"time"

	"gorm.io/datatypes"
)

// ProfileRecord stores one account's intake profile as a JSON document.
// Stage is the stage classified when the profile was last saved.
type ProfileRecord struct {
	AccountID int64          `gorm:"primaryKey;autoIncrement:false" json:"account_id"`
	Name      string         `gorm:"size:64" json:"name"`
	Stage     string         `gorm:"size:32" json:"stage"`
	Data      datatypes.JSON `gorm:"not null" json:"data"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
