package models

import (
	"time"
)

// PlayerRecord is one player's persisted leaderboard state. The id is
// assigned by the game server (Roblox userId) and never generated here.
// Field names are part of the durable storage contract.
type PlayerRecord struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	OverallScore int64     `json:"overall_score" gorm:"not null;default:0;index"`
	WeeklyScore  int64     `json:"weekly_score" gorm:"not null;default:0;index"`
	MonthlyScore int64     `json:"monthly_score" gorm:"not null;default:0;index"`
	Level        int64     `json:"level" gorm:"not null;default:0;index"`
	LastUpdated  time.Time `json:"last_updated" gorm:"not null"`
}

func (PlayerRecord) TableName() string {
	return "player_records"
}

// UpdateRecordRequest is a single authoritative update from the game server.
// NewWins is the incremental weekly/monthly delta; GlobalWins and Level are
// the source-of-truth values that overwrite whatever is stored.
type UpdateRecordRequest struct {
	User       int64 `json:"user"`
	NewWins    int64 `json:"new_wins"`
	GlobalWins int64 `json:"global_wins"`
	Level      int64 `json:"level"`
}

type TopListResponse struct {
	Period string         `json:"period"`
	Top    []PlayerRecord `json:"top"`
}

type ResetResponse struct {
	OK     bool   `json:"ok"`
	Period string `json:"period"`
}
