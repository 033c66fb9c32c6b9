package models

import "time"

// ResumeRecord is a persisted analyze result in the resumes table.
type ResumeRecord struct {
	ID           string    `gorm:"type:varchar;primaryKey" json:"id"`
	UserID       *string   `gorm:"type:varchar;index" json:"userId,omitempty"`
	FileName     string    `gorm:"type:text;not null" json:"fileName"`
	FileURL      string    `gorm:"type:text;not null" json:"fileUrl"`
	ATSScore     int       `gorm:"type:integer" json:"atsScore"`
	AnalysisData string    `gorm:"column:analysis_data;type:jsonb" json:"-"`
	CreatedAt    time.Time `gorm:"type:timestamp" json:"createdAt"`
}

func (ResumeRecord) TableName() string {
	return "resumes"
}

type HistoryItem struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	Score     int       `json:"score"`
	ScannedAt time.Time `json:"scannedAt"`
}

func (r ResumeRecord) HistoryItem() HistoryItem {
	return HistoryItem{
		ID:        r.ID,
		FileName:  r.FileName,
		Score:     r.ATSScore,
		ScannedAt: r.CreatedAt,
	}
}
