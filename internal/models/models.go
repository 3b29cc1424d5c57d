package models

import (
	"time"
)

// SystemSetting is a persisted admin setting. Values here override the
// environment once saved from the dashboard.
type SystemSetting struct {
	Key       string    `gorm:"primaryKey;type:varchar(100)" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}

// CommitRecord is one successful write of site-config.json to GitHub.
type CommitRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Repository string    `gorm:"index;type:varchar(255)" json:"repository"`
	Branch     string    `gorm:"type:varchar(255)" json:"branch"`
	Path       string    `gorm:"type:varchar(255)" json:"path"`
	Section    string    `gorm:"index;type:varchar(50)" json:"section"`
	Message    string    `gorm:"type:text" json:"message"`
	FileSHA    string    `gorm:"type:varchar(64)" json:"file_sha"`
	CommitSHA  string    `gorm:"type:varchar(64)" json:"commit_sha"`
	CommitURL  string    `gorm:"type:text" json:"commit_url"`
	Retried    bool      `gorm:"default:false" json:"retried"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (CommitRecord) TableName() string {
	return "commit_records"
}

// All lists every model for auto-migration.
func All() []interface{} {
	return []interface{}{
		&SystemSetting{},
		&CommitRecord{},
	}
}
