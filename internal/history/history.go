// Package history keeps a log of every commit the admin made.
package history

import (
	"context"
	"fmt"

	"willstech-admin/internal/editor"
	"willstech-admin/internal/models"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) RecordCommit(ctx context.Context, c editor.CommitInfo) error {
	rec := models.CommitRecord{
		Repository: c.Repository,
		Branch:     c.Branch,
		Path:       c.Path,
		Section:    c.Section,
		Message:    c.Message,
		FileSHA:    c.FileSHA,
		CommitSHA:  c.CommitSHA,
		CommitURL:  c.CommitURL,
		Retried:    c.Retried,
		CreatedAt:  c.At,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("record commit: %w", err)
	}
	return nil
}

// List returns the newest records first. section filters when non-empty.
func (s *Store) List(ctx context.Context, section string, limit int) ([]models.CommitRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	q := s.db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit)
	if section != "" {
		q = q.Where("section = ?", section)
	}
	var out []models.CommitRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	return out, nil
}
