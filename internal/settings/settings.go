// Package settings persists the repository connection the dashboard edits:
// token, owner, repository and branch.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"willstech-admin/internal/config"
	"willstech-admin/internal/github"
	"willstech-admin/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	KeyToken  = "GITHUB_TOKEN"
	KeyOwner  = "REPO_OWNER"
	KeyRepo   = "REPO_NAME"
	KeyBranch = "REPO_BRANCH"
)

var ErrInvalid = errors.New("invalid repository settings")

type Repo struct {
	Token  string `json:"token"`
	Owner  string `json:"owner"`
	Name   string `json:"repo"`
	Branch string `json:"branch"`
}

func (r Repo) Target() github.Target {
	return github.Target{Owner: r.Owner, Repo: r.Name, Branch: r.Branch}
}

// Masked returns a copy safe to send to the browser.
func (r Repo) Masked() Repo {
	r.Token = MaskToken(r.Token)
	return r
}

// MaskToken keeps the last four characters of a token.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}

// Merge applies non-empty fields of update. An empty or masked token keeps
// the stored one.
func (r Repo) Merge(update Repo) Repo {
	if t := strings.TrimSpace(update.Token); t != "" && !strings.HasPrefix(t, "****") {
		r.Token = t
	}
	if v := strings.TrimSpace(update.Owner); v != "" {
		r.Owner = v
	}
	if v := strings.TrimSpace(update.Name); v != "" {
		r.Name = v
	}
	if v := strings.TrimSpace(update.Branch); v != "" {
		r.Branch = v
	}
	return r
}

type Store struct {
	db       *gorm.DB
	defaults Repo
}

// NewStore uses cfg's repository settings as defaults for keys that were
// never saved.
func NewStore(db *gorm.DB, cfg *config.Config) *Store {
	return &Store{
		db: db,
		defaults: Repo{
			Token:  cfg.GitHubToken,
			Owner:  cfg.RepoOwner,
			Name:   cfg.RepoName,
			Branch: cfg.RepoBranch,
		},
	}
}

func (s *Store) fields(r *Repo) []struct {
	Key   string
	Value *string
} {
	return []struct {
		Key   string
		Value *string
	}{
		{KeyToken, &r.Token},
		{KeyOwner, &r.Owner},
		{KeyRepo, &r.Name},
		{KeyBranch, &r.Branch},
	}
}

// Load returns the saved settings. Database values win over the
// environment; environment values missing from the database are seeded.
func (s *Store) Load(ctx context.Context) (Repo, error) {
	r := s.defaults
	db := s.db.WithContext(ctx)
	for _, f := range s.fields(&r) {
		var setting models.SystemSetting
		err := db.Where("key = ?", f.Key).First(&setting).Error
		switch {
		case err == nil:
			if setting.Value != "" {
				*f.Value = setting.Value
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if *f.Value != "" {
				if err := db.Create(&models.SystemSetting{Key: f.Key, Value: *f.Value}).Error; err != nil {
					return Repo{}, fmt.Errorf("seed setting %s: %w", f.Key, err)
				}
			}
		default:
			return Repo{}, fmt.Errorf("load setting %s: %w", f.Key, err)
		}
	}
	return r, nil
}

// Save merges update into the stored settings and persists the result.
func (s *Store) Save(ctx context.Context, update Repo) (Repo, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return Repo{}, err
	}
	next := current.Merge(update)
	if next.Owner == "" || next.Name == "" || next.Branch == "" {
		return Repo{}, fmt.Errorf("%w: owner, repo and branch are required", ErrInvalid)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, f := range s.fields(&next) {
			row := models.SystemSetting{Key: f.Key, Value: *f.Value}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("save setting %s: %w", f.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return Repo{}, err
	}
	return next, nil
}
