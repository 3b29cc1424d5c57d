package models

import (
	"time"

	"willstech-admin/internal/github"
	"willstech-admin/internal/settings"
)

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type HealthResponse struct {
	Status     string    `json:"status"`
	Repository string    `json:"repository"`
	Branch     string    `json:"branch"`
	Loaded     bool      `json:"loaded"`
	LastSynced time.Time `json:"last_synced"`
}

// SettingsResponse never carries the full token.
type SettingsResponse struct {
	Settings settings.Repo `json:"settings"`
	TreeURL  string        `json:"tree_url"`
}

type VerifyResponse struct {
	Status string         `json:"status"`
	Access *github.Access `json:"access"`
	// Warning is set when the repository is reachable but the branch is not.
	Warning string `json:"warning,omitempty"`
}
