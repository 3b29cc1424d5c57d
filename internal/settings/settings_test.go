package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"willstech-admin/internal/config"
	"willstech-admin/internal/database"
	"willstech-admin/internal/logger"
	"willstech-admin/internal/models"
)

func newTestDB(t *testing.T) (*gorm.DB, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		DBDriver:    "sqlite",
		DBPath:      filepath.Join(t.TempDir(), "admin.db"),
		GitHubToken: "ghp_envtoken1234",
		RepoOwner:   "BarasaGodwilTech",
		RepoName:    "willstech-tempolary",
		RepoBranch:  "branch-test",
	}
	db, err := database.InitGorm(cfg, logger.Nop())
	require.NoError(t, err)
	return db, cfg
}

func TestLoadSeedsFromEnvironment(t *testing.T) {
	db, cfg := newTestDB(t)
	s := NewStore(db, cfg)

	r, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ghp_envtoken1234", r.Token)
	assert.Equal(t, "branch-test", r.Branch)

	var count int64
	require.NoError(t, db.Model(&models.SystemSetting{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestSavedValuesWinOverEnvironment(t *testing.T) {
	db, cfg := newTestDB(t)
	s := NewStore(db, cfg)
	ctx := context.Background()

	saved, err := s.Save(ctx, Repo{Branch: "main"})
	require.NoError(t, err)
	assert.Equal(t, "main", saved.Branch)
	assert.Equal(t, "ghp_envtoken1234", saved.Token)

	cfg.RepoBranch = "ignored"
	r, err := NewStore(db, cfg).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", r.Branch)
}

func TestSaveKeepsTokenWhenMasked(t *testing.T) {
	db, cfg := newTestDB(t)
	s := NewStore(db, cfg)
	ctx := context.Background()

	r, err := s.Save(ctx, Repo{Token: MaskToken("ghp_envtoken1234"), Owner: "acme"})
	require.NoError(t, err)
	assert.Equal(t, "ghp_envtoken1234", r.Token)
	assert.Equal(t, "acme", r.Owner)

	r, err = s.Save(ctx, Repo{Token: "ghp_new"})
	require.NoError(t, err)
	assert.Equal(t, "ghp_new", r.Token)
}

func TestSaveRequiresTarget(t *testing.T) {
	db, _ := newTestDB(t)
	s := NewStore(db, &config.Config{})
	_, err := s.Save(context.Background(), Repo{Owner: "acme"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "", MaskToken(""))
	assert.Equal(t, "***", MaskToken("abc"))
	assert.Equal(t, "********1234", MaskToken("ghp_envtoken1234"))

	m := Repo{Token: "ghp_envtoken1234", Owner: "o"}.Masked()
	assert.Equal(t, "********1234", m.Token)
	assert.Equal(t, "o", m.Owner)
}
