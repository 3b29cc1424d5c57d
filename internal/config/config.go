package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins string

	GitHubToken    string
	RepoOwner      string
	RepoName       string
	RepoBranch     string
	GitHubAPIURL   string
	GitHubRPS      float64
	HTTPTimeout    time.Duration
	SiteConfigPath string
	SiteIndexPath  string
	CommitPrefix   string

	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	LogLevel  string
	LogFormat string

	JWTSecret         string
	AdminPasswordHash string
	AdminPassword     string
	TokenTTL          time.Duration

	BackupDir string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	return load(viper.New())
}

func load(v *viper.Viper) *Config {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	return &Config{
		Port:        v.GetString("PORT"),
		GinMode:     v.GetString("GIN_MODE"),
		CORSOrigins: v.GetString("CORS_ORIGINS"),

		GitHubToken:    v.GetString("GITHUB_TOKEN"),
		RepoOwner:      v.GetString("REPO_OWNER"),
		RepoName:       v.GetString("REPO_NAME"),
		RepoBranch:     v.GetString("REPO_BRANCH"),
		GitHubAPIURL:   strings.TrimRight(v.GetString("GITHUB_API_URL"), "/"),
		GitHubRPS:      v.GetFloat64("GITHUB_RPS"),
		HTTPTimeout:    v.GetDuration("HTTP_TIMEOUT"),
		SiteConfigPath: v.GetString("SITE_CONFIG_PATH"),
		SiteIndexPath:  v.GetString("SITE_INDEX_PATH"),
		CommitPrefix:   v.GetString("COMMIT_MESSAGE_PREFIX"),

		DBDriver:   v.GetString("DB_DRIVER"),
		DBPath:     v.GetString("DB_PATH"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		JWTSecret:         v.GetString("JWT_SECRET"),
		AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		AdminPassword:     v.GetString("ADMIN_PASSWORD"),
		TokenTTL:          v.GetDuration("TOKEN_TTL"),

		BackupDir: v.GetString("BACKUP_DIR"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("CORS_ORIGINS", "*")

	v.SetDefault("REPO_OWNER", "BarasaGodwilTech")
	v.SetDefault("REPO_NAME", "willstech-tempolary")
	v.SetDefault("REPO_BRANCH", "branch-test")
	v.SetDefault("GITHUB_API_URL", "https://api.github.com")
	v.SetDefault("GITHUB_RPS", 5)
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("SITE_CONFIG_PATH", "data/site-config.json")
	v.SetDefault("SITE_INDEX_PATH", "index.html")
	v.SetDefault("COMMIT_MESSAGE_PREFIX", "🔄 Will's Tech Update")

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_PATH", "./admin.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "willstech")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("TOKEN_TTL", "12h")

	v.SetDefault("BACKUP_DIR", "./backups")
}

// Allowed reports the configured CORS origins as a slice.
func (c *Config) Allowed() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
