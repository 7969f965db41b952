package config

import (
	"time"

	"github.com/caasmo/credkeeper/crypto"
	"github.com/caasmo/credkeeper/db"
)

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewDefaultConfig creates a new Config with sensible defaults.
// All secret values are randomly generated.
func NewDefaultConfig() *Config {
	return &Config{
		DBFile: "credkeeper.db",
		Jwt: Jwt{
			AuthSecret:                     crypto.RandomString(32, secretAlphabet),
			AuthTokenDuration:              Duration{Duration: 45 * time.Minute},
			VerificationEmailSecret:        crypto.RandomString(32, secretAlphabet),
			VerificationEmailTokenDuration: Duration{Duration: 24 * time.Hour},
			PasswordResetSecret:            crypto.RandomString(32, secretAlphabet),
			PasswordResetTokenDuration:     Duration{Duration: 1 * time.Hour},
		},
		Server: Server{
			Addr:                    ":8080",
			ShutdownGracefulTimeout: Duration{Duration: 15 * time.Second},
			ReadTimeout:             Duration{Duration: 2 * time.Second},
			ReadHeaderTimeout:       Duration{Duration: 2 * time.Second},
			WriteTimeout:            Duration{Duration: 3 * time.Second},
			IdleTimeout:             Duration{Duration: 1 * time.Minute},
			ClientIpProxyHeader:     "",
			BaseURL:                 "http://localhost:8080",
		},
		Scheduler: Scheduler{
			Interval:              Duration{Duration: 60 * time.Second},
			MaxJobsPerTick:        10,
			ConcurrencyMultiplier: 2,
		},
		Smtp: Smtp{
			Enabled:     false,
			Host:        "smtp.gmail.com",
			Port:        587,
			FromName:    "Credkeeper",
			FromAddress: "",
			LocalName:   "",
			AuthMethod:  "plain",
			UseTLS:      false,
			UseStartTLS: true,
			Username:    "",
			Password:    "",
		},
		Storage: Storage{
			Endpoint:     "",
			Region:       "us-east-1",
			Bucket:       "credkeeper-avatars",
			UsePathStyle: false,
		},
		Avatar: Avatar{
			MaxBytes:     2 * 1024 * 1024,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/avif"},
		},
		OAuth2Providers: map[string]OAuth2Provider{
			OAuth2ProviderGoogle: {
				Name:            db.ProviderGoogle,
				DisplayName:     "Google",
				RedirectURL:     "",
				RedirectURLPath: "/oauth2/google/callback",
				AuthURL:         "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL:        "https://oauth2.googleapis.com/token",
				UserInfoURL:     "https://www.googleapis.com/oauth2/v3/userinfo",
				Scopes:          []string{"https://www.googleapis.com/auth/userinfo.profile", "https://www.googleapis.com/auth/userinfo.email"},
				PKCE:            true,
			},
			OAuth2ProviderGitHub: {
				Name:            db.ProviderGithub,
				DisplayName:     "GitHub",
				RedirectURL:     "",
				RedirectURLPath: "/oauth2/github/callback",
				AuthURL:         "https://github.com/login/oauth/authorize",
				TokenURL:        "https://github.com/login/oauth/access_token",
				UserInfoURL:     "https://api.github.com/user",
				Scopes:          []string{"read:user", "user:email"},
				PKCE:            false,
			},
		},
		RateLimits: RateLimits{
			EmailVerificationCooldown: Duration{Duration: 5 * time.Minute},
			PasswordResetCooldown:     Duration{Duration: 3 * time.Minute},
		},
		BlockIp: BlockIp{
			Enabled:   true,
			Activated: true,
			Level:     "medium",
		},
		Backup: Backup{
			SourcePath: "credkeeper.db",
			DestDir:    "backups",
			Interval:   Duration{Duration: 24 * time.Hour},
		},
	}
}
