package config

import (
	"fmt"
	"time"
)

const (
	OAuth2ProviderGoogle = "google"
	OAuth2ProviderGitHub = "github"
)

// Duration wraps time.Duration so TOML files can use strings like "45m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Jwt struct {
	AuthSecret                     string   `toml:"auth_secret"`
	AuthTokenDuration              Duration `toml:"auth_token_duration"`
	VerificationEmailSecret        string   `toml:"verification_email_secret"`
	VerificationEmailTokenDuration Duration `toml:"verification_email_token_duration"`
	PasswordResetSecret            string   `toml:"password_reset_secret"`
	PasswordResetTokenDuration     Duration `toml:"password_reset_token_duration"`
}

type Server struct {
	Addr                    string   `toml:"addr"`
	ShutdownGracefulTimeout Duration `toml:"shutdown_graceful_timeout"`
	ReadTimeout             Duration `toml:"read_timeout"`
	ReadHeaderTimeout       Duration `toml:"read_header_timeout"`
	WriteTimeout            Duration `toml:"write_timeout"`
	IdleTimeout             Duration `toml:"idle_timeout"`
	ClientIpProxyHeader     string   `toml:"client_ip_proxy_header"`
	BaseURL                 string   `toml:"base_url"`
}

type Scheduler struct {
	Interval              Duration `toml:"interval"`
	MaxJobsPerTick        int      `toml:"max_jobs_per_tick"`
	ConcurrencyMultiplier int      `toml:"concurrency_multiplier"`
}

type Smtp struct {
	Enabled     bool   `toml:"enabled"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	FromName    string `toml:"from_name"`
	FromAddress string `toml:"from_address"`
	LocalName   string `toml:"local_name"`
	AuthMethod  string `toml:"auth_method"`
	UseTLS      bool   `toml:"use_tls"`
	UseStartTLS bool   `toml:"use_start_tls"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
}

type OAuth2Provider struct {
	Name            string   `toml:"name"`
	DisplayName     string   `toml:"display_name"`
	RedirectURL     string   `toml:"redirect_url"`
	RedirectURLPath string   `toml:"redirect_url_path"`
	AuthURL         string   `toml:"auth_url"`
	TokenURL        string   `toml:"token_url"`
	UserInfoURL     string   `toml:"user_info_url"`
	Scopes          []string `toml:"scopes"`
	PKCE            bool     `toml:"pkce"`
	ClientID        string   `toml:"client_id"`
	ClientSecret    string   `toml:"client_secret"`
}

// Storage configures the S3-compatible object store holding avatar uploads.
type Storage struct {
	Endpoint        string `toml:"endpoint"`
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
}

// Avatar bounds uploads before they reach the object store.
type Avatar struct {
	MaxBytes     int64    `toml:"max_bytes"`
	AllowedTypes []string `toml:"allowed_types"`
}

type BlockIp struct {
	Enabled   bool `toml:"enabled"`
	Activated bool `toml:"activated"`
	// Level selects a sketch preset: "low", "medium" or "high". Higher
	// levels trade memory for detection accuracy.
	Level string `toml:"level"`
}

// RateLimits bounds how often users can trigger outbound email jobs. The
// durations define cooldown buckets: one request per bucket and address.
type RateLimits struct {
	EmailVerificationCooldown Duration `toml:"email_verification_cooldown"`
	PasswordResetCooldown     Duration `toml:"password_reset_cooldown"`
}

type Backup struct {
	SourcePath string   `toml:"source_path"`
	DestDir    string   `toml:"dest_dir"`
	Interval   Duration `toml:"interval"`
}

type Config struct {
	// Source records where this config was loaded from, empty for defaults.
	Source string `toml:"-"`

	DBFile string `toml:"db_file"`

	Jwt             Jwt                       `toml:"jwt"`
	Server          Server                    `toml:"server"`
	Scheduler       Scheduler                 `toml:"scheduler"`
	Smtp            Smtp                      `toml:"smtp"`
	Storage         Storage                   `toml:"storage"`
	Avatar          Avatar                    `toml:"avatar"`
	OAuth2Providers map[string]OAuth2Provider `toml:"oauth2_providers"`
	RateLimits      RateLimits                `toml:"rate_limits"`
	BlockIp         BlockIp                   `toml:"block_ip"`
	Backup          Backup                    `toml:"backup"`
}
