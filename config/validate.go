package config

import (
	"fmt"
	"net"
	"strings"
)

func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := validateJwt(&cfg.Jwt); err != nil {
		return fmt.Errorf("jwt config validation failed: %w", err)
	}
	if err := validateSmtp(&cfg.Smtp); err != nil {
		return fmt.Errorf("smtp config validation failed: %w", err)
	}
	if err := validateAvatar(&cfg.Avatar); err != nil {
		return fmt.Errorf("avatar config validation failed: %w", err)
	}
	if err := validateBlockIp(&cfg.BlockIp); err != nil {
		return fmt.Errorf("block_ip config validation failed: %w", err)
	}
	return nil
}

func validateBlockIp(blockIp *BlockIp) error {
	if !blockIp.Enabled {
		return nil
	}
	switch blockIp.Level {
	case "low", "medium", "high":
		return nil
	}
	return fmt.Errorf("invalid block_ip level %q, must be low, medium or high", blockIp.Level)
}

// validateServer checks the Server configuration section.
// It ensures the Addr field is not empty and contains a valid host:port or :port format.
// If only a port is provided (e.g., ":8080"), it defaults the host to "localhost".
//
// Allowed formats:
//   - "host:port" (e.g., "example.com:8080", "127.0.0.1:8080", "[::1]:8080")
//   - ":port"     (e.g., ":8080" becomes "localhost:8080")
//
// The port part is mandatory.
func validateServer(server *Server) error {
	if server.Addr == "" {
		return fmt.Errorf("server address (Addr) cannot be empty")
	}

	host, port, err := net.SplitHostPort(server.Addr)
	if err != nil {
		// Check if it's just a port (e.g., ":8080")
		if strings.HasPrefix(server.Addr, ":") {
			port = strings.TrimPrefix(server.Addr, ":")
			host = "localhost" // Default host
		} else {
			return fmt.Errorf("invalid server address format '%s': %w", server.Addr, err)
		}
	}

	if port == "" {
		return fmt.Errorf("server address '%s' must include a port", server.Addr)
	}

	// Reconstruct the address with the defaulted host if necessary
	server.Addr = net.JoinHostPort(host, port)

	if _, err := net.LookupPort("tcp", port); err != nil {
		return fmt.Errorf("invalid port '%s' in server address '%s': %w", port, server.Addr, err)
	}

	return nil
}

// JWT secrets feed HMAC-SHA256 key derivation and must carry enough entropy.
func validateJwt(jwt *Jwt) error {
	const minSecretLength = 32
	for name, secret := range map[string]string{
		"auth_secret":               jwt.AuthSecret,
		"verification_email_secret": jwt.VerificationEmailSecret,
		"password_reset_secret":     jwt.PasswordResetSecret,
	} {
		if len(secret) < minSecretLength {
			return fmt.Errorf("%s must be at least %d characters, got %d", name, minSecretLength, len(secret))
		}
	}
	if jwt.AuthTokenDuration.Duration <= 0 {
		return fmt.Errorf("auth_token_duration must be positive")
	}
	return nil
}

func validateSmtp(smtp *Smtp) error {
	if !smtp.Enabled {
		return nil
	}
	if smtp.Host == "" {
		return fmt.Errorf("smtp host cannot be empty when smtp is enabled")
	}
	if smtp.Port <= 0 || smtp.Port > 65535 {
		return fmt.Errorf("invalid smtp port %d", smtp.Port)
	}
	if smtp.FromAddress == "" {
		return fmt.Errorf("smtp from_address cannot be empty when smtp is enabled")
	}
	return nil
}

func validateAvatar(avatar *Avatar) error {
	if avatar.MaxBytes <= 0 {
		return fmt.Errorf("avatar max_bytes must be positive")
	}
	if len(avatar.AllowedTypes) == 0 {
		return fmt.Errorf("avatar allowed_types cannot be empty")
	}
	return nil
}
