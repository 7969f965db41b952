package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
	"github.com/pelletier/go-toml/v2"
)

// Load reads a plaintext TOML configuration file, unmarshals and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read config file '%s': %w", path, err)
	}
	return parse(data, path)
}

// LoadEncrypted reads an age-encrypted TOML configuration file. The age
// private key (X25519 identity) is read from ageKeyPath. Secrets at rest
// stay encrypted; only the running process holds the plaintext.
func LoadEncrypted(path string, ageKeyPath string) (*Config, error) {
	keyContent, err := os.ReadFile(ageKeyPath)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read age key file '%s': %w", ageKeyPath, err)
	}

	identities, err := age.ParseIdentities(bytes.NewReader(keyContent))
	// Zero out the raw key material immediately after parsing
	for i := range keyContent {
		keyContent[i] = 0
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed to parse age identities from '%s': %w", ageKeyPath, err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("config: no age identities found in '%s'", ageKeyPath)
	}

	encrypted, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read config file '%s': %w", path, err)
	}

	reader, err := age.Decrypt(bytes.NewReader(encrypted), identities...)
	if err != nil {
		return nil, fmt.Errorf("config: failed to decrypt config file '%s': %w", path, err)
	}
	decrypted, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read decrypted config: %w", err)
	}

	return parse(decrypted, path)
}

// EncryptToFile encrypts plaintext TOML for the recipient derived from the
// age key file and writes it to path. Used by tooling to produce the files
// LoadEncrypted consumes.
func EncryptToFile(path string, ageKeyPath string, plaintext []byte) error {
	keyContent, err := os.ReadFile(ageKeyPath)
	if err != nil {
		return fmt.Errorf("config: failed to read age key file '%s': %w", ageKeyPath, err)
	}
	identities, err := age.ParseIdentities(bytes.NewReader(keyContent))
	for i := range keyContent {
		keyContent[i] = 0
	}
	if err != nil {
		return fmt.Errorf("config: failed to parse age identities from '%s': %w", ageKeyPath, err)
	}

	var recipient age.Recipient
	for _, id := range identities {
		if x, ok := id.(*age.X25519Identity); ok {
			recipient = x.Recipient()
			break
		}
	}
	if recipient == nil {
		return fmt.Errorf("config: no X25519 identity in '%s' to derive a recipient from", ageKeyPath)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return fmt.Errorf("config: failed to start encryption: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return fmt.Errorf("config: failed to encrypt: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("config: failed to finalize encryption: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("config: failed to write encrypted config '%s': %w", path, err)
	}
	return nil
}

func parse(data []byte, source string) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal TOML: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	cfg.Source = source
	return cfg, nil
}
