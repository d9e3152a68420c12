package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/qualitree/pkg/crypto"
)

const jwtSecretBytes = 48

// ApplyRuntimeDefaults fills secrets that must exist even without a config file.
// The returned map names the generated keys so callers can log them without the values.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if cfg.Auth.JWT.Enabled && strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated["auth.jwt.secret"] = true
	}

	return generated, nil
}
