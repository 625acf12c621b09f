package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/careops/substitute-planner/internal/config"
)

// ScopeSheetsReadonly is the only Google API scope the planner needs: the
// record source reads spreadsheets, nothing more.
const ScopeSheetsReadonly = "https://www.googleapis.com/auth/spreadsheets.readonly"

// GetOAuthConfig creates an oauth2 config from the client configuration
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig) (*oauth2.Config, error) {
	raw, err := json.Marshal(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth config: %w", err)
	}

	googleConfig, err := google.ConfigFromJSON(raw, ScopeSheetsReadonly)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}
	return googleConfig, nil
}

// LoadToken reads a previously issued oauth2 token from disk. The planner
// runs headless, so the token must have been obtained out of band.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}
