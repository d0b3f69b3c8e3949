package risk

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"google.golang.org/api/option"

	"pentamaths/internal/config"
)

// ClientOptions resolves credentials: an inline base64 service-account key
// first, then a key file, otherwise application default credentials.
func ClientOptions(cfg config.RecaptchaConfig) ([]option.ClientOption, error) {
	if cfg.CredentialsBase64 != "" {
		creds, err := DecodeCredentials(cfg.CredentialsBase64)
		if err != nil {
			return nil, err
		}
		return []option.ClientOption{option.WithCredentialsJSON(creds)}, nil
	}

	if cfg.CredentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, nil
	}

	return nil, nil
}

// DecodeCredentials decodes a base64 service-account key and checks that the
// result is a JSON object.
func DecodeCredentials(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode service account key: %w", err)
	}

	var probe map[string]interface{}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}

	return raw, nil
}
