package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/clientctl/clientctl/internal/apiutil"
)

// RelayOverride is the runtime document that points front ends at a relay.
type RelayOverride struct {
	APIBaseURL string `json:"API_BASE_URL"`
}

// LoadRelayOverride reads a RelayOverride from a file path or an http(s)
// URL and returns its base URL without a trailing slash. An empty source or
// a document without API_BASE_URL yields "".
func LoadRelayOverride(ctx context.Context, doer apiutil.Doer, source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", nil
	}

	var raw []byte
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		res, err := apiutil.Request(ctx, doer, http.MethodGet, "", source, "", map[string]string{
			"Cache-Control": "no-store",
		}, nil)
		if err != nil {
			return "", fmt.Errorf("failed to fetch relay config %s: %w", source, err)
		}
		if !res.OK() {
			return "", fmt.Errorf("failed to fetch relay config %s: HTTP %d", source, res.StatusCode)
		}
		raw = res.Body
	} else {
		data, err := os.ReadFile(filepath.Clean(source))
		if err != nil {
			return "", fmt.Errorf("failed to read relay config: %w", err)
		}
		raw = data
	}

	var doc RelayOverride
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("invalid relay config %s: %w", source, err)
	}
	return strings.TrimRight(strings.TrimSpace(doc.APIBaseURL), "/"), nil
}

// LoadCredentials reads a credential bundle from a JSON file.
func LoadCredentials(path string) (Credentials, error) {
	var creds Credentials
	path = strings.TrimSpace(path)
	if path == "" {
		return creds, nil
	}
	data, err := os.ReadFile(filepath.Clean(os.ExpandEnv(path)))
	if err != nil {
		return creds, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("invalid credentials file %s: %w", path, err)
	}
	return creds, nil
}
