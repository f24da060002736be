package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOAuthFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), OAuthFileName("test"))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestOAuthFileName(t *testing.T) {
	assert.Equal(t, "vms_oauth.json", OAuthFileName(""))
	assert.Equal(t, "vms_oauth.prod.json", OAuthFileName("prod"))
}

func TestLoadOAuthClientFromPath_ValidConfig(t *testing.T) {
	path := writeOAuthFile(t, `{
  "installed": {
    "client_id": "test-client-id.apps.googleusercontent.com",
    "project_id": "test-project",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "test-secret",
    "redirect_uris": ["http://localhost", "urn:ietf:wg:oauth:2.0:oob"]
  }
}`)

	cfg, err := LoadOAuthClientFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "test-client-id.apps.googleusercontent.com", cfg.Installed.ClientID)
	assert.Equal(t, "test-secret", cfg.Installed.ClientSecret)
	assert.Len(t, cfg.Installed.RedirectURIs, 2)
}

func TestLoadOAuthClientFromPath_InvalidURL(t *testing.T) {
	path := writeOAuthFile(t, `{
  "installed": {
    "client_id": "test-client-id",
    "project_id": "test-project",
    "auth_uri": "not-a-valid-url",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "test-secret",
    "redirect_uris": ["http://localhost"]
  }
}`)

	_, err := LoadOAuthClientFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadOAuthClientFromPath_MissingSecret(t *testing.T) {
	path := writeOAuthFile(t, `{
  "installed": {
    "client_id": "test-client-id",
    "project_id": "test-project",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "redirect_uris": ["http://localhost"]
  }
}`)

	_, err := LoadOAuthClientFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadOAuthClientFromPath_InvalidJSON(t *testing.T) {
	path := writeOAuthFile(t, `{"installed": {"client_id": "test" "project_id": "x"}}`)

	_, err := LoadOAuthClientFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse oauth client file")
}

func TestLoadOAuthClientFromPath_FileNotFound(t *testing.T) {
	_, err := LoadOAuthClientFromPath("/nonexistent/path/vms_oauth.json")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read oauth client file")
}
