package appconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleConfig() *Config {
	return &Config{
		Contexts: []Context{
			{Name: "work", Registry: "registry.example.com", GitLab: "gitlab.example.com", User: "root", Password: "secret"},
			{Name: "home", Registry: "localhost:5000"},
		},
		CurrentContext: "work",
	}
}

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "credentials")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNormalizeServer(t *testing.T) {
	for in, expected := range map[string]string{
		"registry.example.com":          "registry.example.com",
		"https://registry.example.com/": "registry.example.com",
		"http://localhost:5000//":       "localhost:5000",
		" gitlab.example.com ":          "gitlab.example.com",
		"":                              "",
	} {
		assert.Equal(t, expected, NormalizeServer(in), in)
	}
}

func TestConfig_Resolve_currentContext(t *testing.T) {
	res, err := exampleConfig().Resolve(Context{})
	require.NoError(t, err)
	assert.Equal(t, "registry.example.com", res.Registry)
	assert.Equal(t, "gitlab.example.com", res.GitLab)
	assert.Equal(t, "root", res.User)
	assert.Equal(t, "secret", res.Password)
}

func TestConfig_Resolve_overrides(t *testing.T) {
	res, err := exampleConfig().Resolve(Context{Registry: "https://other.example.com/", User: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "other.example.com", res.Registry)
	assert.Equal(t, "gitlab.example.com", res.GitLab)
	assert.Equal(t, "admin", res.User)
	assert.Empty(t, res.Password, "password of another user must not leak")
}

func TestConfig_Resolve_sameUserKeepsPassword(t *testing.T) {
	res, err := exampleConfig().Resolve(Context{User: "root"})
	require.NoError(t, err)
	assert.Equal(t, "root", res.User)
	assert.Equal(t, "secret", res.Password)
}

func TestConfig_Resolve_userFlagWinsOverCredentialsFile(t *testing.T) {
	path := writeFile(t, "deploy\ntoken-123\n")

	res, err := (&Config{}).Resolve(Context{Registry: "registry.example.com", User: "admin", CredentialsFile: path})
	require.NoError(t, err)
	assert.Equal(t, "admin", res.User)
	assert.Empty(t, res.Password)

	res, err = (&Config{}).Resolve(Context{Registry: "registry.example.com", User: "deploy", CredentialsFile: path})
	require.NoError(t, err)
	assert.Equal(t, "deploy", res.User)
	assert.Equal(t, "token-123", res.Password)

	res, err = (&Config{}).Resolve(Context{Registry: "registry.example.com", User: "admin", Password: "pw", CredentialsFile: path})
	require.NoError(t, err)
	assert.Equal(t, "admin", res.User)
	assert.Equal(t, "pw", res.Password)
}

func TestConfig_Resolve_credentialsFile(t *testing.T) {
	path := writeFile(t, "deploy\ntoken-123\nignored\n")
	res, err := (&Config{}).Resolve(Context{Registry: "registry.example.com", CredentialsFile: path})
	require.NoError(t, err)
	assert.Equal(t, "deploy", res.User)
	assert.Equal(t, "token-123", res.Password)
}

func TestConfig_Resolve_noRegistry(t *testing.T) {
	_, err := (&Config{}).Resolve(Context{User: "root"})
	assert.ErrorIs(t, err, ErrNoRegistry)

	cfg := exampleConfig()
	cfg.CurrentContext = "missing"
	_, err = cfg.Resolve(Context{})
	assert.ErrorIs(t, err, ErrNoRegistry)
}

func TestReadCredentialsFile(t *testing.T) {
	user, password, err := ReadCredentialsFile(writeFile(t, "  root \r\nsecret\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "root", user)
	assert.Equal(t, "secret", password)

	_, _, err = ReadCredentialsFile(writeFile(t, "root\n"))
	assert.ErrorContains(t, err, "two separate lines")

	_, _, err = ReadCredentialsFile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_SetContext(t *testing.T) {
	cfg := exampleConfig()
	cfg.SetContext(Context{Name: "home", Registry: "https://localhost:5001/"})
	cfg.SetContext(Context{Name: "ci", Registry: "ci.example.com"})

	require.Len(t, cfg.Contexts, 3)
	home, err := cfg.FindContext("home")
	require.NoError(t, err)
	assert.Equal(t, "localhost:5001", home.Registry)
	assert.Equal(t, "ci", cfg.Contexts[2].Name)
}

func TestConfig_DeleteContext(t *testing.T) {
	cfg := exampleConfig()
	assert.False(t, cfg.DeleteContext("missing"))
	assert.True(t, cfg.DeleteContext("work"))
	assert.Empty(t, cfg.CurrentContext)
	assert.Empty(t, cfg.CurrentRegistry())
	assert.Len(t, cfg.Contexts, 1)
}

func TestConfig_CurrentRegistry(t *testing.T) {
	assert.Equal(t, "registry.example.com", exampleConfig().CurrentRegistry())
	assert.Empty(t, (&Config{}).CurrentRegistry())
}
