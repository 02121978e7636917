package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/chatrelay/internal/config"
)

// clearRequiredEnv makes the test independent of the developer's shell.
func clearRequiredEnv(t *testing.T) {
	t.Helper()
	for _, k := range config.RequiredKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveCredentialsFromTOMLFile(t *testing.T) {
	clearRequiredEnv(t)
	path := writeFile(t, "secrets.toml", `
GROQ_API_KEY = "gsk-file"
SUPABASE_URL = "https://proj.supabase.co"
SUPABASE_KEY = "anon-file"
`)

	creds, err := config.ResolveCredentials(config.DefaultResolver(path))
	require.NoError(t, err)
	assert.Equal(t, "gsk-file", creds.CompletionAPIKey)
	assert.Equal(t, "https://proj.supabase.co", creds.StoreURL)
	assert.Equal(t, "anon-file", creds.StoreKey)
}

func TestResolveCredentialsFromYAMLFile(t *testing.T) {
	clearRequiredEnv(t)
	path := writeFile(t, "secrets.yaml", `
GROQ_API_KEY: gsk-yaml
SUPABASE_URL: https://y.supabase.co
SUPABASE_KEY: anon-yaml
`)

	creds, err := config.ResolveCredentials(config.DefaultResolver(path))
	require.NoError(t, err)
	assert.Equal(t, "gsk-yaml", creds.CompletionAPIKey)
	assert.Equal(t, "anon-yaml", creds.StoreKey)
}

func TestFileWinsOverEnvironmentAndEnvFillsGaps(t *testing.T) {
	clearRequiredEnv(t)
	t.Setenv(config.KeyGroqAPIKey, "gsk-env")
	t.Setenv(config.KeySupabaseKey, "anon-env")
	path := writeFile(t, "secrets.toml", `
GROQ_API_KEY = "gsk-file"
SUPABASE_URL = "https://proj.supabase.co"
SUPABASE_KEY = ""
`)

	creds, err := config.ResolveCredentials(config.DefaultResolver(path))
	require.NoError(t, err)
	assert.Equal(t, "gsk-file", creds.CompletionAPIKey)
	assert.Equal(t, "anon-env", creds.StoreKey, "empty file value falls back to env")
}

func TestBrokenOrMissingFileFallsBackToEnvironment(t *testing.T) {
	files := map[string]string{
		"missing":    filepath.Join(t.TempDir(), "nope.toml"),
		"malformed":  writeFile(t, "secrets.toml", "GROQ_API_KEY = = ="),
		"non-string": writeFile(t, "secrets.toml", `
GROQ_API_KEY = 42
SUPABASE_URL = ["a"]
SUPABASE_KEY = true
`),
	}
	for name, path := range files {
		t.Run(name, func(t *testing.T) {
			clearRequiredEnv(t)
			t.Setenv(config.KeyGroqAPIKey, "gsk-env")
			t.Setenv(config.KeySupabaseURL, "https://env.supabase.co")
			t.Setenv(config.KeySupabaseKey, "anon-env")

			creds, err := config.ResolveCredentials(config.DefaultResolver(path))
			require.NoError(t, err)
			assert.Equal(t, "gsk-env", creds.CompletionAPIKey)
			assert.Equal(t, "https://env.supabase.co", creds.StoreURL)
			assert.Equal(t, "anon-env", creds.StoreKey)
		})
	}
}

func TestMissingKeysAreReportedExactly(t *testing.T) {
	type env map[string]string
	cases := []struct {
		name    string
		env     env
		missing []string
		message string
	}{
		{
			name:    "all missing",
			env:     env{},
			missing: []string{"GROQ_API_KEY", "SUPABASE_URL", "SUPABASE_KEY"},
			message: "missing config: GROQ_API_KEY, SUPABASE_URL, SUPABASE_KEY. Add them to the secrets file or the environment",
		},
		{
			name:    "only url present",
			env:     env{config.KeySupabaseURL: "https://x.supabase.co"},
			missing: []string{"GROQ_API_KEY", "SUPABASE_KEY"},
			message: "missing config: GROQ_API_KEY, SUPABASE_KEY. Add them to the secrets file or the environment",
		},
		{
			name:    "only key missing",
			env:     env{config.KeyGroqAPIKey: "gsk", config.KeySupabaseURL: "https://x.supabase.co"},
			missing: []string{"SUPABASE_KEY"},
			message: "missing config: SUPABASE_KEY. Add them to the secrets file or the environment",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearRequiredEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			resolver := config.DefaultResolver(filepath.Join(t.TempDir(), "absent.toml"))
			_, err := config.ResolveCredentials(resolver)
			require.Error(t, err)

			var missingErr *config.MissingKeysError
			require.ErrorAs(t, err, &missingErr)
			assert.Equal(t, tc.missing, missingErr.Keys)
			assert.Equal(t, tc.message, err.Error())
		})
	}
}

type staticStrategy struct {
	name   string
	values map[string]string
}

func (s staticStrategy) Name() string { return s.name }

func (s staticStrategy) Lookup(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok && v != ""
}

func TestResolverTriesStrategiesInOrder(t *testing.T) {
	r := config.NewResolver(
		staticStrategy{name: "first", values: map[string]string{"A": "1"}},
		staticStrategy{name: "second", values: map[string]string{"A": "2", "B": "3"}},
	)

	v, source, ok := r.Resolve("A")
	require.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, "first", source)

	v, source, ok = r.Resolve("B")
	require.True(t, ok)
	assert.Equal(t, "3", v)
	assert.Equal(t, "second", source)

	_, _, ok = r.Resolve("C")
	assert.False(t, ok)
}
