package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/chatrelay/internal/domain"
	"github.com/PabloGalante/chatrelay/internal/observability"
)

// Secret names looked up at startup.
const (
	KeyGroqAPIKey  = "GROQ_API_KEY"
	KeySupabaseURL = "SUPABASE_URL"
	KeySupabaseKey = "SUPABASE_KEY"
)

// RequiredKeys is also the order in which missing keys are reported.
var RequiredKeys = []string{KeyGroqAPIKey, KeySupabaseURL, KeySupabaseKey}

// Strategy is one named secret source. Lookup reports found=false for
// anything it cannot answer, including its own failures.
type Strategy interface {
	Name() string
	Lookup(key string) (string, bool)
}

// SecretsFileStrategy reads a flat key/value secrets file.
// .yaml and .yml are parsed as YAML, everything else as TOML.
type SecretsFileStrategy struct {
	Path string

	once   sync.Once
	values map[string]any
}

func NewSecretsFileStrategy(path string) *SecretsFileStrategy {
	return &SecretsFileStrategy{Path: path}
}

func (s *SecretsFileStrategy) Name() string {
	return "secrets file " + s.Path
}

func (s *SecretsFileStrategy) Lookup(key string) (string, bool) {
	s.once.Do(s.load)

	raw, ok := s.values[key]
	if !ok {
		return "", false
	}
	v, ok := raw.(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (s *SecretsFileStrategy) load() {
	values, err := readSecretsFile(s.Path)
	if err != nil {
		// not fatal: the next strategy gets a chance
		observability.Logger().Debug("secrets file unavailable", "path", s.Path, "error", err)
		return
	}
	s.values = values
}

func readSecretsFile(path string) (map[string]any, error) {
	if path == "" {
		return nil, errors.New("no secrets file configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read secrets file")
	}

	values := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, errors.Wrap(err, "parse yaml secrets")
		}
	default:
		if err := toml.Unmarshal(data, &values); err != nil {
			return nil, errors.Wrap(err, "parse toml secrets")
		}
	}
	return values, nil
}

// EnvStrategy reads process environment variables of the same name.
type EnvStrategy struct{}

func (EnvStrategy) Name() string { return "environment" }

func (EnvStrategy) Lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Resolver tries its strategies in order.
type Resolver struct {
	Strategies []Strategy
}

func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{Strategies: strategies}
}

// DefaultResolver checks the secrets file first, then the environment.
func DefaultResolver(secretsFile string) *Resolver {
	return NewResolver(NewSecretsFileStrategy(secretsFile), EnvStrategy{})
}

// Resolve returns the first non-empty value and the strategy that had it.
func (r *Resolver) Resolve(key string) (value string, source string, ok bool) {
	for _, s := range r.Strategies {
		if v, found := s.Lookup(key); found {
			return v, s.Name(), true
		}
	}
	return "", "", false
}

// MissingKeysError lists every required secret that no strategy could provide.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return "missing config: " + strings.Join(e.Keys, ", ") +
		". Add them to the secrets file or the environment"
}

// ResolveCredentials resolves all required keys and fails with a
// *MissingKeysError naming every missing one.
func ResolveCredentials(r *Resolver) (domain.Credentials, error) {
	log := observability.Logger()

	found := make(map[string]string, len(RequiredKeys))
	var missing []string
	for _, key := range RequiredKeys {
		v, source, ok := r.Resolve(key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		log.Debug("resolved secret", "key", key, "source", source)
		found[key] = v
	}

	if len(missing) > 0 {
		return domain.Credentials{}, &MissingKeysError{Keys: missing}
	}

	return domain.Credentials{
		CompletionAPIKey: found[KeyGroqAPIKey],
		StoreURL:         found[KeySupabaseURL],
		StoreKey:         found[KeySupabaseKey],
	}, nil
}
