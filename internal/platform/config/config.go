package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 120 * time.Second
	defaultPlatform         = "shopify"
	defaultAPIVersion       = "2024-07"
	defaultReturnWindowDays = 7
	defaultCommerceTimeout  = 20 * time.Second
	defaultEventsCollection = "interaction_events"
	defaultClassifierModel  = "llama3-8b-8192"
	defaultClassifierURL    = "https://api.groq.com/openai/v1/chat/completions"
	defaultClassifierWait   = 10 * time.Second
)

// ErrUnsupportedPlatform is returned when the commerce platform selector names
// a platform this build does not implement.
var ErrUnsupportedPlatform = errors.New("config: commerce platform not implemented")

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Commerce   CommerceConfig
	Firestore  FirestoreConfig
	Events     EventsConfig
	Classifier ClassifierConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CommerceConfig holds the commerce platform selector and Shopify admin API
// settings. StoreDomain wins over StoreURL when both are set; either may carry
// a scheme prefix or trailing slash, which the client strips.
type CommerceConfig struct {
	Platform         string
	StoreDomain      string
	StoreURL         string
	AccessToken      string
	APIVersion       string
	ReturnWindowDays int
	RequestTimeout   time.Duration
}

// FirestoreConfig stores event-log database parameters.
type FirestoreConfig struct {
	ProjectID        string
	EmulatorHost     string
	EventsCollection string
}

// EventsConfig controls optional fan-out of interaction events.
type EventsConfig struct {
	PubSubTopic string
}

// ClassifierConfig defines the sentiment/intent classification endpoint.
type ClassifierConfig struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// SecretResolver resolves references to external secrets (e.g. secret:// URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secret       SecretResolver
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values
// in the map take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets a custom secret resolver used for secret:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// Load assembles the application configuration by combining defaults, .env
// overrides, environment variables, and optional secret resolution.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "COPILOT_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "COPILOT_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "COPILOT_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "COPILOT_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Commerce: CommerceConfig{
			Platform:         strings.ToLower(stringWithDefault(lookup, "COPILOT_COMMERCE_PLATFORM", defaultPlatform)),
			StoreDomain:      stringWithDefault(lookup, "COPILOT_SHOPIFY_STORE_DOMAIN", ""),
			StoreURL:         stringWithDefault(lookup, "COPILOT_SHOPIFY_STORE_URL", ""),
			AccessToken:      stringWithDefault(lookup, "COPILOT_SHOPIFY_ACCESS_TOKEN", ""),
			APIVersion:       stringWithDefault(lookup, "COPILOT_SHOPIFY_API_VERSION", defaultAPIVersion),
			ReturnWindowDays: intWithDefault(lookup, "COPILOT_RETURN_WINDOW_DAYS", defaultReturnWindowDays),
			RequestTimeout:   durationWithDefault(lookup, "COPILOT_COMMERCE_TIMEOUT", defaultCommerceTimeout),
		},
		Firestore: FirestoreConfig{
			ProjectID:        stringWithDefault(lookup, "COPILOT_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost:     stringWithDefault(lookup, "COPILOT_FIRESTORE_EMULATOR_HOST", ""),
			EventsCollection: stringWithDefault(lookup, "COPILOT_EVENTS_COLLECTION", defaultEventsCollection),
		},
		Events: EventsConfig{
			PubSubTopic: stringWithDefault(lookup, "COPILOT_EVENTS_PUBSUB_TOPIC", ""),
		},
		Classifier: ClassifierConfig{
			Endpoint: stringWithDefault(lookup, "COPILOT_CLASSIFIER_ENDPOINT", defaultClassifierURL),
			APIKey:   stringWithDefault(lookup, "COPILOT_CLASSIFIER_API_KEY", ""),
			Model:    stringWithDefault(lookup, "COPILOT_CLASSIFIER_MODEL", defaultClassifierModel),
			Timeout:  durationWithDefault(lookup, "COPILOT_CLASSIFIER_TIMEOUT", defaultClassifierWait),
		},
	}

	// Resolve secrets when values reference an external secret store.
	secretFields := []*string{
		&cfg.Commerce.AccessToken,
		&cfg.Classifier.APIKey,
	}
	for _, field := range secretFields {
		resolved, err := resolveSecret(ctx, *field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*field = resolved
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	// The platform selector must name the one implemented platform; any other
	// value is a startup error per the pluggable-platform seam.
	if cfg.Commerce.Platform != defaultPlatform {
		return fmt.Errorf("%w: %q", ErrUnsupportedPlatform, cfg.Commerce.Platform)
	}

	var fields []string
	if cfg.Commerce.ReturnWindowDays <= 0 {
		fields = append(fields, "Commerce.ReturnWindowDays")
	}
	if strings.TrimSpace(cfg.Commerce.APIVersion) == "" {
		fields = append(fields, "Commerce.APIVersion")
	}
	if strings.TrimSpace(cfg.Server.Port) == "" {
		fields = append(fields, "Server.Port")
	}
	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if value == "" || !isSecretReference(value) {
		return value, nil
	}
	if resolver == nil {
		return "", fmt.Errorf("config: secret reference %q given but no resolver configured", redactRef(value))
	}
	resolved, err := resolver.ResolveSecret(ctx, value)
	if err != nil {
		return "", fmt.Errorf("config: resolving secret %q: %w", redactRef(value), err)
	}
	return resolved, nil
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func redactRef(ref string) string {
	if idx := strings.Index(ref, "://"); idx >= 0 {
		return ref[:idx+3] + "..."
	}
	return "..."
}

func loadDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: opening env file %s: %w", path, err)
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: reading env file %s: %w", path, err)
	}
	return values, nil
}

type lookupFunc func(key string) (string, bool)

func stringWithDefault(lookup lookupFunc, key, fallback string) string {
	if value, ok := lookup(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func intWithDefault(lookup lookupFunc, key string, fallback int) int {
	if value, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func durationWithDefault(lookup lookupFunc, key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok {
		trimmed := strings.TrimSpace(value)
		if parsed, err := time.ParseDuration(trimmed); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(trimmed); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
