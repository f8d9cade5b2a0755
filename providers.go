package authkit

import "strings"

// Social provider identifiers known to the backend.
const (
	ProviderKakao  = "kakao"
	ProviderApple  = "apple"
	ProviderGoogle = "google"
)

// ProviderDefinition is the static description of a social provider. Runtime
// secrets (client id, redirect uri) are resolved separately from the
// environment.
type ProviderDefinition struct {
	ID                    string            `yaml:"id"`
	Name                  string            `yaml:"name"`
	AuthorizationEndpoint string            `yaml:"authorizationEndpoint"`
	CallbackPath          string            `yaml:"callbackPath"`
	NativeCallbackPath    string            `yaml:"nativeCallbackPath,omitempty"`
	DefaultScopes         []string          `yaml:"defaultScopes"`
	ResponseType          string            `yaml:"responseType,omitempty"`
	ScopeSeparator        string            `yaml:"scopeSeparator,omitempty"`
	Implemented           bool              `yaml:"implemented"`
	ExtraAuthorizeParams  map[string]string `yaml:"extraAuthorizeParams,omitempty"`
	// RequiresClientConfig defaults to true; only providers whose whole flow
	// runs through the backend may opt out.
	RequiresClientConfig *bool `yaml:"requiresClientConfig,omitempty"`
}

func (d ProviderDefinition) requiresClientConfig() bool {
	return d.RequiresClientConfig == nil || *d.RequiresClientConfig
}

// ResolvedProviderConfig is a ProviderDefinition with environment-resolved
// runtime fields applied. An unimplemented provider never resolves.
type ResolvedProviderConfig struct {
	ProviderDefinition

	ClientID    string
	RedirectURI string
	Scopes      []string
}

// providerEnvKeys names the environment variables a provider reads its
// runtime configuration from.
type providerEnvKeys struct {
	clientID           string
	redirectURI        string
	scopes             string
	nativeCallbackPath string
}

// defaultKakaoNativeCallbackPath is the backend endpoint that accepts a
// Kakao-issued identity token instead of an authorization code.
const defaultKakaoNativeCallbackPath = "/auth/kakao/native"

func boolPtr(b bool) *bool { return &b }

func builtinProviderDefinitions() map[string]ProviderDefinition {
	return map[string]ProviderDefinition{
		ProviderKakao: {
			ID:                    ProviderKakao,
			Name:                  "Kakao",
			AuthorizationEndpoint: "https://kauth.kakao.com/oauth/authorize",
			CallbackPath:          "/auth/kakao/callback",
			NativeCallbackPath:    defaultKakaoNativeCallbackPath,
			DefaultScopes:         []string{"openid", "profile_nickname", "account_email"},
			ResponseType:          "code",
			ScopeSeparator:        " ",
			Implemented:           true,
			RequiresClientConfig:  boolPtr(false),
			ExtraAuthorizeParams: map[string]string{
				"prompt": "login",
			},
		},
		ProviderApple: {
			ID:                    ProviderApple,
			Name:                  "Apple ID",
			AuthorizationEndpoint: "https://appleid.apple.com/auth/authorize",
			CallbackPath:          "/auth/apple/callback",
			DefaultScopes:         []string{"name", "email"},
			ResponseType:          "code",
			ScopeSeparator:        " ",
			Implemented:           false,
			ExtraAuthorizeParams: map[string]string{
				"response_mode": "form_post",
			},
		},
		ProviderGoogle: {
			ID:                    ProviderGoogle,
			Name:                  "Google",
			AuthorizationEndpoint: "https://accounts.google.com/o/oauth2/v2/auth",
			CallbackPath:          "/auth/google/callback",
			DefaultScopes:         []string{"profile", "email"},
			ResponseType:          "code",
			ScopeSeparator:        " ",
			Implemented:           false,
			ExtraAuthorizeParams: map[string]string{
				"access_type":            "offline",
				"include_granted_scopes": "true",
				"prompt":                 "consent",
			},
		},
	}
}

var builtinEnvKeys = map[string]providerEnvKeys{
	ProviderKakao: {
		clientID:           "OAUTH_KAKAO_CLIENT_ID",
		redirectURI:        "OAUTH_KAKAO_REDIRECT_URI",
		scopes:             "OAUTH_KAKAO_SCOPES",
		nativeCallbackPath: "OAUTH_KAKAO_NATIVE_CALLBACK_PATH",
	},
	ProviderApple: {
		clientID:    "APPLE_CLIENT_ID",
		redirectURI: "APPLE_REDIRECT_URI",
		scopes:      "APPLE_AUTH_SCOPES",
	},
	ProviderGoogle: {
		clientID:    "GOOGLE_CLIENT_ID",
		redirectURI: "GOOGLE_REDIRECT_URI",
		scopes:      "GOOGLE_AUTH_SCOPES",
	},
}

var builtinDisplayNames = map[string]string{
	ProviderKakao:  "Kakao",
	ProviderApple:  "Apple ID",
	ProviderGoogle: "Google",
}

// ProviderDisplayName returns the human-facing name for a provider id,
// falling back to the raw id for unknown providers.
func ProviderDisplayName(id string) string {
	if name, ok := builtinDisplayNames[id]; ok {
		return name
	}
	return id
}

// EnvLookup reads a configuration value by key. It exists so tests and host
// applications can supply configuration without touching the process
// environment.
type EnvLookup func(key string) string

// ProviderRegistry resolves per-provider static configuration merged with
// environment overrides and validates required runtime secrets.
type ProviderRegistry struct {
	definitions map[string]ProviderDefinition
	envKeys     map[string]providerEnvKeys
	lookup      EnvLookup
	logger      Logger
}

// NewProviderRegistry creates a registry with the built-in provider set.
// A nil lookup reads from the process environment.
func NewProviderRegistry(lookup EnvLookup, logger Logger) *ProviderRegistry {
	if lookup == nil {
		lookup = osEnvLookup
	}
	return &ProviderRegistry{
		definitions: builtinProviderDefinitions(),
		envKeys:     builtinEnvKeys,
		lookup:      lookup,
		logger:      orNoopLogger(logger),
	}
}

// OverrideDefinition replaces or adds a provider definition. Used by the
// configuration loader for YAML-supplied providers.
func (r *ProviderRegistry) OverrideDefinition(def ProviderDefinition) {
	r.definitions[def.ID] = def
}

// Resolve returns the runtime configuration for a provider.
// Unrecognized ids fail UNKNOWN, unimplemented providers NOT_IMPLEMENTED,
// and missing required secrets CONFIG_ERROR listing the missing keys.
func (r *ProviderRegistry) Resolve(id string) (*ResolvedProviderConfig, error) {
	def, ok := r.definitions[id]
	if !ok {
		return nil, NewAuthError(ErrCodeUnknown, "unsupported sign-in provider", id)
	}

	if !def.Implemented {
		return nil, NewAuthError(ErrCodeNotImplemented, def.Name+" sign-in is not available yet", id)
	}

	keys := r.envKeys[id]
	clientID := r.lookupValue(keys.clientID)
	redirectURI := r.lookupValue(keys.redirectURI)

	if def.requiresClientConfig() {
		var missing []string
		if keys.clientID != "" && clientID == "" {
			missing = append(missing, keys.clientID)
		}
		if keys.redirectURI != "" && redirectURI == "" {
			missing = append(missing, keys.redirectURI)
		}
		if len(missing) > 0 {
			r.logger.Errorf("provider %s missing required configuration: %v", id, missing)
			return nil, NewAuthError(ErrCodeConfigError, def.Name+" sign-in is not fully configured", id).
				WithDetails(map[string]any{"missingKeys": missing})
		}
	}

	scopes := def.DefaultScopes
	if raw := r.lookupValue(keys.scopes); raw != "" {
		scopes = splitScopes(raw)
	}

	resolved := &ResolvedProviderConfig{
		ProviderDefinition: def,
		ClientID:           clientID,
		RedirectURI:        redirectURI,
		Scopes:             scopes,
	}
	if path := r.lookupValue(keys.nativeCallbackPath); path != "" {
		resolved.NativeCallbackPath = path
	}
	return resolved, nil
}

func (r *ProviderRegistry) lookupValue(key string) string {
	if key == "" {
		return ""
	}
	return r.lookup(key)
}

// splitScopes parses a comma-separated scope override, trimming whitespace
// and dropping empty entries.
func splitScopes(raw string) []string {
	parts := strings.Split(raw, ",")
	scopes := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}
