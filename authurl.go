package authkit

import (
	"net/url"
	"sort"
	"strings"
)

// AuthorizeOptions carries the per-attempt parameters for an authorization
// request URL.
type AuthorizeOptions struct {
	// State is the anti-forgery nonce echoed back in the callback.
	State string
	// Extras are caller-supplied query parameters. They win over the
	// provider's static extras on key collision; empty values are dropped.
	Extras map[string]string
}

type authParam struct {
	key   string
	value string
}

// BuildAuthorizationURL constructs the external authorization-request URL for
// a resolved provider. The serialization order is fixed (client_id,
// redirect_uri, response_type, scope, state, then extras sorted by key) so
// identical inputs always produce an identical URL.
func BuildAuthorizationURL(config *ResolvedProviderConfig, opts AuthorizeOptions) (string, error) {
	if config.ClientID == "" || config.RedirectURI == "" {
		return "", NewAuthError(ErrCodeConfigError, config.Name+" sign-in is not fully configured", config.ID)
	}

	params := []authParam{
		{"client_id", config.ClientID},
		{"redirect_uri", config.RedirectURI},
		{"response_type", responseTypeOrDefault(config.ResponseType)},
	}

	if len(config.Scopes) > 0 {
		sep := config.ScopeSeparator
		if sep == "" {
			sep = " "
		}
		params = append(params, authParam{"scope", strings.Join(config.Scopes, sep)})
	}

	params = append(params, authParam{"state", opts.State})

	// Static extras first, caller extras after; later occurrences replace
	// earlier ones for the same key.
	for _, p := range sortedParams(config.ExtraAuthorizeParams) {
		params = upsertParam(params, p)
	}
	for _, p := range sortedParams(opts.Extras) {
		params = upsertParam(params, p)
	}

	var sb strings.Builder
	sb.WriteString(config.AuthorizationEndpoint)
	sb.WriteByte('?')
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.value))
	}
	return sb.String(), nil
}

func responseTypeOrDefault(rt string) string {
	if rt == "" {
		return "code"
	}
	return rt
}

// sortedParams flattens a parameter map into key-sorted order, dropping
// empty values.
func sortedParams(m map[string]string) []authParam {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]authParam, 0, len(keys))
	for _, k := range keys {
		if m[k] == "" {
			continue
		}
		out = append(out, authParam{key: k, value: m[k]})
	}
	return out
}

func upsertParam(params []authParam, p authParam) []authParam {
	for i := range params {
		if params[i].key == p.key {
			params[i].value = p.value
			return params
		}
	}
	return append(params, p)
}
