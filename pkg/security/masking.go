package security

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "***REDACTED***"

var (
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|secret|token|password|auth)(["\s:=]+["']?)([a-zA-Z0-9_-]{16,})`)

	sensitiveParams = []string{"api-key", "api_key", "apikey", "key", "token", "secret", "auth"}
)

// MaskURL hides credentials in an RPC or API URL. Userinfo passwords and
// sensitive query parameters are replaced; the host and path stay readable.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return MaskString(raw)
	}

	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}

	query := u.Query()
	changed := false
	for name := range query {
		if isSensitiveParam(name) {
			query.Set(name, "xxxxx")
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// MaskString masks key=value secrets inside free text such as upstream
// error bodies. Signatures and addresses are left alone.
func MaskString(s string) string {
	return apiKeyPattern.ReplaceAllString(s, "$1$2"+redacted)
}

// MaskAPIKey masks an API key showing only first 4 chars
func MaskAPIKey(key string) string {
	if len(key) < 4 {
		return "****"
	}
	return key[:4] + strings.Repeat("*", len(key)-4)
}

func isSensitiveParam(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range sensitiveParams {
		if lower == p || strings.HasSuffix(lower, "-"+p) || strings.HasSuffix(lower, "_"+p) {
			return true
		}
	}
	return false
}
