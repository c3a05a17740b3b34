package imagechat

import (
	"encoding/json"
	"fmt"
	"strings"
)

const redacted = "[REDACTED]"

// maxLoggedString caps string values in logged payloads; base64 images would
// otherwise flood the log.
const maxLoggedString = 256

// sensitiveKeySuffixes match keys such as "api_key", "x-api-key" or
// "access_token" but not "max_tokens".
var sensitiveKeySuffixes = []string{
	"api_key", "apikey", "api-key",
	"authorization", "token", "secret",
	"password", "credential", "credentials",
}

// RedactPayload returns a log-safe copy of v. Values under credential-like
// keys are replaced and long strings are abbreviated. v itself is not
// modified.
func RedactPayload(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<unloggable %T>", v)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Sprintf("<unloggable %T>", v)
	}
	return redactValue(generic)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if isSensitiveKey(k) {
				out[k] = redacted
				continue
			}
			out[k] = redactValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = redactValue(val)
		}
		return out
	case string:
		if len(t) > maxLoggedString {
			return fmt.Sprintf("%s...(%d bytes)", t[:32], len(t))
		}
		return t
	default:
		return t
	}
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, suffix := range sensitiveKeySuffixes {
		if strings.HasSuffix(k, suffix) {
			return true
		}
	}
	return false
}

// RedactString masks a credential for display, keeping a short suffix.
func RedactString(s string) string {
	if len(s) <= 8 {
		return redacted
	}
	return redacted + "..." + s[len(s)-4:]
}
