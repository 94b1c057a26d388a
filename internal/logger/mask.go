package logger

import (
	"regexp"
	"strings"
)

// Redacted replaces the value of secret fields.
const Redacted = "[REDACTED]"

var secretKeys = map[string]bool{
	"password":      true,
	"token":         true,
	"secret":        true,
	"authorization": true,
	"refresh_token": true,
	"access_token":  true,
}

var emailPattern = regexp.MustCompile(`([a-zA-Z0-9._+-]+)(@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)

// controlChars escapes characters that could forge log lines in console output.
var controlChars = strings.NewReplacer(
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// MaskEmail keeps the first three characters of the local part.
// Local parts of two characters or fewer are left as they are.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return email
	}
	if len(local) > 3 {
		local = local[:3]
	}
	return local + "***" + domain
}

// MaskString escapes control characters and masks any email address found in
// free text.
func MaskString(s string) string {
	s = controlChars.Replace(s)
	if !strings.Contains(s, "@") {
		return s
	}
	return emailPattern.ReplaceAllStringFunc(s, MaskEmail)
}

// MaskPII returns a masked copy of fields. Secret keys are redacted, "email"
// keys are masked, and nested maps and slices are walked. The input is never
// modified.
func MaskPII(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		key := strings.ToLower(k)
		switch {
		case secretKeys[key]:
			out[k] = Redacted
		case key == "email":
			if s, ok := v.(string); ok {
				out[k] = MaskEmail(controlChars.Replace(s))
			} else {
				out[k] = maskValue(v)
			}
		default:
			out[k] = maskValue(v)
		}
	}
	return out
}

func maskValue(v any) any {
	switch val := v.(type) {
	case string:
		return MaskString(val)
	case map[string]any:
		return MaskPII(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = maskValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = MaskString(item)
		}
		return out
	default:
		return v
	}
}

// Fields flattens fields into the alternating key/value form accepted by the
// sugared logger's *w methods, masking them first.
func Fields(fields map[string]any) []any {
	masked := MaskPII(fields)
	out := make([]any, 0, len(masked)*2)
	for k, v := range masked {
		out = append(out, k, v)
	}
	return out
}
