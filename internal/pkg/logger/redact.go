package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "ada.obi@example.com" → "ad***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	local := parts[0]
	if len(local) > 2 {
		return local[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactName keeps only the first character of a customer name.
// "Ada Obi" → "A***"
func RedactName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return name[:1] + "***"
}
