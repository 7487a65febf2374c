package tracing

import (
	"strings"
)

const (
	DefaultMaxLength = 200

	MaxSQLLength   = 500
	MaxRedisLength = 100
	// MaxResumeLength bounds résumé text copied into span attributes.
	MaxResumeLength = 150
)

// attribute names containing any of these are masked rather than truncated
var piiKeywords = []string{
	"email",
	"phone",
	"password",
	"address",
	"name",
	"secret",
	"token",
	"api_key",
	"transcript",
}

// SafeAttributeValue masks values of PII-bearing attributes and truncates the rest.
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII keeps the edges of value and stars the middle.
//
//	"Bob"                 -> "B*b"
//	"john.smith@mail.com" -> "jo***************om"
func MaskPII(value string) string {
	if value == "" {
		return ""
	}

	runes := []rune(value)
	n := len(runes)
	switch {
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[:1]) + "*"
	case n <= 4:
		return string(runes[:1]) + strings.Repeat("*", n-2) + string(runes[n-1:])
	}
	return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
}

// TruncateString shortens s to maxLength runes, keeping both ends around "...".
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

func SafeSQL(sql string) string {
	return TruncateString(sql, MaxSQLLength)
}

func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}

func SafeResumeContent(content string) string {
	return TruncateString(content, MaxResumeLength)
}
