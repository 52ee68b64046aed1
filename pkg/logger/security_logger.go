package logger

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	urlInMessage   = regexp.MustCompile(`https?://[^\s]+`)
	secretInString = regexp.MustCompile(`(?i)(key|token|secret|password)[=:]\s*[^\s&]+`)
)

// SecurityLogger keeps query strings, credentials and secrets out of logs.
// Listing URLs often carry check-in dates, guest counts and referral tokens
// in the query string.
type SecurityLogger struct {
	*Logger
}

// NewSecurityLogger wraps base, or the global logger when base is nil
func NewSecurityLogger(base *Logger) *SecurityLogger {
	if base == nil {
		base = GetLogger()
	}
	return &SecurityLogger{Logger: base}
}

// MaskURL keeps scheme, host and path and replaces the rest with a short hash
// of the full URL so repeated requests can still be correlated.
func (sl *SecurityLogger) MaskURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Host == "" {
		return "url#" + sl.GenerateHash(rawURL)
	}

	hash := sl.GenerateHash(rawURL)
	return fmt.Sprintf("%s://%s%s#%s", parsedURL.Scheme, parsedURL.Hostname(), parsedURL.EscapedPath(), hash)
}

// MaskRedisURL drops the password from a redis connection string
func (sl *SecurityLogger) MaskRedisURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "redis#" + sl.GenerateHash(rawURL)
	}
	if parsedURL.User != nil {
		parsedURL.User = url.User(parsedURL.User.Username())
	}
	return parsedURL.String()
}

// MaskSensitiveData masks URL and secret-bearing values in a field map
func (sl *SecurityLogger) MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))

	for key, value := range data {
		lowerKey := strings.ToLower(key)
		str, isString := value.(string)

		switch {
		case !isString:
			masked[key] = value
		case strings.Contains(lowerKey, "redis"):
			masked[key] = sl.MaskRedisURL(str)
		case strings.Contains(lowerKey, "url"):
			masked[key] = sl.MaskURL(str)
		case strings.Contains(lowerKey, "password"),
			strings.Contains(lowerKey, "secret"),
			strings.Contains(lowerKey, "token"),
			strings.HasSuffix(lowerKey, "key"):
			masked[key] = "***"
		default:
			masked[key] = value
		}
	}

	return masked
}

// MaskLogMessage masks URLs and key=value secrets embedded in free text
func (sl *SecurityLogger) MaskLogMessage(message string) string {
	masked := urlInMessage.ReplaceAllStringFunc(message, sl.MaskURL)
	return secretInString.ReplaceAllString(masked, "${1}=***")
}

func (sl *SecurityLogger) withURL(rawURL string, extraFields map[string]interface{}) *Logger {
	fields := sl.MaskSensitiveData(extraFields)
	fields["url"] = sl.MaskURL(rawURL)
	return sl.Logger.WithFields(fields)
}

func (sl *SecurityLogger) WarnWithURL(msg string, rawURL string, extraFields map[string]interface{}) {
	sl.withURL(rawURL, extraFields).Warn(msg)
}

func (sl *SecurityLogger) DebugWithURL(msg string, rawURL string, extraFields map[string]interface{}) {
	sl.withURL(rawURL, extraFields).Debug(msg)
}

// SafeInfo logs info with automatic sensitive data masking
func (sl *SecurityLogger) SafeInfo(msg string, fields map[string]interface{}) {
	sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Info(sl.MaskLogMessage(msg))
}

// GenerateHash returns the first 8 hex characters of the SHA-256 of data
func (sl *SecurityLogger) GenerateHash(data string) string {
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:4])
}
