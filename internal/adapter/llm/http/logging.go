package http

import (
	"fmt"
	"regexp"
)

// MaxLoggedResponseLength is the maximum length of response text to include
// in logs. Responses longer than this are truncated so diff content and
// secrets are not shipped to log aggregators wholesale.
const MaxLoggedResponseLength = 200

// TruncateForLogging safely truncates a response string for logging purposes.
func TruncateForLogging(response string) string {
	if len(response) <= MaxLoggedResponseLength {
		return response
	}
	return response[:MaxLoggedResponseLength] + fmt.Sprintf("... [truncated, total length=%d bytes]", len(response))
}

var urlSecretPatterns = []struct {
	re    *regexp.Regexp
	param string
}{
	{regexp.MustCompile(`key=([^&"\s]+)`), "key"},
	{regexp.MustCompile(`apiKey=([^&"\s]+)`), "apiKey"},
	{regexp.MustCompile(`api_key=([^&"\s]+)`), "api_key"},
	{regexp.MustCompile(`token=([^&"\s]+)`), "token"},
	{regexp.MustCompile(`access_token=([^&"\s]+)`), "access_token"},
}

// RedactURLSecrets redacts API keys and tokens from URLs appearing in error
// messages, so query-parameter credentials never reach the terminal or logs.
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}
	result := text
	for _, pattern := range urlSecretPatterns {
		result = pattern.re.ReplaceAllString(result, pattern.param+"=[REDACTED]")
	}
	return result
}
