package sanitize

import "regexp"

const mask = "[REDACTED]"

// Secrets that can show up on a device screen: tokens pasted into fields,
// sign-in prompts and SMS codes echoed in alerts.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`key-[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`Bearer [a-zA-Z0-9\-._~+/]+=*`),
	regexp.MustCompile(`(?i)token[=:]\s*["']?[a-zA-Z0-9\-._]{20,}`),
	regexp.MustCompile(`(?i)(password|пароль)[=:]\s*["']?[^\s"']{8,}`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`\+?\d[\d\s\-()]{8,}\d`),
}

// one-time codes: the digits after "code"/"код" are masked, the word is kept.
var otpPattern = regexp.MustCompile(`(?i)((?:code|код)[^\d\n]{0,20})\d{4,8}`)

// Redact masks secrets and personal data in text recognized from the screen.
func Redact(text string, enabled bool) string {
	if !enabled {
		return text
	}
	text = otpPattern.ReplaceAllString(text, "${1}"+mask)
	for _, p := range patterns {
		text = p.ReplaceAllString(text, mask)
	}
	return text
}
