package chutes

import (
	"fmt"
	"strings"

	"github.com/nulzo/provider-hub/internal/llm"
)

// maxLabelLength is the DNS limit for a single hostname label.
const maxLabelLength = 63

// ChuteBaseURL maps `username/model` onto https://username-model.chutes.ai.
// Only the first two segments are used, anything after a second slash is
// ignored. Both are folded into a single DNS label; anything outside
// [a-z0-9-] becomes a hyphen.
func ChuteBaseURL(model string) (string, error) {
	parts := strings.Split(model, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q has no username segment", llm.ErrInvalidModelID, model)
	}
	username, modelName := parts[0], parts[1]

	user := sanitizeLabel(username)
	name := sanitizeLabel(modelName)
	if user == "" || name == "" {
		return "", fmt.Errorf("%w: %q", llm.ErrInvalidModelID, model)
	}

	label := user + "-" + name
	if len(label) > maxLabelLength {
		return "", fmt.Errorf("%w: %q exceeds %d characters as a hostname", llm.ErrInvalidModelID, model, maxLabelLength)
	}

	return fmt.Sprintf("https://%s.chutes.ai", label), nil
}

func sanitizeLabel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
