package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var (
	urlPattern     = regexp.MustCompile(`(?i)(?:https?|ftp)://\S+|www\.\S+`)
	addressPattern = regexp.MustCompile(`\S+@\S+`)
	symbolPattern  = regexp.MustCompile(`[[:punct:]0-9]+`)
)

// TextNormalizer prepares raw text for classification
type TextNormalizer struct {
	logger *zap.Logger
}

// NewTextNormalizer creates a new TextNormalizer
func NewTextNormalizer(logger *zap.Logger) *TextNormalizer {
	return &TextNormalizer{
		logger: logger,
	}
}

// Normalize lowercases the text, strips URLs, mail addresses, punctuation and
// digits, and collapses whitespace. It is total: any input yields a string,
// possibly empty.
func (n *TextNormalizer) Normalize(text string) string {
	normalized := strings.ToLower(text)
	normalized = urlPattern.ReplaceAllString(normalized, "")
	normalized = addressPattern.ReplaceAllString(normalized, "")
	normalized = symbolPattern.ReplaceAllString(normalized, " ")
	normalized = strings.Join(strings.Fields(normalized), " ")

	n.logger.Debug("Text normalized",
		zap.Int("original_size", len(text)),
		zap.Int("normalized_size", len(normalized)))

	return normalized
}

// Tokenize normalizes the text and splits it into tokens
func (n *TextNormalizer) Tokenize(text string) []string {
	normalized := n.Normalize(text)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// TruncatePreview returns at most maxLen bytes of text for echoing back in
// responses and logs, without splitting a UTF-8 sequence
func TruncatePreview(text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}

	truncated := text[:maxLen]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}
