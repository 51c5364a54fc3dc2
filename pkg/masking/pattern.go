package masking

import (
	"log/slog"
	"regexp"
	"slices"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// Pattern is an uncompiled masking rule.
type Pattern struct {
	Pattern     string
	Replacement string
}

// builtinPatterns are applied in name order after the code maskers.
var builtinPatterns = map[string]Pattern{
	// Telegram bot tokens appear in Bot API URLs quoted by transport errors.
	"telegram_bot_token": {
		Pattern:     `\d{6,12}:[A-Za-z0-9_-]{30,}`,
		Replacement: "[MASKED_BOT_TOKEN]",
	},
	"resend_api_key": {
		Pattern:     `\bre_[A-Za-z0-9_]{16,}\b`,
		Replacement: "[MASKED_API_KEY]",
	},
	"google_api_key": {
		Pattern:     `\bAIza[0-9A-Za-z_-]{35}\b`,
		Replacement: "[MASKED_API_KEY]",
	},
	"bearer_token": {
		Pattern:     `(?i)bearer\s+[A-Za-z0-9._~+/-]+=*`,
		Replacement: "Bearer [MASKED_TOKEN]",
	},
	"phone": {
		Pattern:     `\+\d[\d\s().-]{7,}\d`,
		Replacement: "[MASKED_PHONE]",
	},
}

// compilePatterns compiles rules. Invalid patterns are logged and skipped.
func compilePatterns(rules map[string]Pattern) []*CompiledPattern {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	slices.Sort(names)

	compiled := make([]*CompiledPattern, 0, len(names))
	for _, name := range names {
		rule := rules[name]
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			slog.Error("Failed to compile masking pattern, skipping", "pattern", name, "error", err)
			continue
		}
		compiled = append(compiled, &CompiledPattern{Name: name, Regex: re, Replacement: rule.Replacement})
	}
	return compiled
}
