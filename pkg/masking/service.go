// Package masking redacts guest contact details and provider credentials
// from text before it reaches logs, warnings or the message log.
package masking

import "log/slog"

// Service applies code maskers then regex patterns. It is safe for
// concurrent use; a nil *Service returns its input unchanged.
type Service struct {
	maskers  []Masker
	patterns []*CompiledPattern
}

// NewService creates a Service with the built-in maskers and patterns.
func NewService() *Service {
	s := &Service{
		maskers:  []Masker{EmailMasker{}},
		patterns: compilePatterns(builtinPatterns),
	}
	slog.Debug("Masking service initialized", "code_maskers", len(s.maskers), "patterns", len(s.patterns))
	return s
}

// Mask returns content with every known sensitive value replaced.
func (s *Service) Mask(content string) string {
	if s == nil || content == "" {
		return content
	}
	masked := content
	for _, m := range s.maskers {
		if m.AppliesTo(masked) {
			masked = m.Mask(masked)
		}
	}
	for _, p := range s.patterns {
		masked = p.Regex.ReplaceAllString(masked, p.Replacement)
	}
	return masked
}

// MaskError returns the masked text of err, or "" for nil.
func (s *Service) MaskError(err error) string {
	if err == nil {
		return ""
	}
	return s.Mask(err.Error())
}
