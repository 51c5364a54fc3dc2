package masking

import (
	"regexp"
	"strings"
)

// Masker is a code-based masker for values a single regex replacement
// cannot express, such as partial masking that keeps part of the input.
type Masker interface {
	// Name returns the unique identifier for this masker.
	Name() string

	// AppliesTo is a cheap pre-check run before Mask.
	AppliesTo(data string) bool

	// Mask returns data with the masker's values replaced.
	Mask(data string) string
}

var emailRegex = regexp.MustCompile(`([A-Za-z0-9._%+-]+)@([A-Za-z0-9.-]+\.[A-Za-z]{2,})`)

// EmailMasker keeps the first character of the local part and the domain,
// so "jane.doe@example.com" becomes "j***@example.com".
type EmailMasker struct{}

func (EmailMasker) Name() string { return "email" }

func (EmailMasker) AppliesTo(data string) bool { return strings.Contains(data, "@") }

func (EmailMasker) Mask(data string) string {
	return emailRegex.ReplaceAllStringFunc(data, func(addr string) string {
		m := emailRegex.FindStringSubmatch(addr)
		return m[1][:1] + "***@" + m[2]
	})
}
