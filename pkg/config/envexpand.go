package config

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

// ExpandEnv expands {{.VAR_NAME}} references in YAML content from the
// process environment. The template syntax leaves literal $ characters
// (passwords, Markdown, shell snippets) untouched.
//
// Missing variables expand to the empty string. Content that is not a valid
// template is returned unchanged so the YAML parser can report the problem.
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("companion").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	env := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok && key != "" {
			env[key] = value
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, env); err != nil {
		return data
	}

	return buf.Bytes()
}
