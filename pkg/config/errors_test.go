package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "with field",
			err:  NewValidationError("auto_close", "duration", errors.New("must be positive")),
			want: "auto_close: field 'duration': must be positive",
		},
		{
			name: "without field",
			err:  NewValidationError("transport", "", errors.New("bad section")),
			want: "transport: bad section",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorsUnwrap(t *testing.T) {
	base := errors.New("base error")

	assert.ErrorIs(t, NewValidationError("auth", "token_ttl", base), base)

	loadErr := NewLoadError(ConfigFileName, base)
	assert.ErrorIs(t, loadErr, base)
	assert.Contains(t, loadErr.Error(), "failed to load companion.yaml")
}
