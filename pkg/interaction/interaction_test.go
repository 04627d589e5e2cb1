package interaction

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return NewPrompter(strings.NewReader(input), &out), &out
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
	}{
		{"y", "y\n", false, true},
		{"yes upper", "YES\n", false, true},
		{"n", "n\n", true, false},
		{"empty default no", "\n", false, false},
		{"empty default yes", "\n", true, true},
		{"garbage", "maybe\n", true, false},
		{"eof", "", true, false},
		{"no newline", "y", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := prompter(tt.input)
			got, err := p.Confirm(context.Background(), "Delete container 340?", tt.defaultYes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Delete container 340?")
		})
	}
}

func TestConfirmTyped(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"DELETE\n", true},
		{"DELETE\r\n", true},
		{"delete\n", false},
		{"DELETE \n", false},
		{"yes\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			p, out := prompter(tt.input)
			got, err := p.ConfirmTyped(context.Background(), "This destroys every container.", "DELETE")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Type DELETE to confirm")
		})
	}
}

func TestSequentialPrompts(t *testing.T) {
	p, _ := prompter("y\nn\n")
	first, err := p.Confirm(context.Background(), "first", false)
	require.NoError(t, err)
	second, err := p.Confirm(context.Background(), "second", false)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)
}

func TestRequireRoot(t *testing.T) {
	rc := stack_io.NewTestContext(t)
	assert.NoError(t, RequireRoot(rc, "radio remove", 0))

	err := RequireRoot(rc, "radio remove", 1000)
	require.Error(t, err)
	assert.Equal(t, stack_err.CategoryPermission, stack_err.CategoryOf(err))
	assert.Equal(t, stack_err.ExitFailure, stack_err.GetExitCode(err))
}
