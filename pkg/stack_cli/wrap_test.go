package stack_cli

import (
	"context"
	"errors"
	"testing"

	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		fn       RunFunc
		wantErr  string
		wantExit int
	}{
		{
			name: "success",
			fn: func(rc *stack_io.RuntimeContext, cmd *cobra.Command, args []string) error {
				assert.NotNil(t, rc.Ctx)
				assert.NotNil(t, rc.Log)
				assert.Equal(t, []string{"a"}, args)
				return nil
			},
			wantExit: stack_err.ExitOK,
		},
		{
			name: "plain error",
			fn: func(*stack_io.RuntimeContext, *cobra.Command, []string) error {
				return errors.New("command failed")
			},
			wantErr:  "command failed",
			wantExit: stack_err.ExitFailure,
		},
		{
			name: "classified error is kept",
			fn: func(*stack_io.RuntimeContext, *cobra.Command, []string) error {
				return stack_err.NewValidationError("CTID must be between 100 and 999999")
			},
			wantErr:  "CTID must be between",
			wantExit: stack_err.ExitFailure,
		},
		{
			name: "panic",
			fn: func(*stack_io.RuntimeContext, *cobra.Command, []string) error {
				panic("boom")
			},
			wantErr:  "panic: boom",
			wantExit: stack_err.ExitFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test-cmd"}
			err := Wrap(tt.fn)(cmd, []string{"a"})
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
			assert.Equal(t, tt.wantExit, stack_err.GetExitCode(err))
		})
	}
}

func TestWrapUsesCommandContext(t *testing.T) {
	type key struct{}
	parent := context.WithValue(context.Background(), key{}, "v")
	cmd := &cobra.Command{Use: "test-cmd"}
	cmd.SetContext(parent)

	err := Wrap(func(rc *stack_io.RuntimeContext, _ *cobra.Command, _ []string) error {
		assert.Equal(t, "v", rc.Ctx.Value(key{}))
		return nil
	})(cmd, nil)
	require.NoError(t, err)
}
