package stack_io

import (
	"context"
	"errors"
	"testing"

	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/stretchr/testify/assert"
)

func TestNewContextAndEnd(t *testing.T) {
	rc := NewContext(context.Background(), "status")
	assert.Equal(t, "status", rc.Command)
	assert.NotNil(t, rc.Log)

	var err error
	rc.End(&err)

	failed := errors.New("boom")
	rc2 := NewContext(context.Background(), "remove")
	rc2.End(&failed)
}

func TestClassifyError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", classifyError(nil))
	assert.Equal(t, "validation", classifyError(stack_err.NewValidationError("x")))
	assert.Equal(t, "precondition", classifyError(stack_err.NewPreconditionError("x")))
	assert.Equal(t, "user", classifyError(stack_err.NewUserCancelledError("x")))
	assert.Equal(t, "system", classifyError(errors.New("x")))
}

func TestNewTestContext(t *testing.T) {
	rc := NewTestContext(t)
	assert.Equal(t, t.Name(), rc.Command)
	rc.Log.Info("test logger works")
}
