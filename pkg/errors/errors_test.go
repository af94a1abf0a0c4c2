package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("select: %w", Wrap(CodeInvalidInput, "branch id cannot be empty", nil))

	require.True(t, IsCode(err, CodeInvalidInput))
	require.False(t, IsCode(err, CodeUnknownBranch))
	require.False(t, IsCode(errors.New("plain"), CodeInvalidInput))
}

func TestMessageOf(t *testing.T) {
	cause := errors.New("boom")

	require.Equal(t, "no branch selected", MessageOf(Wrap(CodeInvalidInput, "no branch selected", cause)))
	require.Equal(t, "boom", MessageOf(cause))
	require.Empty(t, MessageOf(nil))
}

func TestCodesAreDistinct(t *testing.T) {
	codes := []string{CodeInvalidInput, CodeUnknownBranch, CodeNoPredictions}
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		require.NotEmpty(t, code)
		_, dup := seen[code]
		require.False(t, dup, code)
		seen[code] = struct{}{}
	}
}
