package schederrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobalErrorUnwrapsAndFormats(t *testing.T) {
	cause := errors.New("disk full")
	err := NewGlobalError("setup phase", cause)

	require.Contains(t, err.Error(), "setup phase")
	require.Contains(t, err.Error(), "disk full")

	var ge *GlobalError
	require.True(t, errors.As(err, &ge))
	require.Same(t, cause, errors.Unwrap(err))
}

func TestSetupFailedErrorFormatsProjectID(t *testing.T) {
	err := NewSetupFailedError("lib", errors.New("missing bundle"))
	require.Contains(t, err.Error(), "lib")
	require.Contains(t, err.Error(), "missing bundle")

	var sfe *SetupFailedError
	require.True(t, errors.As(err, &sfe))
	require.Equal(t, "lib", sfe.ProjectID)
}

func TestBlockedErrorListsUpstreamNames(t *testing.T) {
	err := NewBlockedError("app", []string{"lib"})
	require.Contains(t, err.Error(), "app")
	require.Contains(t, err.Error(), "lib")
}

func TestDeduplicationErrorUnwraps(t *testing.T) {
	cause := errors.New("producer failed")
	err := NewDeduplicationError("lib", cause)
	require.Same(t, cause, errors.Unwrap(err))
}

func TestDisconnectErrorFormatsProjectID(t *testing.T) {
	err := NewDisconnectError("lib")
	require.Contains(t, err.Error(), "lib")
}

func TestCancelledErrorFormatsProjectID(t *testing.T) {
	err := NewCancelledError("lib")
	require.Contains(t, err.Error(), "lib")
	require.Contains(t, err.Error(), "cancelled")
}

func TestCompilerFailedErrorListsProblems(t *testing.T) {
	err := NewCompilerFailedError("lib", []string{"syntax error on line 4"})
	require.Contains(t, err.Error(), "lib")
	require.Contains(t, err.Error(), "syntax error on line 4")
}

func TestParseErrorIncludesLineWhenKnown(t *testing.T) {
	cause := errors.New("yaml: bad indent")
	withLine := NewParseError("doc.yaml", 7, cause)
	require.Contains(t, withLine.Error(), "doc.yaml:7")
	require.Same(t, cause, errors.Unwrap(withLine))

	withoutLine := NewParseError("doc.yaml", 0, cause)
	require.NotContains(t, withoutLine.Error(), ":0:")
}

func TestValidationErrorIncludesFieldWhenSet(t *testing.T) {
	withField := NewValidationError("projects[0].id", "required", nil)
	require.Contains(t, withField.Error(), "projects[0].id")

	withoutField := NewValidationError("", "required", nil)
	require.NotContains(t, withoutField.Error(), "  ")
}
