package tt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertEqual will compare the got argument with the expected argument
// and fail the test with an appropriate error message if they don't match.
func AssertEqual(t *testing.T, got interface{}, expected interface{}, msg ...interface{}) {
	require.Equal(t, expected, got, msg...)
}

// AssertNotEqual will compare the got argument with the expected argument
// and fail the test with an appropriate error message if they match.
func AssertNotEqual(t *testing.T, got interface{}, expected interface{}, msg ...interface{}) {
	require.NotEqual(t, expected, got, msg...)
}

// AssertNoErr will check if the input error is nil, and if not
// it will fail the test with an appropriate error message.
func AssertNoErr(t *testing.T, err error) {
	require.Equal(t, nil, err, "received unexpected error: %s", err)
}

// AssertErrContains will first check if the error that the error
// indeed is not nil, and then check if its error message contains
// all the substrs specified on the substrs argument.
//
// In case either assertion fails it will fail the test with
// an appropriate error message.
func AssertErrContains(t *testing.T, err error, substrs ...string) {
	require.NotEqual(t, nil, err, "expected an error but the error is nil")

	msg := err.Error()

	for _, substr := range substrs {
		require.True(t,
			strings.Contains(msg, substr),
			"missing substring '%s' in error message: '%s'",
			substr, msg,
		)
	}
}

// AssertContains will check if the input text contains
// all the substrs specified on the substrs argument or
// fail with an appropriate error message.
func AssertContains(t *testing.T, str string, substrs ...string) {
	for _, substr := range substrs {
		require.True(t,
			strings.Contains(str, substr),
			"missing substring '%s' in text: '%s'",
			substr, str,
		)
	}
}

// AssertPanicContains runs fn expecting it to panic with an error
// whose message contains all the substrs specified.
func AssertPanicContains(t *testing.T, fn func(), substrs ...string) {
	panicPayload := PanicHandler(fn)
	require.NotEqual(t, nil, panicPayload, "expected a panic but the function returned normally")

	err, ok := panicPayload.(error)
	require.True(t, ok, "expected the panic payload to be an error but got: %#v", panicPayload)

	AssertErrContains(t, err, substrs...)
}
