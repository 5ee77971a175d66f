package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func stubTerminal(t *testing.T, tty bool, pw []byte, err error) {
	t.Helper()
	origTTY, origPW := isTerminal, readPassword
	isTerminal = func(int) bool { return tty }
	readPassword = func(int) ([]byte, error) { return pw, err }
	t.Cleanup(func() { isTerminal, readPassword = origTTY, origPW })
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())

	got, err = GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.Error(t, err)
}

func TestGetMultiline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "double enter", input: "a\nb\n\n\n", want: "a\nb"},
		{name: "crlf", input: "a\r\nb\r\n\r\n", want: "a\nb"},
		{name: "eof without blank line", input: "a\nb", want: "a\nb"},
		{name: "empty", input: "\n", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetMultiline(rdr(tt.input), "Message", &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetSecret(t *testing.T) {
	t.Run("piped", func(t *testing.T) {
		stubTerminal(t, false, nil, nil)
		var out bytes.Buffer
		got, err := GetSecret(rdr("tok-123\n"), "Access token", &out)
		require.NoError(t, err)
		assert.Equal(t, "tok-123", got)
	})

	t.Run("terminal", func(t *testing.T) {
		stubTerminal(t, true, []byte(" tok-456 "), nil)
		var out bytes.Buffer
		got, err := GetSecret(rdr(""), "Access token", &out)
		require.NoError(t, err)
		assert.Equal(t, "tok-456", got)
		assert.Equal(t, "Access token: \n", out.String())
	})

	t.Run("terminal error", func(t *testing.T) {
		stubTerminal(t, true, nil, errors.New("boom"))
		var out bytes.Buffer
		_, err := GetSecret(rdr(""), "Access token", &out)
		require.Error(t, err)
	})
}
