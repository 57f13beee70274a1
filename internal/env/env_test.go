package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	return file
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{"true", "true", true},
		{"false mixed case", "False", false},
		{"integer", "8080", float64(8080)},
		{"float", "1.5", 1.5},
		{"string", "postgres://localhost/db", "postgres://localhost/db"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.input))
		})
	}
}

func TestInit(t *testing.T) {
	t.Cleanup(Reset)

	file := writeEnvFile(t, "RESTCORE_TEST_PORT=9090\nRESTCORE_TEST_DEBUG=true\nRESTCORE_TEST_NAME=restcore\n")

	t.Setenv("RESTCORE_TEST_NAME", "from-process")
	require.NoError(t, Init(file))

	assert.Equal(t, float64(9090), Get("RESTCORE_TEST_PORT", nil))
	assert.Equal(t, 9090, GetInt("RESTCORE_TEST_PORT", 0))
	assert.True(t, GetBool("RESTCORE_TEST_DEBUG", false))
	assert.Equal(t, "9090", GetString("RESTCORE_TEST_PORT", ""))

	// process environment is not overwritten
	assert.Equal(t, "from-process", os.Getenv("RESTCORE_TEST_NAME"))
}

func TestInitMissingFile(t *testing.T) {
	t.Cleanup(Reset)

	require.NoError(t, Init(filepath.Join(t.TempDir(), "missing.env")))
}

func TestGetDefaults(t *testing.T) {
	t.Cleanup(Reset)

	assert.Equal(t, "fallback", Get("RESTCORE_TEST_UNSET", "fallback"))
	assert.Equal(t, 42, GetInt("RESTCORE_TEST_UNSET", 42))
	assert.Equal(t, "x", GetString("RESTCORE_TEST_UNSET", "x"))

	t.Setenv("RESTCORE_TEST_BAD_INT", "abc")
	assert.Equal(t, 7, GetInt("RESTCORE_TEST_BAD_INT", 7))
}
