package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestGetFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "user.yaml"), "")
	touch(t, filepath.Join(root, "nested", "post.yml"), "")
	touch(t, filepath.Join(root, "README.md"), "")

	got, err := YAMLFiles(root)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "post", EntityName(got[0]))
	assert.Equal(t, "user", EntityName(got[1]))

	var seen []string
	_, err = GetFiles(root, []string{"*.md"}, func(file string) error {
		seen = append(seen, filepath.Base(file))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md"}, seen)
}

func TestGetFilesMissingRoot(t *testing.T) {
	got, err := YAMLFiles(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStandardizePath(t *testing.T) {
	assert.Equal(t, "foo/bar", StandardizePath(`foo\bar`))
	assert.Equal(t, `\\?\c:\foo`, StandardizePath(`\\?\c:\foo`))
	assert.Equal(t, `föö\bar`, StandardizePath(`föö\bar`))
}

func TestEntityName(t *testing.T) {
	assert.Equal(t, "user", EntityName("/srv/models/user.yaml"))
	assert.Equal(t, "user", EntityName(`C:\srv\models\user.yaml`))
	assert.Equal(t, "user", Filename("models/user.test.yaml"))
	assert.Equal(t, "", Filename(""))
}

func TestGeneratePrefix(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"/home/dev/restcore/internal/api/v1/user/user.go", "/v1/user"},
		{"github.com/restcore/restcore/internal/api/v2/post/routes.go", "/v2/post"},
		{"api/health/health.go", "/health"},
		{`C:\work\internal\api\v1\user\user.go`, "/v1/user"},
		{"/home/dev/restcore/internal/web/main.go", ""},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, GeneratePrefix(tt.file, "api"))
		})
	}
}

func TestParseYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bootstrap.yaml")
	touch(t, file, "menu:\n  - users\n  - posts\n")

	got, err := ParseYAML(file)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"menu": []any{"users", "posts"}}, got)

	_, err = ParseYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
