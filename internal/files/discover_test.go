package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/genderiser/internal/config"
	"github.com/allanpk716/genderiser/internal/domain"
)

func setupProject(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("smith_they"), 0644))
	}
	return root
}

func TestDiscover(t *testing.T) {
	root := setupProject(t, "Alice.txt", "Alice.docx", "chapters/one.txt", "chapters/two.txt", "genderiser.toml")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "chapters", "drafts.txt"), 0755))

	tests := []struct {
		name      string
		selection config.FileSelection
		want      []string
	}{
		{
			name:      "explicit list",
			selection: config.FileSelection{Files: []string{"Alice.txt", "Alice.docx"}},
			want:      []string{"Alice.docx", "Alice.txt"},
		},
		{
			name:      "glob",
			selection: config.FileSelection{Pattern: "chapters/*.txt"},
			want:      []string{filepath.Join("chapters", "one.txt"), filepath.Join("chapters", "two.txt")},
		},
		{
			name:      "list and glob deduplicated",
			selection: config.FileSelection{Files: []string{"./Alice.txt"}, Pattern: "*"},
			want:      []string{"Alice.docx", "Alice.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discover(root, tt.selection)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscover_Errors(t *testing.T) {
	root := setupProject(t, "Alice.txt")

	tests := []struct {
		name      string
		selection config.FileSelection
	}{
		{name: "nothing selected", selection: config.FileSelection{}},
		{name: "glob matches nothing", selection: config.FileSelection{Pattern: "*.odt"}},
		{name: "missing file", selection: config.FileSelection{Files: []string{"Bob.txt"}}},
		{name: "outside project", selection: config.FileSelection{Files: []string{"../Alice.txt"}}},
		{name: "bad glob", selection: config.FileSelection{Pattern: "[a-"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Discover(root, tt.selection)
			require.Error(t, err)
			assert.True(t, domain.IsConfigurationError(err), "期望配置错误，实际: %v", err)
		})
	}
}
