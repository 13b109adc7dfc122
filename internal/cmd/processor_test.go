package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/allanpk716/genderiser/internal/domain"
)

func setupProject(t *testing.T, configData string, docs map[string]string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "genderiser.toml"), []byte(configData), 0644))
	for name, content := range docs {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

const endToEndConfig = `
[genders]
male = ""
female = ""

[male]
child = "son"

[female]
child = "daughter"

[characters]
smith = "male"
jones = "female"

[files]
pattern = "*.txt"
`

func TestExecuteProcessing_EndToEnd(t *testing.T) {
	root := setupProject(t, endToEndConfig, map[string]string{"story.txt": "smith_child and Jones_child"})
	outputRoot := filepath.Join(t.TempDir(), "out")

	args := &CommandLineArgs{ProjectDir: root, OutputDir: outputRoot}
	require.NoError(t, ValidateArgs(args))

	result, err := ExecuteProcessing(context.Background(), args, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedFiles)
	assert.Equal(t, 2, result.Replacements)

	content, err := os.ReadFile(filepath.Join(outputRoot, "story.txt"))
	require.NoError(t, err)
	assert.Equal(t, "son and Daughter", string(content))
}

func TestExecuteProcessing_OutputDirFromConfig(t *testing.T) {
	root := setupProject(t, endToEndConfig+"\n[default]\noutput_dir = \"build\"\n", map[string]string{"story.txt": "Smith_child"})

	args := &CommandLineArgs{ProjectDir: root}
	require.NoError(t, ValidateArgs(args))

	_, err := ExecuteProcessing(context.Background(), args, zap.NewNop(), nil)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "build", "story.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Son", string(content))
}

func TestExecuteProcessing_Reports(t *testing.T) {
	root := setupProject(t, endToEndConfig, map[string]string{"story.txt": "smith_child and Brown_child"})

	var out bytes.Buffer
	args := &CommandLineArgs{ProjectDir: root, Missing: true}
	require.NoError(t, ValidateArgs(args))
	_, err := ExecuteProcessing(context.Background(), args, zap.NewNop(), &out)
	require.NoError(t, err)
	assert.Equal(t, "Brown_child\n", out.String())

	out.Reset()
	args = &CommandLineArgs{ProjectDir: root, Substitutions: true}
	require.NoError(t, ValidateArgs(args))
	_, err = ExecuteProcessing(context.Background(), args, zap.NewNop(), &out)
	require.NoError(t, err)
	line := out.String()
	assert.True(t, strings.HasPrefix(line, "jones_child:daughter,"), line)
	assert.Contains(t, line, ",smith_child:son,")
	assert.Equal(t, 1, strings.Count(line, "\n"))
}

func TestExecuteProcessing_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
		docs   map[string]string
		args   func(root string) *CommandLineArgs
	}{
		{
			name:   "output equals input",
			config: endToEndConfig,
			docs:   map[string]string{"story.txt": "smith_child"},
			args:   func(root string) *CommandLineArgs { return &CommandLineArgs{ProjectDir: root, OutputDir: root} },
		},
		{
			name:   "no output dir",
			config: endToEndConfig,
			docs:   map[string]string{"story.txt": "smith_child"},
			args:   func(root string) *CommandLineArgs { return &CommandLineArgs{ProjectDir: root} },
		},
		{
			name:   "no files",
			config: endToEndConfig,
			args:   func(root string) *CommandLineArgs { return &CommandLineArgs{ProjectDir: root, Preview: true} },
		},
		{
			name:   "undeclared gender",
			config: "[characters]\nsmith = \"robot\"\n[files]\nfiles = \"a.txt\"\n",
			docs:   map[string]string{"a.txt": "smith_child"},
			args:   func(root string) *CommandLineArgs { return &CommandLineArgs{ProjectDir: root, Preview: true} },
		},
		{
			name:   "inheritance cycle",
			config: "[genders]\nmale = \"female\"\nfemale = \"male\"\n[files]\nfiles = \"a.txt\"\n",
			docs:   map[string]string{"a.txt": "smith_child"},
			args:   func(root string) *CommandLineArgs { return &CommandLineArgs{ProjectDir: root, Preview: true} },
		},
		{
			name:   "bad pattern",
			config: endToEndConfig + "\n[default]\npattern = \"([a-z]+)\"\n",
			docs:   map[string]string{"a.txt": "smith_child"},
			args:   func(root string) *CommandLineArgs { return &CommandLineArgs{ProjectDir: root, Preview: true} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := setupProject(t, tt.config, tt.docs)
			args := tt.args(root)
			require.NoError(t, ValidateArgs(args))

			var out bytes.Buffer
			_, err := ExecuteProcessing(context.Background(), args, zap.NewNop(), &out)
			require.Error(t, err)
			assert.True(t, domain.IsConfigurationError(err), "期望配置错误，实际: %v", err)
			assert.Empty(t, out.String())
		})
	}
}
