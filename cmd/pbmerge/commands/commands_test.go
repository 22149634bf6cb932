package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pbmerge/cmd/pbmerge/commands"
	"github.com/Sumatoshi-tech/pbmerge/internal/config"
	"github.com/Sumatoshi-tech/pbmerge/internal/report"
	"github.com/Sumatoshi-tech/pbmerge/pkg/build"
)

const programSource = `using System;

namespace IngameScript
{
    partial class Program : MyGridProgram
    {
        public void Main(string argument)
        {
            Echo(argument);
        }
    }
}
`

type workspace struct {
	root    string
	out     string
	config  string
	project string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()

	root := t.TempDir()
	ws := &workspace{
		root:    root,
		out:     filepath.Join(root, "deployed"),
		config:  filepath.Join(root, config.FileName),
		project: filepath.Join(root, "Miner", "Miner.csproj"),
	}

	writeFile(t, ws.config, "output:\n  root: "+ws.out+"\nlogging:\n  level: warn\n")
	writeFile(t, ws.project, `<Project Sdk="Microsoft.NET.Sdk"></Project>`)
	writeFile(t, filepath.Join(root, "Miner", "Program.cs"), programSource)

	return ws
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := commands.NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func TestInitBuildDiff(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)

	stdout, _, err := run(t, "init", ws.project, "--install-path", "/opt/pbmerge", "--config", ws.config)
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join("Miner", "mdk", "mdk.options"))

	_, _, err = run(t, "init", ws.project, "--install-path", "/opt/pbmerge")
	require.ErrorIs(t, err, commands.ErrOptionsExist)

	stdout, stderr, err := run(t, "build", ws.project, "--config", ws.config, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "progress: 100%")

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, 1, rep.Built)

	script := filepath.Join(ws.out, "Miner", build.ScriptFile)
	assert.FileExists(t, script)

	stdout, _, err = run(t, "diff", ws.project, "--config", ws.config, "--exit-code", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, stdout, "up to date")

	writeFile(t, filepath.Join(ws.root, "Miner", "Program.cs"), programSource+"\nclass Extra\n{\n}\n")

	stdout, _, err = run(t, "diff", ws.project, "--config", ws.config, "--exit-code", "--no-color")
	require.ErrorIs(t, err, commands.ErrScriptsDiffer)
	assert.Contains(t, stdout, "+class Extra")
}

func TestBuild_TextReportAndSilent(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)

	_, _, err := run(t, "init", ws.project, "--install-path", "/opt/pbmerge")
	require.NoError(t, err)

	stdout, stderr, err := run(t, "build", filepath.Dir(ws.project), "--config", ws.config, "--dry-run", "--silent", "--no-color")
	require.NoError(t, err)

	assert.NotContains(t, stderr, "progress:")
	assert.Contains(t, stdout, "Miner")
	assert.Contains(t, stdout, "(dry run)")
	assert.NoDirExists(t, ws.out)
}

func TestBuild_FailureReturnsError(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)

	_, _, err := run(t, "init", ws.project, "--install-path", "/opt/pbmerge")
	require.NoError(t, err)

	writeFile(t, filepath.Join(ws.root, "Miner", "Broken.cs"), "class Broken {\n")

	stdout, _, err := run(t, "build", ws.project, "--config", ws.config, "--silent", "--format", "yaml")
	require.ErrorIs(t, err, build.ErrContentLoad)
	assert.Contains(t, stdout, "failed: 1")
}

func TestBuild_UnknownFormat(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)

	_, _, err := run(t, "build", ws.project, "--config", ws.config, "--format", "xml")
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestOptions_ShowsProjectOptions(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)

	_, _, err := run(t, "init", ws.project, "--install-path", "/opt/pbmerge", "--minify", "--ignore", "Scratch")
	require.NoError(t, err)

	for _, input := range []string{ws.project, filepath.Dir(ws.project)} {
		stdout, _, err := run(t, "options", input, "--config", ws.config, "--format", "json")
		require.NoError(t, err)

		var views []report.Options
		require.NoError(t, json.Unmarshal([]byte(stdout), &views))
		require.Len(t, views, 1)

		view := views[0]
		assert.Equal(t, "Miner", view.Name)
		assert.True(t, view.Valid, input)
		assert.True(t, view.Minify)
		assert.Equal(t, "/opt/pbmerge", view.InstallPath)
		assert.Contains(t, view.IgnoredFolders, filepath.Join(filepath.Dir(ws.project), "Scratch"))
	}
}

func TestInit_RejectsNonProject(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, "init", filepath.Join(t.TempDir(), "Scripts.sln"))
	require.ErrorIs(t, err, commands.ErrNotAProject)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)

	stdout, _, err := run(t, "config", "validate", "--config", ws.config)
	require.NoError(t, err)
	assert.Contains(t, stdout, "config is valid")

	bad := filepath.Join(ws.root, "bad.yaml")
	writeFile(t, bad, "output:\n  line_ending: cr\n")

	stdout, _, err = run(t, "config", "validate", "--config", bad)
	require.ErrorIs(t, err, config.ErrSchema)
	assert.Contains(t, stdout, "output.line_ending")
}

func TestConfigSchema(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, "config", "schema")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
}

func TestVersion(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "pbmerge ")
}
