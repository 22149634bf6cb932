package build_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pbmerge/pkg/build"
	"github.com/Sumatoshi-tech/pbmerge/pkg/modules"
	"github.com/Sumatoshi-tech/pbmerge/pkg/project"
)

const programA = `using System;

namespace IngameScript
{
    partial class Program : MyGridProgram
    {
        public void Main(string argument)
        {
            // greet
            Echo(argument);
        }
    }
}
`

const helperB = `using System;

namespace IngameScript
{
    class Helper
    {
    }
}
`

const expectedScript = "using System;\n" +
	"partial class Program : MyGridProgram\n" +
	"{\n" +
	"        public void Main(string argument)\n" +
	"        {\n" +
	"            // greet\n" +
	"            Echo(argument);\n" +
	"        }\n" +
	"}\n" +
	"    class Helper\n" +
	"    {\n" +
	"    }\n"

type fixture struct {
	root string
	out  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()

	return &fixture{root: root, out: filepath.Join(root, "out")}
}

type projectSpec struct {
	name    string
	files   map[string]string
	options string
}

func optionsXML(minify bool, modulesXML string) string {
	flag := "no"
	if minify {
		flag = "yes"
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<mdk version="1.3">
  <gamebinpath enabled="no"></gamebinpath>
  <installpath>/opt/mdk</installpath>
  <outputpath>auto</outputpath>
  <minify>%s</minify>
  <ignore>
    <folder>Scratch</folder>
  </ignore>
  <modules>%s</modules>
</mdk>
`, flag, modulesXML)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func (f *fixture) addProject(t *testing.T, spec projectSpec) string {
	t.Helper()

	dir := filepath.Join(f.root, spec.name)
	path := filepath.Join(dir, spec.name+".csproj")
	writeFile(t, path, `<Project Sdk="Microsoft.NET.Sdk"></Project>`)

	for name, content := range spec.files {
		writeFile(t, filepath.Join(dir, name), content)
	}

	if spec.options != "" {
		writeFile(t, filepath.Join(dir, "mdk", "mdk.options"), spec.options)
	}

	return path
}

func (f *fixture) solution(t *testing.T, names ...string) string {
	t.Helper()

	var b strings.Builder

	for idx, name := range names {
		fmt.Fprintf(&b, "Project(\"{9A19103F-16F7-4668-BE54-9A1E7A4F7556}\") = \"%s\", \"%s\\%s.csproj\", \"{00000000-0000-0000-0000-00000000000%d}\"\nEndProject\n",
			name, name, name, idx)
	}

	path := filepath.Join(f.root, "Scripts.sln")
	writeFile(t, path, b.String())

	return path
}

func (f *fixture) script(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(f.out, name, build.ScriptFile))
	require.NoError(t, err)

	return string(data)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBuilder(t *testing.T, settings build.Settings, opts ...build.Option) *build.Builder {
	t.Helper()

	b, err := build.New(settings, append([]build.Option{build.WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)

	return b
}

func scenarioFiles() map[string]string {
	return map[string]string{"A.cs": programA, "B.cs": helperB}
}

func TestBuild_Scenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	files := scenarioFiles()
	files["README.txt"] = "Miner control\r\nv1"
	files["thumb.png"] = "png"
	files["Scratch/Old.cs"] = "using System.IO;\nclass Old { }\n"
	path := f.addProject(t, projectSpec{name: "Miner", files: files, options: optionsXML(false, "")})

	// An older thumbnail is replaced.
	writeFile(t, filepath.Join(f.out, "Miner", build.ThumbFile), "stale")

	b := newBuilder(t, build.Settings{OutputRoot: f.out})
	assert.Equal(t, build.StateIdle, b.State())

	var progress []float64

	result, err := b.Build(context.Background(), path, build.Options{
		Progress: func(v float64) { progress = append(progress, v) },
	})
	require.NoError(t, err)

	assert.Equal(t, build.StateCompleted, b.State())
	require.Len(t, result.Configs, 1)
	assert.Equal(t, path, result.Configs[0].ProjectPath)
	assert.NotEmpty(t, result.BuildID)

	assert.Equal(t, "Miner control\nv1\n"+expectedScript, f.script(t, "Miner"))

	thumb, err := os.ReadFile(filepath.Join(f.out, "Miner", build.ThumbFile))
	require.NoError(t, err)
	assert.Equal(t, "png", string(thumb))

	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, filepath.Join(f.out, "Miner", build.ThumbFile), result.Artifacts[0].ThumbPath)
	assert.Equal(t, result.BuildID, result.Artifacts[0].BuildID)

	assert.InDeltaSlice(t, []float64{1.0 / 3, 2.0 / 3, 1}, progress, 1e-9)
}

func TestBuild_InvalidOptionsSkipsWithoutError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.addProject(t, projectSpec{name: "Bare", files: scenarioFiles()})

	result, err := newBuilder(t, build.Settings{OutputRoot: f.out}).Build(context.Background(), path, build.Options{})
	require.NoError(t, err)

	assert.Empty(t, result.Configs)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, path, result.Skipped[0].ProjectPath)
	assert.Equal(t, "Bare", result.Skipped[0].ProjectName)
	assert.NoDirExists(t, f.out)
}

func TestBuild_MalformedOptionsSkipsWithoutError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.addProject(t, projectSpec{name: "Broken", files: scenarioFiles(), options: "<mdk><minify>"})

	result, err := newBuilder(t, build.Settings{OutputRoot: f.out}).Build(context.Background(), path, build.Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Configs)
	assert.Len(t, result.Skipped, 1)
}

func TestBuild_NoopMinifierIsByteIdentical(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addProject(t, projectSpec{name: "Plain", files: scenarioFiles(), options: optionsXML(false, "")})
	f.addProject(t, projectSpec{name: "Noop", files: scenarioFiles(), options: optionsXML(true,
		`<composer id="pbmerge.minifier.none" version="^1.0"/>`)})
	f.addProject(t, projectSpec{name: "Implicit", files: scenarioFiles(), options: optionsXML(true, "")})

	sln := f.solution(t, "Plain", "Noop", "Implicit")

	result, err := newBuilder(t, build.Settings{OutputRoot: f.out}).Build(context.Background(), sln, build.Options{})
	require.NoError(t, err)
	require.Len(t, result.Configs, 3)

	plain := f.script(t, "Plain")
	assert.Equal(t, expectedScript, plain)
	assert.Equal(t, plain, f.script(t, "Noop"))
	assert.Equal(t, plain, f.script(t, "Implicit"))
}

func TestBuild_CommentMinifierAndManifest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addProject(t, projectSpec{name: "Small", files: scenarioFiles(), options: optionsXML(true,
		`<composer id="pbmerge.minifier.comments" version="1.x"/><publisher id="pbmerge.publisher.manifest"/>`)})

	result, err := newBuilder(t, build.Settings{OutputRoot: f.out}).
		Build(context.Background(), filepath.Join(f.root, "Small"), build.Options{})
	require.NoError(t, err)
	require.Len(t, result.Artifacts, 1)

	script := f.script(t, "Small")
	assert.NotContains(t, script, "// greet")
	assert.Contains(t, script, "Echo(argument);")
	assert.True(t, result.Artifacts[0].Minified)
	assert.FileExists(t, filepath.Join(f.out, "Small", modules.ManifestFile))
}

// rejectProject fails validation for one project name.
type rejectProject struct {
	name string
}

var errRejected = errors.New("rejected by test validator")

func (r rejectProject) Validate(_ context.Context, proj *project.SourceProject, _ string) error {
	if proj.Name == r.name {
		return errRejected
	}

	return nil
}

func TestBuild_OneOfThreeFailsDuringAssembly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	var paths []string
	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		paths = append(paths, f.addProject(t, projectSpec{name: name, files: scenarioFiles(), options: optionsXML(false, "")}))
	}

	sln := f.solution(t, "Alpha", "Beta", "Gamma")
	b := newBuilder(t, build.Settings{OutputRoot: f.out}, build.WithValidator(rejectProject{name: "Beta"}))

	result, err := b.Build(context.Background(), sln, build.Options{})
	require.Error(t, err)

	assert.Equal(t, build.StateFailed, b.State())
	require.ErrorIs(t, err, build.ErrAssembly)
	require.ErrorIs(t, err, errRejected)

	var projErr *build.ProjectError
	require.ErrorAs(t, err, &projErr)
	assert.Equal(t, paths[1], projErr.ProjectPath)
	assert.Equal(t, "Beta", projErr.ProjectName)
	assert.Equal(t, build.StageAssembly, projErr.Stage)
	assert.Contains(t, err.Error(), paths[1])

	require.NotNil(t, result)
	assert.Len(t, result.Configs, 2)
	assert.FileExists(t, filepath.Join(f.out, "Alpha", build.ScriptFile))
	assert.FileExists(t, filepath.Join(f.out, "Gamma", build.ScriptFile))
	assert.NoFileExists(t, filepath.Join(f.out, "Beta", build.ScriptFile))
}

func TestBuild_SyntaxErrorFailsContentStage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	files := scenarioFiles()
	files["C.cs"] = "class Broken {\n"
	path := f.addProject(t, projectSpec{name: "Bad", files: files, options: optionsXML(false, "")})

	_, err := newBuilder(t, build.Settings{OutputRoot: f.out}).Build(context.Background(), path, build.Options{})
	require.ErrorIs(t, err, build.ErrContentLoad)

	var projErr *build.ProjectError
	require.ErrorAs(t, err, &projErr)
	assert.Equal(t, build.StageContent, projErr.Stage)
}

func TestBuild_UnknownModuleFailsConfigStage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.addProject(t, projectSpec{name: "Odd", files: scenarioFiles(), options: optionsXML(false,
		`<publisher id="acme.publisher.cloud" version="2.0"/>`)})

	_, err := newBuilder(t, build.Settings{OutputRoot: f.out}).Build(context.Background(), path, build.Options{})
	require.ErrorIs(t, err, build.ErrConfigLoad)
	require.ErrorIs(t, err, modules.ErrModuleNotFound)
}

func TestBuild_DiscoveryFailureIsFatal(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, build.Settings{})

	result, err := b.Build(context.Background(), filepath.Join(t.TempDir(), "missing.sln"), build.Options{})
	require.ErrorIs(t, err, build.ErrDiscovery)
	assert.Nil(t, result)
	assert.Equal(t, build.StateFailed, b.State())
}

func TestBuild_SelectsSingleProject(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addProject(t, projectSpec{name: "Alpha", files: scenarioFiles(), options: optionsXML(false, "")})
	f.addProject(t, projectSpec{name: "Beta", files: scenarioFiles(), options: optionsXML(false, "")})

	result, err := newBuilder(t, build.Settings{OutputRoot: f.out}).
		Build(context.Background(), f.solution(t, "Alpha", "Beta"), build.Options{Project: "beta"})
	require.NoError(t, err)

	require.Len(t, result.Configs, 1)
	assert.Equal(t, "Beta", result.Artifacts[0].ProjectName)
	require.Len(t, result.Skipped, 1)
	assert.NoDirExists(t, filepath.Join(f.out, "Alpha"))
}

func TestBuild_LineEndingAndDirectoryTemplate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.addProject(t, projectSpec{name: "Miner", files: scenarioFiles(), options: optionsXML(false, "")})

	settings := build.Settings{
		OutputRoot:        f.out,
		DirectoryTemplate: "scripts/$(projectname)",
		LineEnding:        build.LineEndingCRLF,
	}

	_, err := newBuilder(t, settings).Build(context.Background(), path, build.Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.out, "scripts", "Miner", build.ScriptFile))
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(expectedScript, "\n", "\r\n"), string(data))
}

func TestBuild_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.addProject(t, projectSpec{name: "Miner", files: scenarioFiles(), options: optionsXML(false, "")})

	result, err := newBuilder(t, build.Settings{OutputRoot: f.out}).
		Build(context.Background(), path, build.Options{DryRun: true})
	require.NoError(t, err)

	require.Len(t, result.Artifacts, 1)
	assert.True(t, result.Artifacts[0].DryRun)
	assert.Equal(t, expectedScript, result.Artifacts[0].Script)
	assert.NoDirExists(t, f.out)
}

func TestBuild_EmptyProjectIsSkipped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.addProject(t, projectSpec{
		name:    "Empty",
		files:   map[string]string{"Usings.cs": "using System;\n"},
		options: optionsXML(false, ""),
	})

	result, err := newBuilder(t, build.Settings{OutputRoot: f.out}).Build(context.Background(), path, build.Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Configs)
	assert.Len(t, result.Skipped, 1)
}

func TestBuild_PermissionDenied(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	f := newFixture(t)
	path := f.addProject(t, projectSpec{name: "Miner", files: scenarioFiles(), options: optionsXML(false, "")})

	require.NoError(t, os.MkdirAll(f.out, 0o500))
	t.Cleanup(func() { _ = os.Chmod(f.out, 0o755) })

	_, err := newBuilder(t, build.Settings{OutputRoot: f.out}).Build(context.Background(), path, build.Options{})
	require.ErrorIs(t, err, build.ErrWrite)
	require.ErrorIs(t, err, build.ErrWritePermissionDenied)
}

func TestBuild_ConcurrentProgressIsMonotonic(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	names := make([]string, 0, 6)
	for idx := range 6 {
		name := fmt.Sprintf("P%d", idx)
		names = append(names, name)
		f.addProject(t, projectSpec{name: name, files: scenarioFiles(), options: optionsXML(false, "")})
	}

	var (
		mu     sync.Mutex
		values []float64
	)

	_, err := newBuilder(t, build.Settings{OutputRoot: f.out}).Build(context.Background(), f.solution(t, names...),
		build.Options{Progress: func(v float64) {
			mu.Lock()
			defer mu.Unlock()

			values = append(values, v)
		}})
	require.NoError(t, err)

	require.Len(t, values, build.StepsPerProject*len(names))
	assert.IsNonDecreasing(t, values)
	assert.InDelta(t, 1.0, values[len(values)-1], 1e-9)
}
