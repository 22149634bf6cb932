package csharp_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pbmerge/pkg/csharp"
	"github.com/Sumatoshi-tech/pbmerge/pkg/parts"
)

const programSource = `using System;
using Sandbox.ModAPI.Ingame;

namespace IngameScript
{
    partial class Program : MyGridProgram
    {
        // pbmerge: first
        public Program()
        {
            Runtime.UpdateFrequency = UpdateFrequency.Update100;
        }

        int counter; // ticks seen

        public void Main(string argument, UpdateType updateSource)
        {
            counter++;
            Echo(counter.ToString());
        }
    }
}
`

const helperSource = `using System;
using System.Text;

namespace IngameScript
{
    // pbmerge: order 5
    static class Helpers
    {
        public static string Pad(string s) { return s.PadLeft(4); }
    }

    enum Mode { Idle, Busy }
}
`

func newAnalyzer() *csharp.Analyzer {
	return csharp.NewAnalyzer(csharp.NewParser(), "")
}

func TestAnalyzeFile_ExtractsContainerMembers(t *testing.T) {
	t.Parallel()

	fa, err := newAnalyzer().AnalyzeFile(context.Background(), "Program.cs", []byte(programSource))
	require.NoError(t, err)

	require.Len(t, fa.Imports, 2)
	assert.Equal(t, "System", fa.Imports[0].Name)
	assert.Equal(t, "Sandbox.ModAPI.Ingame", fa.Imports[1].Name)

	require.Len(t, fa.Containers, 1)
	assert.Equal(t, "partial class Program : MyGridProgram", fa.Containers[0].Header)
	assert.True(t, fa.Containers[0].HasBase)

	require.Len(t, fa.Declarations, 3)

	ctor := fa.Declarations[0]
	assert.True(t, ctor.Entry)
	assert.Equal(t, "constructor_declaration", ctor.Kind)
	assert.Equal(t, "Program", ctor.Name)
	assert.Equal(t, []string{"pbmerge: first"}, ctor.Leading)
	assert.Contains(t, ctor.Text, "// pbmerge: first")
	assert.Contains(t, ctor.Text, "Runtime.UpdateFrequency")

	field := fa.Declarations[1]
	assert.Equal(t, "field_declaration", field.Kind)
	assert.Contains(t, field.Text, "// ticks seen", "trailing comment stays with its declaration")
	assert.Empty(t, field.Leading)

	main := fa.Declarations[2]
	assert.Equal(t, "Main", main.Name)
	assert.NotContains(t, main.Text, "ticks seen")
}

func TestAnalyzeFile_StandaloneDeclarations(t *testing.T) {
	t.Parallel()

	fa, err := newAnalyzer().AnalyzeFile(context.Background(), "Helpers.cs", []byte(helperSource))
	require.NoError(t, err)

	assert.Empty(t, fa.Containers)
	require.Len(t, fa.Declarations, 2)

	assert.False(t, fa.Declarations[0].Entry)
	assert.Equal(t, "Helpers", fa.Declarations[0].Name)
	assert.Equal(t, []string{"pbmerge: order 5"}, fa.Declarations[0].Leading)
	assert.Equal(t, "enum_declaration", fa.Declarations[1].Kind)
	assert.Equal(t, "Mode", fa.Declarations[1].Name)
}

func TestAnalyzeFile_FileScopedNamespace(t *testing.T) {
	t.Parallel()

	src := "namespace IngameScript;\n\nclass Util\n{\n}\n"

	fa, err := newAnalyzer().AnalyzeFile(context.Background(), "Util.cs", []byte(src))
	require.NoError(t, err)

	require.Len(t, fa.Declarations, 1)
	assert.Equal(t, "Util", fa.Declarations[0].Name)
	assert.False(t, fa.Declarations[0].Entry)
}

func TestAnalyzeFile_CustomContainerName(t *testing.T) {
	t.Parallel()

	analyzer := csharp.NewAnalyzer(csharp.NewParser(), "Script")
	src := "class Script\n{\n    void Main() { }\n}\nclass Program { }\n"

	fa, err := analyzer.AnalyzeFile(context.Background(), "Script.cs", []byte(src))
	require.NoError(t, err)

	require.Len(t, fa.Declarations, 2)
	assert.True(t, fa.Declarations[0].Entry)
	assert.False(t, fa.Declarations[1].Entry)
	assert.Equal(t, "Program", fa.Declarations[1].Name)
}

func TestAnalyzeFile_SyntaxError(t *testing.T) {
	t.Parallel()

	src := "class Broken\n{\n    void M( { }\n"

	_, err := newAnalyzer().AnalyzeFile(context.Background(), "Broken.cs", []byte(src))
	require.Error(t, err)
	require.ErrorIs(t, err, csharp.ErrSyntax)

	var synErr *csharp.SyntaxError
	require.ErrorAs(t, err, &synErr)
	assert.Equal(t, "Broken.cs", synErr.Source)
	assert.NotEmpty(t, synErr.Diagnostics)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind, name string
		want       csharp.Class
	}{
		{"class_declaration", "Program", csharp.ClassEntryContainer},
		{"class_declaration", "Other", csharp.ClassStandalone},
		{"struct_declaration", "Program", csharp.ClassStandalone},
		{"enum_declaration", "Mode", csharp.ClassStandalone},
		{"namespace_declaration", "IngameScript", csharp.ClassNamespace},
		{"using_directive", "", csharp.ClassImport},
		{"comment", "", csharp.ClassComment},
		{"global_attribute", "", csharp.ClassSkip},
		{"global_statement", "", csharp.ClassUnsupported},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, csharp.Classify(tt.kind, tt.name, "Program"), "%s %s", tt.kind, tt.name)
	}
}

func TestParseImport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want parts.ImportStatement
	}{
		{"using System;", parts.ImportStatement{Name: "System"}},
		{"using  System . Linq ;", parts.ImportStatement{Name: "System . Linq"}},
		{"global using System.Text;", parts.ImportStatement{Name: "System.Text", Global: true}},
		{"using static System.Math;", parts.ImportStatement{Name: "System.Math", Static: true}},
		{"using Vec = VRageMath.Vector3D; // alias", parts.ImportStatement{Name: "VRageMath.Vector3D", Alias: "Vec"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, csharp.ParseImport(tt.text), tt.text)
	}

	assert.Equal(t,
		csharp.ParseImport("using System.Linq;").Key(),
		csharp.ParseImport("using System . Linq ;").Key())
}

func TestIsDebugDocument(t *testing.T) {
	t.Parallel()

	assert.True(t, csharp.IsDebugDocument(""))
	assert.True(t, csharp.IsDebugDocument("obj/.NETFramework,Version=v4.8.AssemblyAttributes.cs"))
	assert.True(t, csharp.IsDebugDocument("Tools.debug.cs"))
	assert.True(t, csharp.IsDebugDocument("Tools.debug"))
	assert.True(t, csharp.IsDebugDocument("Tools.DEBUG.extra.cs"))
	assert.False(t, csharp.IsDebugDocument("Debugger.cs"))
	assert.False(t, csharp.IsDebugDocument("Program.cs"))
}

func TestIsReadme(t *testing.T) {
	t.Parallel()

	dir := filepath.Join("work", "Project")

	assert.True(t, csharp.IsReadme(dir, filepath.Join(dir, "README.md")))
	assert.True(t, csharp.IsReadme(dir, filepath.Join(dir, "readme")))
	assert.True(t, csharp.IsReadme(dir, filepath.Join(dir, "Instructions.readme")))
	assert.False(t, csharp.IsReadme(dir, filepath.Join(dir, "docs", "readme.txt")))
	assert.False(t, csharp.IsReadme(dir, filepath.Join(dir, "readmeplease.txt")))
}

func TestNormalizeReadme(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\nb\n", csharp.NormalizeReadme("a\r\nb"))
	assert.Equal(t, "a\n", csharp.NormalizeReadme("a\n"))
	assert.Empty(t, csharp.NormalizeReadme(""))
}

func TestIsSource(t *testing.T) {
	t.Parallel()

	assert.True(t, csharp.IsSource("Program.cs"))
	assert.False(t, csharp.IsSource("thumb.png"))
	assert.False(t, csharp.IsSource("readme.txt"))
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestContentLoader_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	program := writeFile(t, filepath.Join(dir, "Program.cs"), programSource)
	helpers := writeFile(t, filepath.Join(dir, "Helpers.cs"), helperSource)
	readme := writeFile(t, filepath.Join(dir, "README.txt"), "Hello\r\nworld")
	ignored := writeFile(t, filepath.Join(dir, "Scratch", "Scratch.cs"), "using System.IO;\nclass Scratch { }\n")
	debug := writeFile(t, filepath.Join(dir, "Local.debug.cs"), "using System.Diagnostics;\nclass Local { }\n")

	cache, err := csharp.NewAnalysisCache(8)
	require.NoError(t, err)

	loader := csharp.NewContentLoader(newAnalyzer(), cache)

	content, err := loader.Load(context.Background(), csharp.ContentRequest{
		ProjectDir: dir,
		Files:      []string{readme, program, helpers, ignored, debug},
		Ignored: func(path string) bool {
			return filepath.Dir(path) == filepath.Join(dir, "Scratch")
		},
		Policy: parts.NewDirectivePolicy(""),
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello\nworld\n", content.Readme)
	assert.Equal(t, "partial class Program : MyGridProgram", content.Container)

	keys := make([]string, 0)
	for _, stmt := range content.Imports.Items() {
		keys = append(keys, stmt.Key())
	}

	assert.Equal(t, []string{"System", "Sandbox.ModAPI.Ingame", "System.Text"}, keys)

	require.Len(t, content.Entries, 3)
	assert.Equal(t, parts.WeightFirst, content.Entries[0].Weight)
	assert.Equal(t, 0, content.Entries[0].Order)

	require.Len(t, content.Standalone, 2)
	assert.Equal(t, "Helpers", content.Standalone[0].Name)
	assert.Equal(t, 5, content.Standalone[0].Weight)
	assert.Equal(t, helpers, content.Standalone[0].File)

	assert.Equal(t, 2, cache.Len())
}

func TestContentLoader_SyntaxErrorFailsProject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := writeFile(t, filepath.Join(dir, "Bad.cs"), "class Bad {\n")

	loader := csharp.NewContentLoader(newAnalyzer(), nil)

	_, err := loader.Load(context.Background(), csharp.ContentRequest{ProjectDir: dir, Files: []string{bad}})
	require.ErrorIs(t, err, csharp.ErrSyntax)
}

func TestSyntaxValidator_Validate(t *testing.T) {
	t.Parallel()

	validator := csharp.NewSyntaxValidator(csharp.NewParser())
	ctx := context.Background()

	require.NoError(t, validator.Validate(ctx, "ok", csharp.Settings{}, "class A { void M() { } }\n"))

	err := validator.Validate(ctx, "merged", csharp.Settings{LanguageVersion: "6"}, "class A { void M( }\n")
	require.ErrorIs(t, err, csharp.ErrSyntax)
	assert.Contains(t, err.Error(), "merged (C# 6)")
}
