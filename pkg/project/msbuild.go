package project

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/pbmerge/pkg/options"
)

// msbuildProject is the subset of an MSBuild project or shared items file pbmerge reads.
type msbuildProject struct {
	Sdk            string          `xml:"Sdk,attr"`
	PropertyGroups []propertyGroup `xml:"PropertyGroup"`
	ItemGroups     []itemGroup     `xml:"ItemGroup"`
	Imports        []importElement `xml:"Import"`
}

type propertyGroup struct {
	AssemblyName              string `xml:"AssemblyName"`
	LangVersion               string `xml:"LangVersion"`
	DefineConstants           string `xml:"DefineConstants"`
	Nullable                  string `xml:"Nullable"`
	EnableDefaultCompileItems string `xml:"EnableDefaultCompileItems"`
	EnableDefaultItems        string `xml:"EnableDefaultItems"`
}

type itemGroup struct {
	Compile          []item `xml:"Compile"`
	None             []item `xml:"None"`
	Content          []item `xml:"Content"`
	AdditionalFiles  []item `xml:"AdditionalFiles"`
	Reference        []item `xml:"Reference"`
	PackageReference []item `xml:"PackageReference"`
	ProjectReference []item `xml:"ProjectReference"`
}

type item struct {
	Include  string `xml:"Include,attr"`
	Remove   string `xml:"Remove,attr"`
	Version  string `xml:"Version,attr"`
	HintPath string `xml:"HintPath"`
}

type importElement struct {
	Project string `xml:"Project,attr"`
	Label   string `xml:"Label,attr"`
}

func readMSBuild(path string) (*msbuildProject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc msbuildProject

	err = xml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedProject, path, err)
	}

	return &doc, nil
}

// property returns the last non-empty value of a property across groups.
func (p *msbuildProject) property(get func(propertyGroup) string) string {
	value := ""

	for _, group := range p.PropertyGroups {
		if v := strings.TrimSpace(get(group)); v != "" {
			value = v
		}
	}

	return value
}

// defaultItems reports whether the SDK globs source files implicitly.
func (p *msbuildProject) defaultItems() bool {
	if p.Sdk == "" {
		return false
	}

	disabled := func(v string) bool { return strings.EqualFold(v, "false") }

	return !disabled(p.property(func(g propertyGroup) string { return g.EnableDefaultItems })) &&
		!disabled(p.property(func(g propertyGroup) string { return g.EnableDefaultCompileItems }))
}

func (p *msbuildProject) settings() Settings {
	var defines []string

	for _, d := range strings.Split(p.property(func(g propertyGroup) string { return g.DefineConstants }), ";") {
		d = strings.TrimSpace(d)
		if d != "" && !strings.HasPrefix(d, "$(") {
			defines = append(defines, d)
		}
	}

	return Settings{
		LanguageVersion: p.property(func(g propertyGroup) string { return g.LangVersion }),
		DefineConstants: defines,
		Nullable:        p.property(func(g propertyGroup) string { return g.Nullable }),
	}
}

func (p *msbuildProject) references(dir string) []MetadataReference {
	var refs []MetadataReference

	for _, group := range p.ItemGroups {
		for _, it := range group.Reference {
			name, _, _ := strings.Cut(it.Include, ",")
			ref := MetadataReference{Name: strings.TrimSpace(name), Kind: ReferenceAssembly}

			if it.HintPath != "" {
				ref.HintPath = resolveItemPath(dir, it.HintPath)
			}

			refs = append(refs, ref)
		}

		for _, it := range group.PackageReference {
			refs = append(refs, MetadataReference{
				Name:    strings.TrimSpace(it.Include),
				Version: strings.TrimSpace(it.Version),
				Kind:    ReferencePackage,
			})
		}

		for _, it := range group.ProjectReference {
			path := resolveItemPath(dir, it.Include)
			refs = append(refs, MetadataReference{
				Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
				HintPath: path,
				Kind:     ReferenceProject,
			})
		}
	}

	return refs
}

// documentItems returns the include and remove patterns of every document item.
func (p *msbuildProject) documentItems() (includes, removes []string) {
	for _, group := range p.ItemGroups {
		for _, items := range [][]item{group.Compile, group.None, group.Content, group.AdditionalFiles} {
			for _, it := range items {
				includes = append(includes, splitItems(it.Include)...)
				removes = append(removes, splitItems(it.Remove)...)
			}
		}
	}

	return includes, removes
}

func splitItems(spec string) []string {
	var out []string

	for _, s := range strings.Split(spec, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}

// resolveItemPath expands MSBuild directory properties and converts the
// Windows separators used in project files.
func resolveItemPath(dir, spec string) string {
	withSep := dir + string(filepath.Separator)
	spec = options.ExpandMacros(spec, map[string]string{
		"MSBuildThisFileDirectory": withSep,
		"MSBuildProjectDirectory":  dir,
	})

	spec = filepath.FromSlash(strings.ReplaceAll(spec, `\`, "/"))
	if !filepath.IsAbs(spec) {
		spec = filepath.Join(dir, spec)
	}

	return filepath.Clean(spec)
}
