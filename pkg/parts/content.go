package parts

import "strings"

// DefaultContainerHeader is used when no file declares the entry container.
const DefaultContainerHeader = "public partial class Program : MyGridProgram"

// ProjectContent aggregates everything extracted from one project's files.
// It is built once per project per build and discarded after assembly.
type ProjectContent struct {
	// Imports holds the deduplicated using directives in first-seen order.
	Imports *ImportSet
	// Entries are the members of the entry container.
	Entries []*EntryBody
	// Standalone are the declarations placed after the container.
	Standalone []*Standalone
	// Container is the header of the synthesized entry container declaration.
	Container string
	// Readme is the optional preamble prepended to the final script.
	Readme string
}

// NewProjectContent creates an empty ProjectContent.
func NewProjectContent() *ProjectContent {
	return &ProjectContent{Imports: NewImportSet()}
}

// IsEmpty reports whether the project produced no fragments at all.
func (pc *ProjectContent) IsEmpty() bool {
	return len(pc.Entries) == 0 && len(pc.Standalone) == 0
}

// ContainerHeader returns the container declaration header, falling back to the default.
func (pc *ProjectContent) ContainerHeader() string {
	if strings.TrimSpace(pc.Container) == "" {
		return DefaultContainerHeader
	}

	return pc.Container
}

// Fragments returns all fragments, entries first, in their current order.
func (pc *ProjectContent) Fragments() []Fragment {
	out := make([]Fragment, 0, len(pc.Entries)+len(pc.Standalone))

	for _, e := range pc.Entries {
		out = append(out, e)
	}

	for _, s := range pc.Standalone {
		out = append(out, s)
	}

	return out
}
