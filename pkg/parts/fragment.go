// Package parts defines the classified source fragments that make up a merged
// script, together with the ordering rules used to assemble them.
package parts

// Fragment is a classified declaration extracted from one source file.
// The set of variants is closed: only EntryBody and Standalone implement it.
type Fragment interface {
	// Source returns the common fragment attributes.
	Source() *Part

	isFragment()
}

// Part holds the attributes shared by every fragment variant.
type Part struct {
	// File is the absolute path of the originating source file.
	File string
	// Kind is the tree-sitter node type of the declaration (e.g. "method_declaration").
	Kind string
	// Name is the declared identifier, empty for declarations without one (fields).
	Name string
	// Text is the verbatim declaration text including attached leading comments.
	Text string
	// Weight is the assigned sort weight; lower sorts first.
	Weight int
	// Order is the traversal index across the whole project, used for stable ties.
	Order int
}

// EntryBody is a member declaration merged into the synthesized entry container.
type EntryBody struct {
	Part
}

// Standalone is a top-level declaration copied verbatim after the container.
type Standalone struct {
	Part
}

// Source returns the common fragment attributes.
func (f *EntryBody) Source() *Part { return &f.Part }

// Source returns the common fragment attributes.
func (f *Standalone) Source() *Part { return &f.Part }

func (*EntryBody) isFragment()  {}
func (*Standalone) isFragment() {}

// Split separates a mixed fragment list into its two variants, preserving order.
func Split(fragments []Fragment) (entries []*EntryBody, standalone []*Standalone) {
	for _, frag := range fragments {
		switch f := frag.(type) {
		case *EntryBody:
			entries = append(entries, f)
		case *Standalone:
			standalone = append(standalone, f)
		}
	}

	return entries, standalone
}
