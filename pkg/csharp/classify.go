package csharp

// Class is the classification of a top-level declaration.
type Class int

// Declaration classes.
const (
	// ClassSkip marks declarations that contribute nothing (global attributes, extern aliases).
	ClassSkip Class = iota
	// ClassEntryContainer marks a declaration of the entry container type.
	ClassEntryContainer
	// ClassStandalone marks a declaration copied verbatim after the container.
	ClassStandalone
	// ClassNamespace marks a namespace whose members are classified recursively.
	ClassNamespace
	// ClassImport marks a using directive.
	ClassImport
	// ClassComment marks a comment that may attach to the next declaration.
	ClassComment
	// ClassUnsupported marks top-level statements, which a script cannot hold.
	ClassUnsupported
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassSkip:
		return "skip"
	case ClassEntryContainer:
		return "entry-container"
	case ClassStandalone:
		return "standalone"
	case ClassNamespace:
		return "namespace"
	case ClassImport:
		return "import"
	case ClassComment:
		return "comment"
	case ClassUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Classify maps a declaration shape to its class. kind is the tree-sitter
// node type, name the declared identifier and container the configured entry
// container name.
func Classify(kind, name, container string) Class {
	switch kind {
	case "comment":
		return ClassComment
	case "using_directive":
		return ClassImport
	case "namespace_declaration", "file_scoped_namespace_declaration", "declaration_list":
		return ClassNamespace
	case "class_declaration":
		if name == container {
			return ClassEntryContainer
		}

		return ClassStandalone
	case "struct_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "record_struct_declaration", "delegate_declaration":
		return ClassStandalone
	case "global_statement":
		return ClassUnsupported
	case "extern_alias_directive", "global_attribute", "attribute_list",
		"preproc_region", "preproc_endregion", "preproc_pragma", "preproc_nullable",
		"preproc_line", "preproc_warning", "preproc_error", "shebang_directive":
		return ClassSkip
	case "identifier", "qualified_name":
		// The name of a namespace declaration.
		return ClassSkip
	default:
		return ClassStandalone
	}
}
