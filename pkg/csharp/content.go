package csharp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/pbmerge/pkg/parts"
)

const languageCSharp = "C#"

// IsSource reports whether the file is C# source by its extension.
// ".cs" is ambiguous in the language tables, so any C# candidate counts.
func IsSource(path string) bool {
	return slices.Contains(enry.GetLanguagesByExtension(filepath.Base(path), nil, nil), languageCSharp)
}

// ContentRequest describes the files of one project to load.
type ContentRequest struct {
	// ProjectDir is the directory holding the project file.
	ProjectDir string
	// Files are the project documents in traversal order.
	Files []string
	// Ignored reports paths excluded by the project configuration. May be nil.
	Ignored func(path string) bool
	// Policy assigns fragment weights. Nil weighs every fragment 0.
	Policy parts.WeightPolicy
}

// ContentLoader turns a project's documents into ProjectContent.
type ContentLoader struct {
	analyzer *Analyzer
	cache    *AnalysisCache
	observe  func(ctx context.Context, hit bool)
}

// NewContentLoader creates a ContentLoader. cache may be nil.
func NewContentLoader(analyzer *Analyzer, cache *AnalysisCache) *ContentLoader {
	return &ContentLoader{analyzer: analyzer, cache: cache}
}

// ObserveCache registers fn to be told about every cache lookup.
// It must be called before the loader is shared between goroutines.
func (l *ContentLoader) ObserveCache(fn func(ctx context.Context, hit bool)) {
	l.observe = fn
}

// Load analyzes every contributing document and merges the results.
// Debug documents, ignored paths and non-source documents are skipped;
// any other failure aborts the whole project.
func (l *ContentLoader) Load(ctx context.Context, req ContentRequest) (*parts.ProjectContent, error) {
	content := parts.NewProjectContent()
	order := 0

	var (
		header      string
		headerBased bool
	)

	for _, path := range req.Files {
		if IsDebugDocument(path) || (req.Ignored != nil && req.Ignored(path)) {
			continue
		}

		if IsReadme(req.ProjectDir, path) {
			if content.Readme != "" {
				continue
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read readme: %w", err)
			}

			content.Readme = NormalizeReadme(string(data))

			continue
		}

		if !IsSource(path) {
			continue
		}

		fa, err := l.analyze(ctx, path)
		if err != nil {
			return nil, err
		}

		for _, stmt := range fa.Imports {
			content.Imports.Add(stmt)
		}

		for _, c := range fa.Containers {
			if header == "" || (c.HasBase && !headerBased) {
				header = c.Header
				headerBased = c.HasBase
			}
		}

		for _, decl := range fa.Declarations {
			part := parts.Part{
				File:  path,
				Kind:  decl.Kind,
				Name:  decl.Name,
				Text:  decl.Text,
				Order: order,
			}
			order++

			var frag parts.Fragment
			if decl.Entry {
				frag = &parts.EntryBody{Part: part}
			} else {
				frag = &parts.Standalone{Part: part}
			}

			if req.Policy != nil {
				frag.Source().Weight = req.Policy.Weigh(frag, decl.Leading)
			}

			switch f := frag.(type) {
			case *parts.EntryBody:
				content.Entries = append(content.Entries, f)
			case *parts.Standalone:
				content.Standalone = append(content.Standalone, f)
			}
		}
	}

	content.Container = header

	return content, nil
}

func (l *ContentLoader) analyze(ctx context.Context, path string) (*FileAnalysis, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}

	fa, ok := l.cache.Get(path, info)
	if l.observe != nil && l.cache != nil {
		l.observe(ctx, ok)
	}

	if ok {
		return fa, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	fa, err = l.analyzer.AnalyzeFile(ctx, path, src)
	if err != nil {
		return nil, err
	}

	l.cache.Add(path, info, fa)

	return fa, nil
}
