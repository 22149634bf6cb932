package parts

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Placement weights for the "first" and "last" directives.
const (
	WeightFirst = math.MinInt32
	WeightLast  = math.MaxInt32
)

// DefaultDirectivePrefix introduces an ordering directive comment.
const DefaultDirectivePrefix = "pbmerge:"

// WeightPolicy assigns a sort weight to a fragment. leading holds the comment
// lines directly above the declaration, without comment markers.
type WeightPolicy interface {
	Weigh(frag Fragment, leading []string) int
}

// WeightFunc adapts a plain function to WeightPolicy.
type WeightFunc func(frag Fragment, leading []string) int

// Weigh calls the function.
func (fn WeightFunc) Weigh(frag Fragment, leading []string) int { return fn(frag, leading) }

// DirectivePolicy reads placement directives from leading comments:
//
//	// pbmerge: first
//	// pbmerge: last
//	// pbmerge: order -10
//
// The last directive wins. Fragments without a directive weigh 0.
type DirectivePolicy struct {
	Prefix string
}

// NewDirectivePolicy creates a DirectivePolicy for the given prefix, or the default one.
func NewDirectivePolicy(prefix string) *DirectivePolicy {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultDirectivePrefix
	}

	return &DirectivePolicy{Prefix: strings.TrimSpace(prefix)}
}

// Weigh implements WeightPolicy.
func (p *DirectivePolicy) Weigh(_ Fragment, leading []string) int {
	weight := 0

	for _, line := range leading {
		rest, ok := cutPrefixFold(strings.TrimSpace(line), p.Prefix)
		if !ok {
			continue
		}

		fields := strings.Fields(strings.ToLower(rest))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "first":
			weight = WeightFirst
		case "last":
			weight = WeightLast
		case "order":
			if len(fields) < 2 { //nolint:mnd // directive + value
				continue
			}

			n, err := strconv.Atoi(fields[1])
			if err == nil {
				weight = n
			}
		}
	}

	return weight
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}

	return s[len(prefix):], true
}

// SortEntries orders entry fragments by weight, keeping traversal order for ties.
func SortEntries(entries []*EntryBody) {
	slices.SortStableFunc(entries, func(a, b *EntryBody) int {
		return compareParts(&a.Part, &b.Part)
	})
}

// SortStandalone orders standalone fragments by weight, keeping traversal order for ties.
func SortStandalone(standalone []*Standalone) {
	slices.SortStableFunc(standalone, func(a, b *Standalone) int {
		return compareParts(&a.Part, &b.Part)
	})
}

// Sort orders both fragment lists of the content in place.
func (pc *ProjectContent) Sort() {
	SortEntries(pc.Entries)
	SortStandalone(pc.Standalone)
}

func compareParts(a, b *Part) int {
	if c := cmp.Compare(a.Weight, b.Weight); c != 0 {
		return c
	}

	return cmp.Compare(a.Order, b.Order)
}
