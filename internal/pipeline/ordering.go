package pipeline

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docmorph/docmorph/internal/analyzer"
	sharederrors "github.com/docmorph/docmorph/pkg/shared/errors"
)

// noPrefixSentinel sorts files without a numeric prefix after every
// real prefix.
const noPrefixSentinel = math.MaxInt32

// DiscoverModules lists the transform module file names directly inside
// dir, in lexicographic order.
func DiscoverModules(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, sharederrors.NewMissingResource(dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, accepted := range analyzer.ModuleExtensions() {
			if ext == accepted {
				names = append(names, entry.Name())
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// OrderModules decides execution order. An explicit order list has
// authority: its entries run first, in list order, and discovered files
// not named in the list are appended in lexicographic order. Without an
// explicit list, files sort by leading numeric prefix (non-prefixed
// files last), then lexicographically among equal prefixes.
func OrderModules(discovered []string, explicit []string) []string {
	if len(explicit) > 0 {
		ordered := make([]string, 0, len(discovered)+len(explicit))
		named := make(map[string]bool, len(explicit))
		for _, name := range explicit {
			ordered = append(ordered, name)
			named[name] = true
		}

		var rest []string
		for _, name := range discovered {
			if !named[name] {
				rest = append(rest, name)
			}
		}
		sort.Strings(rest)
		return append(ordered, rest...)
	}

	ordered := make([]string, len(discovered))
	copy(ordered, discovered)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := numericPrefix(ordered[i]), numericPrefix(ordered[j])
		if pi != pj {
			return pi < pj
		}
		return ordered[i] < ordered[j]
	})
	return ordered
}

// numericPrefix parses the leading digits of a file name, returning the
// sentinel when there are none.
func numericPrefix(name string) int {
	end := 0
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}
	if end == 0 {
		return noPrefixSentinel
	}

	prefix := 0
	for _, c := range name[:end] {
		prefix = prefix*10 + int(c-'0')
		if prefix >= noPrefixSentinel {
			return noPrefixSentinel - 1
		}
	}
	return prefix
}
