// Package resolver builds the prefix lookup table derived from a registry
// snapshot and answers longest-prefix queries against it.
package resolver

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/arkproject/ark-root-resolver/internal/registry"
)

// ErrNoMatch is returned by Match when no registered prefix is a prefix of
// the identifier.
var ErrNoMatch = errors.New("no registered prefix matches the identifier")

// Map is an immutable longest-prefix lookup table over registered prefixes.
// It is safe for concurrent readers; a refresh replaces the whole Map
// rather than mutating it.
type Map struct {
	targets map[string]registry.Target

	// lengths holds the distinct prefix lengths present in targets, longest
	// first. Match probes one candidate per length, so a lookup costs one
	// hash probe per distinct length instead of a scan over all prefixes.
	lengths []int
}

// BuildReport records anomalies encountered while building a Map. The
// build itself never fails; the caller decides whether to log the report.
type BuildReport struct {
	// Duplicates maps each prefix that occurred more than once to its
	// occurrence count. The last occurrence wins.
	Duplicates map[string]int

	// SkippedEmpty counts records whose prefix was empty.
	SkippedEmpty int
}

// HasIssues reports whether the build encountered anything worth logging.
func (r *BuildReport) HasIssues() bool {
	return len(r.Duplicates) > 0 || r.SkippedEmpty > 0
}

// BuildMap derives a lookup table from registry records. Records are
// applied in order, so a prefix registered twice resolves to its last
// target. Records without a prefix are skipped and counted in the report.
func BuildMap(records []registry.NaanRecord) (*Map, *BuildReport) {
	targets := make(map[string]registry.Target, len(records))
	seen := make(map[string]int, len(records))
	report := &BuildReport{}

	for _, rec := range records {
		if rec.What == "" {
			report.SkippedEmpty++
			continue
		}
		seen[rec.What]++
		targets[rec.What] = rec.Target
	}

	for what, count := range seen {
		if count > 1 {
			if report.Duplicates == nil {
				report.Duplicates = make(map[string]int)
			}
			report.Duplicates[what] = count
		}
	}

	distinct := make(map[int]struct{})
	for what := range targets {
		distinct[len(what)] = struct{}{}
	}
	lengths := make([]int, 0, len(distinct))
	for l := range distinct {
		lengths = append(lengths, l)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(lengths)))

	return &Map{targets: targets, lengths: lengths}, report
}

// Len returns the number of registered prefixes.
func (m *Map) Len() int {
	return len(m.targets)
}

// Match returns the longest registered prefix of the identifier and its
// target. Probing runs longest length first; at most one prefix of a given
// length can match a given identifier, so the longest match is unique and
// repeated calls always return the same result. Returns ErrNoMatch when no
// prefix matches.
func (m *Map) Match(identifier string) (string, registry.Target, error) {
	for _, l := range m.lengths {
		if l > len(identifier) {
			continue
		}
		if target, ok := m.targets[identifier[:l]]; ok {
			return identifier[:l], target, nil
		}
	}
	return "", registry.Target{}, ErrNoMatch
}

// MarshalJSON encodes the map as a JSON object keyed by prefix, with each
// target serialized in its original registry form.
func (m *Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.targets)
}
