// Package accession models the files claimed by accession inventories.
//
// A Record starts Unresolved and moves exactly once to a terminal Status.
// The matched statuses (Found, PerfectMatch, WithDuplicates) always carry a
// restored reference; the others never do. The methods that change state
// enforce this, so callers cannot produce a matched record without a path.
package accession
