// Package preflight checks that the paths and index a verification run
// depends on are usable before any listing is read.
//
// The CLI "verifier config validate" command prints every result; a run
// never aborts on a preflight failure by itself.
package preflight
