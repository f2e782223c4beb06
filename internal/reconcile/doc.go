// Package reconcile runs a full verification pass: it discovers accession
// listings, matches every batch against the restored-file index, settles
// duplicates, applies the deposit gate, and writes the deposit package.
// Runs that write the package hold an exclusive lock on it.
package reconcile
