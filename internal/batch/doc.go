// Package batch groups accession listings into named batches.
//
// Listings are discovered in a flat source directory and grouped by the first
// component of their "<batch>_<date>_<extra>" filename. A Batch holds the flat,
// ordered record sequence of its listings, an index of in-batch duplicate
// keys, and the notes collected while matching. Finalize applies the deposit
// gate once matching and duplicate resolution are done.
package batch
