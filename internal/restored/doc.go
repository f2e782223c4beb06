// Package restored owns the Restored-File Index: the catalogue of files
// recovered from storage that accession inventories are verified against.
//
// The index is a relational table of (filename, bytes, md5, path) rows queried
// by one of three key shapes. A Store backs it with SQLite (modernc.org/sqlite)
// or PostgreSQL (pgx stdlib driver); CachedIndex memoizes lookups with an LRU.
// Restored-file listings are imported with Load/LoadDir, one transaction per
// listing, each row tagged with a UUID and its listing of origin.
package restored
