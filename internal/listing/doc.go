// Package listing reads accession inventory listings.
//
// Three historical dialects are recognized from a listing's first line:
// MS-DOS style directory output ("Volume in drive ..."), a semicolon separated
// export whose sizes are in KiB, and delimited tables with a header row mapped
// through a static synonym table. Listings are decoded by trying UTF-8, then
// ISO-8859-1, Mac Roman, and Windows-1252. Every parsed record remembers the
// listing and 1-based line it came from.
package listing
