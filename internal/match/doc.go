// Package match verifies accession records against the restored-file index.
//
// The Matcher classifies each record by querying the index with the richest
// key the record supports and weakening the key until something is found.
// Resolve then picks one copy for every record with several candidates, using
// the directory shared by the batch's unambiguous matches as the signal for
// the canonical storage location.
package match
