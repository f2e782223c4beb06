// Package deposit turns verified batches into the deposit package.
//
// Classify sorts a finalized batch into the manifest (restored copies to
// deposit), deaccessions (excluded records and surplus copies), and missing
// records. A Writer lays the package out on disk: reports for every batch
// under reports/<id>/, deposit files only for eligible batches under
// batches/<id>/, and summary.json at the root.
package deposit
