// Package metrics counts verification run activity for Prometheus.
//
// A Recorder keeps its collectors on a private registry and is written out
// once per run in node-exporter textfile format.
package metrics
