// Package main hosts the verifier CLI entrypoint and command graph.
//
// The Cobra command tree exposes the verification run, listing inspection,
// restored-file index maintenance, and configuration scaffolding. It owns
// configuration resolution and logger construction so subcommands only wire
// flags into the internal packages.
package main
