// Package cli implements the command-line interface for abt.
//
// The cli package provides the Cobra-based CLI with one subcommand per
// extractor (schedule, ground, card, result) plus race-id. Every command
// prints its table as text, JSON or CSV, can save it to the data
// directory, and can dump fetch metrics to a Prometheus textfile.
package cli
