// Package app contains the core application logic. It wires a pipeline
// declaration to the argument layer: it builds the option schema, parses the
// command line, resolves the final configuration and writes it back onto the
// pipeline, decoupled from any specific entrypoint like a CLI.
package app
