// Package cli is responsible for parsing the binary's own command-line
// arguments, validating user input, and handling process-level concerns like
// exit codes. Everything after the pipeline path is handed to the pipeline's
// generated argument parser untouched.
package cli
