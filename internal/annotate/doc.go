// Package annotate extracts structured metadata from the documentation block
// attached to a process or process group.
//
// A documentation block starts with a summary, followed by titled sections:
//
//	Short summary line.
//
//	Longer description, any number of paragraphs.
//
//	Input:
//	    infile: The input file
//	Envs:
//	    ncores (type:int): Number of cores
//	    mode (choices): How to run
//	        - fast: Skip the slow checks
//	        - full: Run everything
//
// Section titles sit at column zero and end with a colon. Items inside Input,
// Output, Envs and Args are written as `name (attrs): help`; lines indented
// deeper continue the help text, and `- term: help` lines become sub-terms,
// nesting by indentation.
//
// Attributes are separated by `;` and take the form `key` or `key:value`:
// `type:<name>`, `choices` (terms become the choices) or `choices:a,b`,
// `ns`/`namespace`, `flag`, `list`/`array`, `hidden`, `required` and
// `default:<value>`.
package annotate
