/*
Package nodeid provides a structured representation for option destinations
within an argument schema.

The canonical format is a dot-separated sequence of segments, e.g.
`Process1.envs.ncores` or `in.infile`. Each segment names one level of the
nested configuration tree that the destination addresses.

This package enforces the identifier format and centralizes formatting and
parsing, so that the schema builder, the argument parser and the dumper all
agree on how a destination is spelled.
*/
package nodeid
