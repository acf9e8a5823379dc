// Package dag models the dependency relationships between pipeline processes
// as a directed acyclic graph. It answers the questions the argument layer
// asks of a pipeline: which processes start it, which processes follow each
// one, and in what order the processes should be presented.
package dag
