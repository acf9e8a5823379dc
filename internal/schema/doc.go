// Package schema models the command-line surface generated for a pipeline
// and builds it from the pipeline's process graph.
//
// Every option is a Flag addressed by a dotted destination. In a flattened
// schema the sole process's options live at the top level (`--in.infile`);
// otherwise each process gets its own prefix (`--P1.in.infile`), nested under
// its group when it has one (`--G.P1.in.infile`).
package schema
