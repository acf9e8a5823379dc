// Package argparse turns a command line into a Namespace following a
// schema.Schema.
//
// Each schema option becomes a long flag named after its dotted destination
// (--P1.envs.x). Parsing is delegated to spf13/pflag; this package only
// normalizes argv around it:
//
//   - list options take every following value up to the next option, so
//     `--in.a 1 2 3` is a single occurrence carrying three values;
//   - `@path` tokens read a TOML argument file whose keys are applied, in argv
//     position, as if they had been given on the command line;
//   - -h/--help and -h+/--help+ print basic and extended help.
//
// Every value given on the command line or in an argument file is recorded as
// explicitly supplied, so later stages never compare against defaults to find
// out what the user passed.
package argparse
