package argparse

import "errors"

var (
	// ErrHelp is returned by Parse after help was printed.
	ErrHelp = errors.New("help requested")
	// ErrUsage is returned for malformed command lines.
	ErrUsage = errors.New("usage error")
	// ErrUnknownFlag is returned for options, or argument file keys, that
	// the schema does not define.
	ErrUnknownFlag = errors.New("unknown option")
	// ErrExtraRequired is returned when an extra option is registered
	// without a name or a fallback.
	ErrExtraRequired = errors.New("invalid extra option")
	// ErrNotBound is returned when parsing before a schema is bound.
	ErrNotBound = errors.New("no schema bound to the parser")
)
