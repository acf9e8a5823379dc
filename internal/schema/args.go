package schema

// argSpec describes a built-in option shared by the pipeline and processes.
type argSpec struct {
	name     string
	help     string
	kind     Kind
	typ      string
	choices  []string
	hidden   bool
	internal bool
}

var pipelineArgs = []argSpec{
	{
		name: "name",
		help: "The name for the pipeline, will affect the default workdir and outdir.",
	},
	{
		name: "profile",
		help: "The default profile from the configuration to run the pipeline. " +
			"This profile will be used unless a profile is specified in the process.",
	},
	{
		name: "outdir",
		typ:  "path",
		help: "The output directory of the pipeline [default: ./<name>-output]",
	},
	{
		name:    "loglevel",
		typ:     "lower",
		choices: []string{"debug", "info", "warning", "error", "critical"},
		hidden:  true,
		help:    "The logging level for the main logger, only takes effect after pipeline is initialized [default: info]",
	},
	{
		name:    "cache",
		typ:     "lower",
		choices: []string{"true", "false", "force"},
		hidden:  true,
		help: "Whether enable caching for processes [default: true]\n" +
			"- true: Enable caching for all processes\n" +
			"- false: Disable caching for all processes\n" +
			"- force: Force caching even when the job signature changed,\n" +
			"  such as envs or script file change",
	},
	{
		name:     "dirsig",
		typ:      "int",
		hidden:   true,
		internal: true,
		help:     "The depth to check the last modification time of a directory, since modifying the content won't change it.",
	},
	{
		name:    "error_strategy",
		choices: []string{"ignore", "halt", "retry"},
		hidden:  true,
		help: "How we should deal with job errors.\n" +
			"- ignore: Let other jobs keep running. But the process is still failing when done.\n" +
			"- halt: Halt the pipeline, other running jobs will be killed.\n" +
			"- retry: Retry this job on the scheduler system.",
	},
	{
		name:   "num_retries",
		typ:    "int",
		hidden: true,
		help:   "How many times to retry the job when failed",
	},
	{
		name: "forks",
		typ:  "int",
		help: "How many jobs to run simultaneously by the scheduler",
	},
	{
		name:   "submission_batch",
		typ:    "int",
		hidden: true,
		help:   "How many jobs to submit simultaneously to the scheduler system",
	},
	{
		name:   "workdir",
		typ:    "path",
		hidden: true,
		help:   "The root of the working directories, the pipeline name is appended [default: ./.pipen]",
	},
	{
		name: "scheduler",
		help: "The scheduler to run the jobs",
	},
	{
		name:   "scheduler_opts",
		kind:   KindDict,
		typ:    "json",
		hidden: true,
		help:   "The default scheduler options. Will update to the default one",
	},
	{
		name:   "plugins",
		kind:   KindList,
		hidden: true,
		help:   "A list of plugins to only enable or disable for this pipeline. To disable plugins, use `no:<plugin_name>`",
	},
	{
		name:   "plugin_opts",
		kind:   KindDict,
		typ:    "json",
		hidden: true,
		help:   "Plugin options. Will update to the default.",
	},
	{
		name:   "template_opts",
		kind:   KindDict,
		typ:    "json",
		hidden: true,
		help:   "Template options. Will update to the default.",
	},
	{
		name:     "lang",
		hidden:   true,
		internal: true,
		help:     "The language interpreter to use for the pipeline/process [default: bash]",
	},
}

// processArgNames lists the per-process control options, in help order.
var processArgNames = []string{
	"cache", "dirsig", "lang", "error_strategy", "num_retries", "forks",
	"submission_batch", "order", "export", "scheduler", "scheduler_opts", "plugin_opts",
}

var processOnlyArgs = map[string]argSpec{
	"order": {
		name:     "order",
		typ:      "int",
		hidden:   true,
		internal: true,
		help:     "The order of the process, larger number means later [default: 0]",
	},
	"export": {
		name:   "export",
		kind:   KindFlag,
		typ:    "bool",
		hidden: true,
		help:   "Whether to export the output of the process to the pipeline output directory",
	},
}

func lookupArg(name string) argSpec {
	if spec, ok := processOnlyArgs[name]; ok {
		return spec
	}
	for _, spec := range pipelineArgs {
		if spec.name == name {
			return spec
		}
	}
	panic("unknown built-in option " + name)
}

// ProcessArgNames returns the names of the per-process control options.
func ProcessArgNames() []string {
	out := make([]string, len(processArgNames))
	copy(out, processArgNames)
	return out
}

// IsPipelineArg reports whether name is a built-in pipeline-level option.
func IsPipelineArg(name string) bool {
	for _, spec := range pipelineArgs {
		if spec.name == name {
			return true
		}
	}
	return false
}
