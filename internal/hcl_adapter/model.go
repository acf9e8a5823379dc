package hcl_adapter

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot decodes all top-level blocks of a file.
type fileRoot struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
	Groups    []*groupBlock    `hcl:"group,block"`
	Processes []*processBlock  `hcl:"process,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type pipelineBlock struct {
	Name    string    `hcl:"name,label"`
	Desc    *string   `hcl:"desc,optional"`
	Outdir  *string   `hcl:"outdir,optional"`
	Workdir *string   `hcl:"workdir,optional"`
	Profile *string   `hcl:"profile,optional"`
	Starts  []string  `hcl:"starts,optional"`
	Config  cty.Value `hcl:"config,optional"`
	Fixed   cty.Value `hcl:"fixed,optional"`
}

type groupBlock struct {
	Name       string    `hcl:"name,label"`
	Doc        *string   `hcl:"doc,optional"`
	Defaults   cty.Value `hcl:"defaults,optional"`
	Options    cty.Value `hcl:"options,optional"`
	PluginOpts cty.Value `hcl:"plugin_opts,optional"`
}

type processBlock struct {
	Name      string    `hcl:"name,label"`
	Doc       *string   `hcl:"doc,optional"`
	Group     *string   `hcl:"group,optional"`
	Input     []string  `hcl:"input,optional"`
	Output    []string  `hcl:"output,optional"`
	Requires  []string  `hcl:"requires,optional"`
	InputData cty.Value `hcl:"input_data,optional"`
	Envs      cty.Value `hcl:"envs,optional"`
	EnvsDepth *int      `hcl:"envs_depth,optional"`

	Cache           *string `hcl:"cache,optional"`
	DirSig          *int    `hcl:"dirsig,optional"`
	Lang            *string `hcl:"lang,optional"`
	ErrorStrategy   *string `hcl:"error_strategy,optional"`
	NumRetries      *int    `hcl:"num_retries,optional"`
	Forks           *int    `hcl:"forks,optional"`
	SubmissionBatch *int    `hcl:"submission_batch,optional"`
	Scheduler       *string `hcl:"scheduler,optional"`
	Order           *int    `hcl:"order,optional"`
	Export          *bool   `hcl:"export,optional"`

	SchedulerOpts cty.Value `hcl:"scheduler_opts,optional"`
	PluginOpts    cty.Value `hcl:"plugin_opts,optional"`
}
