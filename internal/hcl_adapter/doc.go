// Package hcl_adapter loads pipeline declarations from HCL files.
//
// A declaration holds one pipeline block plus any number of group and
// process blocks, possibly spread over several files:
//
//	pipeline "rnaseq" {
//	  desc   = "Count reads per gene"
//	  config = { forks = 4 }
//	  fixed  = { plugin_opts = { args_dump = true } }
//	}
//
//	process "Align" {
//	  doc    = <<-EOT
//	    Align reads.
//
//	    Input:
//	        reads: The reads to align
//	    EOT
//	  input  = ["reads:files"]
//	  output = ["bam:file"]
//	  envs   = { threads = 2 }
//	}
//
//	process "Count" {
//	  requires = ["Align"]
//	  output   = ["counts:file"]
//	}
//
// Processes are added in declaration order; `requires` may name processes
// declared later or in other files.
package hcl_adapter
