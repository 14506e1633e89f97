/*
Package config loads merge job definitions for mergerc.

	            +-------------+
	            |   Config    |
	            |   (Jobs)    |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   HCL    | |   YAML   | |   JSON   |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Reads a config file and picks a parser by extension
- Converts the on-disk shape into Job values
- Validates jobs and fills in defaults (macro, tool, tool flags)

🔄 Flow:
1. Reads configuration from file
2. Parses format-specific syntax
3. Validates every job
4. Hands the validated Config to the pipeline

HCL configs can read the environment through the env object:

	merge "embed-only" {
	  directory   = "${env.MERGE_ROOT}/intermediate_merge"
	  prefix      = "sPhenixG4_forTrackCutStudy_embedOnly0t99_g4svtxeval.d"
	  suffix      = "m12y2022.root"
	  list_file   = "embedOnly.list"
	  output_file = "embedOnly.root"
	}

🔍 Example:

	cfg, err := config.Load(ctx, ".mergerc.hcl")
	if err != nil {
		return err
	}
	job, ok := cfg.Find("embed-only")
*/
package config
