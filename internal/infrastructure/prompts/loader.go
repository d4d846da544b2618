package prompts

import (
	_ "embed"
)

//go:embed relevance.txt
var RelevancePrompt string

//go:embed relevance_input.txt
var RelevanceInput string

//go:embed mapping.txt
var MappingPrompt string

//go:embed mapping_input.txt
var MappingInput string
