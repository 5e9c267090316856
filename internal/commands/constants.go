package commands

import "github.com/blairham/hookrun/pkg/config"

// Git hook types hookrun can install
const (
	hookTypePreCommit      = "pre-commit"
	hookTypePreMergeCommit = "pre-merge-commit"
	hookTypePrePush        = "pre-push"
	hookTypePostCheckout   = "post-checkout"
	hookTypePostCommit     = "post-commit"
	hookTypePostMerge      = "post-merge"
)

var supportedHookTypes = []string{
	hookTypePreCommit,
	hookTypePreMergeCommit,
	hookTypePrePush,
	hookTypePostCheckout,
	hookTypePostCommit,
	hookTypePostMerge,
}

// Common constants used across command implementations
const (
	// OptionsUsage is the usage suffix of commands that take only options
	OptionsUsage = "[OPTIONS]"

	// DefaultConfig is the configuration read when -c is not given
	DefaultConfig = config.ConfigFileName

	// skipEnvVar lists hook ids to skip, comma separated
	skipEnvVar = "SKIP"
)
