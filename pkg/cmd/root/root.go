package root

import (
	"github.com/spf13/cobra"

	"github.com/fernwood/aliascp/pkg/utils/log"
)

var (
	maxHops              = 10
	blockSize            = "256k"
	transferRateLimitStr string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aliascp [flags] SOURCE DEST",
		Short: "Copy a macOS folder, replacing Finder aliases with their targets",
		Long: `
aliascp recursively copies SOURCE into DEST. Finder alias files are
dereferenced along the way: the destination receives a real copy of each
alias's target, named after the alias with the target's extension
appended when missing. Aliases that cannot be resolved (e.g. pointing at
an unmounted volume) are copied literally with a warning.

POSIX symlinks encountered as ordinary entries are copied as links, not
followed. macOS only.
`,
		Args:         cobra.ExactArgs(2),
		RunE:         runCopy,
		SilenceUsage: true,
	}

	f := cmd.Flags()

	f.IntVar(&maxHops, "max-hops", maxHops, "Maximum alias-to-alias hops to follow before giving up")
	f.StringVar(&blockSize, "block-size", blockSize, "Internal input and output block size (e.g., 32k, 1m)")
	f.StringVar(&transferRateLimitStr, "transfer-rate-limit", "", "Limit bytes copied per second (e.g., 1m, 500k)")

	pf := cmd.PersistentFlags()
	pf.CountVarP(&log.Verbosity, "verbose", "v", "Enable verbose output (-v logs each alias resolution, -vv everything)")

	return cmd
}
