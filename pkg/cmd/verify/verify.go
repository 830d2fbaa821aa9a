package verify

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/fernwood/aliascp/pkg/alias"
	"github.com/fernwood/aliascp/pkg/hasher"
	"github.com/fernwood/aliascp/pkg/planner"
	"github.com/fernwood/aliascp/pkg/utils/log"
	"github.com/fernwood/aliascp/pkg/utils/size"
	"github.com/fernwood/aliascp/pkg/validation"
)

var (
	maxHops            = 10
	maxConcurrentFiles = 16
	blockSize          = "256k"

	transferRateLimitStr string
	fileRateLimitStr     string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "verify [flags] SOURCE DEST",
		Short:        "Check a finished copy against the source tree",
		Long:         "Recomputes the copy plan for SOURCE (including alias resolution and renaming) and checks that DEST matches: file contents by BLAKE3 hash, symlinks by target.",
		Args:         cobra.ExactArgs(2),
		RunE:         runVerify,
		SilenceUsage: true,
	}

	f := cmd.Flags()

	f.IntVar(&maxHops, "max-hops", maxHops, "Maximum alias-to-alias hops to follow before giving up")
	f.StringVar(&blockSize, "block-size", blockSize, "Internal input and output block size (e.g., 32k, 1m)")
	f.IntVarP(&maxConcurrentFiles, "concurrent-files", "c", maxConcurrentFiles, "Maximum number of files hashed concurrently")

	f.StringVar(&transferRateLimitStr, "transfer-rate-limit", "", "Limit bytes hashed per second (e.g., 1m, 500k), shared by source and destination reads")
	f.StringVar(&fileRateLimitStr, "file-rate-limit", "", "Limit files hashed per second (e.g., 10, 1k)")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	logger := log.GetLogger(cmd.ErrOrStderr(), term.IsTerminal(int(os.Stderr.Fd())))

	if runtime.GOOS != "darwin" {
		return errors.New("aliascp only supports macOS")
	}

	source, err := filepath.Abs(args[0])
	if err != nil {
		return errors.Wrapf(err, "failed to resolve source %s", args[0])
	}
	destination, err := filepath.Abs(args[1])
	if err != nil {
		return errors.Wrapf(err, "failed to resolve destination %s", args[1])
	}

	if err := validation.ValidateSourceAndDestination(source, destination); err != nil {
		return err
	}

	hasherConfig := hasher.Config{
		MaxConcurrentFiles: maxConcurrentFiles,
		CopyBufferSize:     int(size.MustParse(blockSize)),
	}
	if err := hasherConfig.Validate(); err != nil {
		return err
	}

	var transferRateLimiter *rate.Limiter
	var fileRateLimiter *rate.Limiter
	if limit := size.MustParse(transferRateLimitStr); limit > 0 {
		// Each hasher goroutine reads one block at a time, so the burst
		// must cover all of them to let anyone through.
		transferRateLimiter = rate.NewLimiter(rate.Limit(limit), hasherConfig.CopyBufferSize*maxConcurrentFiles)
	}
	if limit := size.MustParse(fileRateLimitStr); limit > 0 {
		fileRateLimiter = rate.NewLimiter(rate.Limit(limit), maxConcurrentFiles)
	}

	svc := alias.NewFinderService(logger)

	eg, ctx := errgroup.WithContext(cmd.Context())

	pairs := make(chan planner.Pair, 4096)
	eg.Go(func() error {
		defer close(pairs)
		p := planner.New(planner.Config{
			Source:      source,
			Destination: destination,
			MaxHops:     maxHops,
		}, svc, logger)
		return p.Start(ctx, pairs)
	})

	eg.Go(func() error {
		h := hasher.New(hasherConfig, logger)
		return h.Start(ctx, pairs, transferRateLimiter, fileRateLimiter)
	})

	return eg.Wait()
}
