package root

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fernwood/aliascp/pkg/alias"
	"github.com/fernwood/aliascp/pkg/copier"
	"github.com/fernwood/aliascp/pkg/utils/log"
	"github.com/fernwood/aliascp/pkg/utils/size"
)

func runCopy(cmd *cobra.Command, args []string) error {
	logger := log.GetLogger(cmd.ErrOrStderr(), term.IsTerminal(int(os.Stderr.Fd())))

	// Alias files and the services that resolve them only exist on macOS.
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

	conf := copier.Config{
		Source:            source,
		Destination:       destination,
		MaxHops:           maxHops,
		BlockSize:         int(size.MustParse(blockSize)),
		TransferRateLimit: size.MustParse(transferRateLimitStr),
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	svc := alias.NewFinderService(logger)
	c := copier.New(conf, svc, logger)

	return c.Run(cmd.Context())
}
