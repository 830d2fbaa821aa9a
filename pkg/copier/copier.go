// Package copier implements the alias-dereferencing tree copy: it walks
// a source directory and, for each entry, decides whether it is a plain
// file, a directory, or a Finder alias requiring indirection, and what
// name the result gets at the destination.
package copier

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/fernwood/aliascp/pkg/alias"
	"github.com/fernwood/aliascp/pkg/fscopy"
	"github.com/fernwood/aliascp/pkg/utils/size"
)

// Copier recursively copies a tree, replacing alias files with copies of
// their targets. Entries are processed one at a time; recursion depth
// equals directory nesting depth, never alias-chain depth.
type Copier struct {
	conf    Config
	svc     alias.Service
	logger  zerolog.Logger
	limiter *rate.Limiter

	// Stats
	filesCopied     atomic.Int64
	dirsCreated     atomic.Int64
	aliasesResolved atomic.Int64
	aliasFallbacks  atomic.Int64
	bytesCopied     atomic.Int64
}

func New(conf Config, svc alias.Service, logger zerolog.Logger) *Copier {
	var limiter *rate.Limiter
	if conf.TransferRateLimit > 0 {
		burst := conf.BlockSize
		if burst <= 0 {
			burst = int(conf.TransferRateLimit)
		}
		limiter = rate.NewLimiter(rate.Limit(conf.TransferRateLimit), burst)
	}

	return &Copier{
		conf:    conf,
		svc:     svc,
		logger:  logger.With().Str("component", "copier").Logger(),
		limiter: limiter,
	}
}

// Run copies the configured source tree into the destination directory
// and logs a summary. The destination directory is created if missing.
func (c *Copier) Run(ctx context.Context) error {
	if err := c.CopyDirectory(ctx, c.conf.Source, c.conf.Destination); err != nil {
		return err
	}

	c.logger.Info().
		Int64("files", c.filesCopied.Load()).
		Int64("directories", c.dirsCreated.Load()).
		Int64("aliasesResolved", c.aliasesResolved.Load()).
		Int64("aliasFallbacks", c.aliasFallbacks.Load()).
		Str("bytesCopied", size.FormatBytes(c.bytesCopied.Load())).
		Msg("Copy finished")

	return nil
}

// CopyDirectory copies every direct child of srcDir into dstDir,
// creating dstDir first.
func (c *Copier) CopyDirectory(ctx context.Context, srcDir, dstDir string) error {
	if err := c.ensureDir(dstDir); err != nil {
		return err
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return errors.Wrapf(err, "failed to read directory %s", srcDir)
	}

	for _, entry := range entries {
		err := c.CopyItem(ctx, filepath.Join(srcDir, entry.Name()), filepath.Join(dstDir, entry.Name()))
		if err != nil {
			return err
		}
	}

	return nil
}

// CopyItem copies a single entry. Aliases are dereferenced, directories
// recursed into, and everything else copied literally (symlinks as
// links).
func (c *Copier) CopyItem(ctx context.Context, src, dst string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	switch Classify(ctx, c.svc, src) {
	case KindAlias:
		return c.copyAlias(ctx, src, dst)
	case KindDirectory:
		return c.CopyDirectory(ctx, src, dst)
	case KindOther:
		c.logger.Warn().Str("path", src).Msg("Ignoring unsupported file type")
		return nil
	default:
		// Regular files and symlinks are copied literally, symlinks as
		// links.
		return c.copyFile(ctx, src, dst, false)
	}
}

func (c *Copier) copyAlias(ctx context.Context, src, dst string) error {
	res := alias.ResolveChain(ctx, c.svc, src, c.conf.maxHops())
	if res.Outcome == alias.OutcomeUnresolved {
		c.logger.Warn().Str("path", src).Msg("Failed to resolve alias, copying it literally")
		c.aliasFallbacks.Add(1)
		return c.copyFile(ctx, src, dst, false)
	}

	c.logger.Debug().
		Str("alias", src).
		Str("target", res.Path).
		Int("hops", res.Hops).
		Str("outcome", res.Outcome.String()).
		Msg("Resolved alias")
	c.aliasesResolved.Add(1)

	return c.copyTarget(ctx, res.Path, EnsureTargetExtension(dst, res.Path))
}

// copyTarget copies a resolved alias target as a fresh source. A
// truncated chain can hand us a path that is still an alias; it gets one
// more chain resolution, and whatever that yields is copied as-is.
func (c *Copier) copyTarget(ctx context.Context, src, dst string) error {
	if c.svc.IsAlias(ctx, src) {
		res := alias.ResolveChain(ctx, c.svc, src, c.conf.maxHops())
		if res.Outcome != alias.OutcomeUnresolved {
			src = res.Path
		}
	}

	if info, err := os.Stat(src); err == nil && info.IsDir() {
		return c.CopyDirectory(ctx, src, dst)
	}

	// The alias already represents the indirection the caller wants
	// collapsed, so symlinks in the target are followed.
	return c.copyFile(ctx, src, dst, true)
}

func (c *Copier) copyFile(ctx context.Context, src, dst string, followSymlinks bool) error {
	written, err := fscopy.CopyFile(ctx, src, dst, fscopy.Options{
		FollowSymlinks: followSymlinks,
		RateLimiter:    c.limiter,
		BlockSize:      c.conf.BlockSize,
	})
	if err != nil {
		return err
	}

	c.filesCopied.Add(1)
	c.bytesCopied.Add(written)

	c.logger.Trace().
		Str("source", src).
		Str("destination", dst).
		Int64("size", written).
		Str("sizeHuman", size.FormatBytes(written)).
		Msg("Copied file")

	return nil
}

func (c *Copier) ensureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return errors.Errorf("destination exists and is not a directory: %s", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to stat %s", path)
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", path)
	}

	c.dirsCreated.Add(1)
	c.logger.Debug().Str("path", path).Msg("Created directory")

	return nil
}
