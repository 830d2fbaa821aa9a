// Package planner recomputes the copy plan without touching the
// destination. It walks the source tree with the same classification,
// alias resolution, and renaming rules as the copier and emits the
// (source, destination) pairs a finished copy should contain, so verify
// can check them.
package planner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/fernwood/aliascp/pkg/alias"
	"github.com/fernwood/aliascp/pkg/copier"
)

// PairKind says how a pair should be compared.
type PairKind int

const (
	// PairFile compares file contents.
	PairFile PairKind = iota
	// PairSymlink compares symlink targets.
	PairSymlink
	// PairDirectory checks that the destination directory exists.
	PairDirectory
)

// Pair is one expected entry of the copied tree.
type Pair struct {
	SourcePath      string
	DestinationPath string
	Kind            PairKind
}

type Config struct {
	Source      string
	Destination string
	MaxHops     int
}

type Planner struct {
	conf   Config
	svc    alias.Service
	logger zerolog.Logger
}

func New(conf Config, svc alias.Service, logger zerolog.Logger) *Planner {
	return &Planner{
		conf:   conf,
		svc:    svc,
		logger: logger.With().Str("component", "planner").Logger(),
	}
}

// Start walks the source tree and sends expected pairs to the channel.
// The caller owns the channel and should close it after Start returns.
func (p *Planner) Start(ctx context.Context, pairs chan<- Pair) error {
	return p.walkDir(ctx, pairs, p.conf.Source, p.conf.Destination)
}

func (p *Planner) walkDir(ctx context.Context, pairs chan<- Pair, srcDir, dstDir string) error {
	if err := p.send(ctx, pairs, Pair{SourcePath: srcDir, DestinationPath: dstDir, Kind: PairDirectory}); err != nil {
		return err
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return errors.Wrapf(err, "failed to read directory %s", srcDir)
	}

	for _, entry := range entries {
		err := p.planItem(ctx, pairs, filepath.Join(srcDir, entry.Name()), filepath.Join(dstDir, entry.Name()))
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *Planner) planItem(ctx context.Context, pairs chan<- Pair, src, dst string) error {
	switch copier.Classify(ctx, p.svc, src) {
	case copier.KindAlias:
		return p.planAlias(ctx, pairs, src, dst)
	case copier.KindDirectory:
		return p.walkDir(ctx, pairs, src, dst)
	case copier.KindSymlink:
		return p.send(ctx, pairs, Pair{SourcePath: src, DestinationPath: dst, Kind: PairSymlink})
	case copier.KindOther:
		// The copier skips unsupported types, so there is nothing to
		// check.
		return nil
	default:
		return p.send(ctx, pairs, Pair{SourcePath: src, DestinationPath: dst, Kind: PairFile})
	}
}

func (p *Planner) planAlias(ctx context.Context, pairs chan<- Pair, src, dst string) error {
	maxHops := p.conf.MaxHops
	if maxHops <= 0 {
		maxHops = alias.DefaultMaxHops
	}

	res := alias.ResolveChain(ctx, p.svc, src, maxHops)
	if res.Outcome == alias.OutcomeUnresolved {
		// The copier falls back to a literal copy of the pointer file.
		return p.send(ctx, pairs, Pair{SourcePath: src, DestinationPath: dst, Kind: PairFile})
	}

	dst = copier.EnsureTargetExtension(dst, res.Path)
	target := res.Path

	// A truncated chain may still end at an alias; the copier gives it
	// one more chain resolution before copying, so mirror that here.
	if p.svc.IsAlias(ctx, target) {
		if again := alias.ResolveChain(ctx, p.svc, target, maxHops); again.Outcome != alias.OutcomeUnresolved {
			target = again.Path
		}
	}

	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return p.walkDir(ctx, pairs, target, dst)
	}

	return p.send(ctx, pairs, Pair{SourcePath: target, DestinationPath: dst, Kind: PairFile})
}

func (p *Planner) send(ctx context.Context, pairs chan<- Pair, pair Pair) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case pairs <- pair:
		p.logger.Trace().
			Str("source", pair.SourcePath).
			Str("destination", pair.DestinationPath).
			Msg("Planned entry")
		return nil
	}
}
