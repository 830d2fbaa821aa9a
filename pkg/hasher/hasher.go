// Package hasher checks a copied tree against the plan: expected files
// are compared by BLAKE3 digest, symlinks by their targets, directories
// by existence.
package hasher

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/fernwood/aliascp/pkg/planner"
	"github.com/fernwood/aliascp/pkg/utils/cp"
)

// HashOne computes the BLAKE3 digest of a single file. Symlinks are
// followed.
func HashOne(
	ctx context.Context,
	copyBuffer []byte,
	file string,
	rateLimiter *rate.Limiter,
) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file for hashing")
	}
	defer f.Close()

	hash := blake3.New()

	_, err = cp.Copy(ctx, hash, f,
		cp.WithBuffer(copyBuffer),
		cp.WithRateLimiter(rateLimiter),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to hash %s", file)
	}

	return hash.Sum(nil), nil
}

type Hasher struct {
	logger zerolog.Logger

	conf Config

	pairsChecked atomic.Int64
	mismatches   atomic.Int64
}

func New(config Config, logger zerolog.Logger) *Hasher {
	return &Hasher{
		conf:   config,
		logger: logger.With().Str("component", "hasher").Logger(),
	}
}

// Start consumes planned pairs and checks each one against the
// destination. It returns an error if any pair failed to verify.
//
// transferRateLimiter is shared between source and destination reads, so
// double the limit if you want each side to get the full rate.
func (h *Hasher) Start(
	ctx context.Context,
	pairs <-chan planner.Pair,
	transferRateLimiter *rate.Limiter,
	fileRateLimiter *rate.Limiter,
) error {
	eg, ctx := errgroup.WithContext(ctx)

	for i := 0; i < h.conf.MaxConcurrentFiles; i++ {
		eg.Go(func() error {
			buffer := make([]byte, h.conf.CopyBufferSize)

			for pair := range pairs {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				if fileRateLimiter != nil {
					if err := fileRateLimiter.Wait(ctx); err != nil {
						return errors.Wrap(err, "failed to wait for file rate limiter")
					}
				}

				h.checkPair(ctx, pair, buffer, transferRateLimiter)
			}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return errors.Wrap(err, "failed to verify files")
	}

	h.logger.Info().
		Int64("checked", h.pairsChecked.Load()).
		Int64("mismatches", h.mismatches.Load()).
		Msg("Verification finished")

	if h.mismatches.Load() > 0 {
		return errors.New("some entries failed verification, see logs for details")
	}

	return nil
}

// checkPair never fails the whole run; mismatches are logged and counted
// so every pair gets checked.
func (h *Hasher) checkPair(ctx context.Context, pair planner.Pair, buffer []byte, limiter *rate.Limiter) {
	h.pairsChecked.Add(1)

	logger := h.logger.With().
		Str("source", pair.SourcePath).
		Str("destination", pair.DestinationPath).
		Logger()

	switch pair.Kind {
	case planner.PairDirectory:
		info, err := os.Stat(pair.DestinationPath)
		if err != nil || !info.IsDir() {
			h.mismatches.Add(1)
			logger.Warn().Msg("Expected destination directory is missing")
		}

	case planner.PairSymlink:
		srcTarget, err := os.Readlink(pair.SourcePath)
		if err != nil {
			h.mismatches.Add(1)
			logger.Warn().Err(err).Msg("Failed to read source symlink")
			return
		}
		dstTarget, err := os.Readlink(pair.DestinationPath)
		if err != nil {
			h.mismatches.Add(1)
			logger.Warn().Err(err).Msg("Failed to read destination symlink")
			return
		}
		if srcTarget != dstTarget {
			h.mismatches.Add(1)
			logger.Warn().
				Str("sourceTarget", srcTarget).
				Str("destinationTarget", dstTarget).
				Msg("Symlink targets do not match")
		}

	case planner.PairFile:
		srcHash, err := HashOne(ctx, buffer, pair.SourcePath, limiter)
		if err != nil {
			h.mismatches.Add(1)
			logger.Warn().Err(err).Msg("Failed to hash source")
			return
		}
		dstHash, err := HashOne(ctx, buffer, pair.DestinationPath, limiter)
		if err != nil {
			h.mismatches.Add(1)
			logger.Warn().Err(err).Msg("Failed to hash destination")
			return
		}
		if !bytes.Equal(srcHash, dstHash) {
			h.mismatches.Add(1)
			logger.Warn().
				Str("sourceHash", hex.EncodeToString(srcHash)).
				Str("destinationHash", hex.EncodeToString(dstHash)).
				Msg("Source and destination hashes do not match")
			return
		}

		logger.Debug().Msg("Source and destination hashes match")
	}
}
