// Package fscopy copies single filesystem entries with metadata
// preservation and an explicit symlink follow/no-follow switch.
package fscopy

import (
	"context"
	"os"
	"path/filepath"

	"github.com/detailyang/go-fallocate"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/fernwood/aliascp/pkg/utils/cp"
)

type Options struct {
	// FollowSymlinks controls what happens when src is a symlink: follow
	// it and copy the target's bytes, or recreate the link at dst.
	FollowSymlinks bool
	// RateLimiter, if non-nil, throttles bytes written per second.
	RateLimiter *rate.Limiter
	// BlockSize is the read/write block size. Zero uses the cp default.
	BlockSize int
}

// CopyFile copies the entry at src to dst, creating dst's parent
// directories as needed. Regular files are copied with mode and mtime
// preserved; an existing dst file is overwritten. Symlinks are either
// recreated or followed per opts.FollowSymlinks.
func CopyFile(ctx context.Context, src, dst string, opts Options) (int64, error) {
	if parent := filepath.Dir(dst); parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return 0, errors.Wrapf(err, "failed to create parent directory for %s", dst)
		}
	}

	info, err := os.Lstat(src)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to stat source %s", src)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if !opts.FollowSymlinks {
			return 0, copySymlink(src, dst)
		}

		// Stat the target so mode and size below describe the real file.
		info, err = os.Stat(src)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to stat symlink target of %s", src)
		}
	}

	if !info.Mode().IsRegular() {
		return 0, errors.Errorf("unsupported file type %s: %s", info.Mode(), src)
	}

	if written, handled := cloneFile(src, dst, info); handled {
		return written, nil
	}

	return copyContents(ctx, src, dst, info, opts)
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return errors.Wrapf(err, "failed to read symlink %s", src)
	}

	if err := os.Symlink(target, dst); err != nil {
		return errors.Wrapf(err, "failed to create symlink %s -> %s", dst, target)
	}

	return nil
}

func copyContents(ctx context.Context, src, dst string, info os.FileInfo, opts Options) (int64, error) {
	srcFD, err := os.Open(src)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open %s for reading", src)
	}
	defer srcFD.Close()

	dstFD, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open %s for writing", dst)
	}

	if size := info.Size(); size > 0 {
		// Preallocation is best effort; some filesystems refuse it and
		// the copy works regardless.
		_ = fallocate.Fallocate(dstFD, 0, size)
	}

	copyOpts := []cp.Option{cp.WithRateLimiter(opts.RateLimiter)}
	if opts.BlockSize > 0 {
		copyOpts = append(copyOpts, cp.WithBuffer(make([]byte, opts.BlockSize)))
	}

	written, err := cp.Copy(ctx, dstFD, srcFD, copyOpts...)
	if err != nil {
		_ = dstFD.Close()
		return written, errors.Wrapf(err, "failed to copy %s to %s", src, dst)
	}

	if err := dstFD.Close(); err != nil {
		return written, errors.Wrapf(err, "failed to close %s", dst)
	}

	// The destination may have pre-existed with a different mode; O_CREATE
	// only applies the mode to new files.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return written, errors.Wrapf(err, "failed to set mode on %s", dst)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return written, errors.Wrapf(err, "failed to set times on %s", dst)
	}

	return written, nil
}
