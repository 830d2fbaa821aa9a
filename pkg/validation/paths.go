package validation

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrSourceNotDirectory      = errors.New("source is not a directory")
	ErrSameDirectory           = errors.New("source and destination are the same directory")
	ErrDestinationInsideSource = errors.New("destination cannot be inside the source directory")
	ErrDestinationNotDirectory = errors.New("destination exists and is not a directory")
)

// ValidateSourceAndDestination checks the copy arguments:
//   - source must be an existing directory
//   - source and destination must not resolve to the same real path
//   - destination must not be nested inside source
//   - destination, if it exists, must be a directory
//
// Both paths should already be absolute.
func ValidateSourceAndDestination(source, destination string) error {
	sourceStat, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrSourceNotDirectory, "%s", source)
		}
		return errors.Wrapf(err, "failed to stat source %s", source)
	}
	if !sourceStat.IsDir() {
		return errors.Wrapf(ErrSourceNotDirectory, "%s", source)
	}

	sourceReal := RealPath(source)
	destinationReal := RealPath(destination)

	if sourceReal == destinationReal {
		return ErrSameDirectory
	}

	rel, err := filepath.Rel(sourceReal, destinationReal)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel) {
		return errors.Wrapf(ErrDestinationInsideSource, "%s", destination)
	}

	dstStat, err := os.Stat(destination)
	if err == nil && !dstStat.IsDir() {
		return errors.Wrapf(ErrDestinationNotDirectory, "%s", destination)
	}
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to stat destination %s", destination)
	}

	return nil
}

// RealPath resolves symlinks in path. Unlike filepath.EvalSymlinks it
// tolerates paths that do not exist yet by resolving the deepest existing
// ancestor and re-joining the remainder.
func RealPath(path string) string {
	path = filepath.Clean(path)

	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved
	}

	parent := filepath.Dir(path)
	if parent == path {
		return path
	}

	return filepath.Join(RealPath(parent), filepath.Base(path))
}
