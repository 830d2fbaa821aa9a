package copier

import (
	"context"
	"os"

	"github.com/fernwood/aliascp/pkg/alias"
)

// Kind classifies a filesystem entry for dispatch.
type Kind int

const (
	// KindAlias is a Finder alias file needing indirection.
	KindAlias Kind = iota
	// KindDirectory is a real directory (not a symlink to one).
	KindDirectory
	// KindSymlink is a POSIX symlink, copied as a link.
	KindSymlink
	// KindRegular is a plain file.
	KindRegular
	// KindOther is anything that could not be classified; it gets the
	// same literal copy treatment as a regular file.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindAlias:
		return "alias"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindRegular:
		return "regular"
	default:
		return "other"
	}
}

// Classify queries the filesystem and alias service for path. It is
// called fresh for every entry; nothing is cached, so the answer reflects
// the filesystem at call time.
//
// The alias probe runs first: alias files are also regular files, so a
// plain stat cannot distinguish them.
func Classify(ctx context.Context, svc alias.Service, path string) Kind {
	if svc.IsAlias(ctx, path) {
		return KindAlias
	}

	info, err := os.Lstat(path)
	if err != nil {
		return KindOther
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return KindSymlink
	case info.IsDir():
		return KindDirectory
	case info.Mode().IsRegular():
		return KindRegular
	default:
		return KindOther
	}
}
