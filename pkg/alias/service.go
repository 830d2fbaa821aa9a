package alias

import (
	"context"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

const (
	mdlsBin      = "/usr/bin/mdls"
	osascriptBin = "/usr/bin/osascript"

	// Content type Spotlight reports for Finder alias files.
	aliasContentType = "com.apple.alias-file"
)

// resolveScript asks Finder for the POSIX path of the original item an
// alias points to. Finder fails (non-zero osascript exit) if the path is
// not a valid alias or the target is unreachable, e.g. on an unmounted
// volume.
const resolveScript = `on run argv
    set theItem to POSIX file (item 1 of argv)
    tell application "Finder"
        set resolved to (original item of (theItem as alias)) as alias
        return POSIX path of resolved
    end tell
end run`

// Service answers the two questions the copier has about alias files:
// whether a path is one, and where a single hop of it points.
//
// Implementations must treat every failure as a negative answer. The
// copier relies on that to fall back to literal copies instead of
// aborting on flaky metadata.
type Service interface {
	// IsAlias reports whether path is a Finder alias file. Any inability
	// to query (missing file, permission error, tool failure) reports
	// false.
	IsAlias(ctx context.Context, path string) bool

	// Resolve returns the immediate target of the alias at path. The
	// second return value is false if resolution failed. A single
	// failure is final; there are no retries.
	Resolve(ctx context.Context, path string) (string, bool)
}

// FinderService implements Service with the system mdls and osascript
// binaries. Each call spawns one child process.
type FinderService struct {
	logger zerolog.Logger
}

func NewFinderService(logger zerolog.Logger) *FinderService {
	return &FinderService{
		logger: logger.With().Str("component", "alias").Logger(),
	}
}

func (s *FinderService) IsAlias(ctx context.Context, path string) bool {
	out, err := exec.CommandContext(ctx, mdlsBin, "-name", "kMDItemContentType", "-raw", path).Output()
	if err != nil {
		// Not an error to the caller: unknown content type means we
		// copy the entry literally instead of dereferencing it.
		s.logger.Trace().Str("path", path).Err(err).Msg("Content type query failed")
		return false
	}

	return strings.TrimSpace(string(out)) == aliasContentType
}

func (s *FinderService) Resolve(ctx context.Context, path string) (string, bool) {
	out, err := exec.CommandContext(ctx, osascriptBin, "-e", resolveScript, "--", path).Output()
	if err != nil {
		s.logger.Debug().Str("path", path).Err(err).Msg("Finder could not resolve alias")
		return "", false
	}

	target := strings.TrimSpace(string(out))
	if target == "" {
		return "", false
	}

	return target, true
}
