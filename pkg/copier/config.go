package copier

import (
	"github.com/pkg/errors"

	"github.com/fernwood/aliascp/pkg/alias"
	"github.com/fernwood/aliascp/pkg/validation"
)

type Config struct {
	// Source is the directory tree to copy. Must exist.
	Source string
	// Destination receives the copied tree. Created if missing.
	Destination string

	// MaxHops bounds alias chain resolution. Zero means
	// alias.DefaultMaxHops.
	MaxHops int

	// BlockSize is the read/write block size for file copies. Zero uses
	// the default.
	BlockSize int
	// TransferRateLimit caps bytes copied per second. Zero means
	// unlimited.
	TransferRateLimit int64
}

func (c *Config) Validate() error {
	if err := validation.ValidateSourceAndDestination(c.Source, c.Destination); err != nil {
		return err
	}

	if c.MaxHops < 0 {
		return errors.New("max hops must not be negative")
	}

	if c.BlockSize < 0 {
		return errors.New("block size must not be negative")
	}

	if c.TransferRateLimit < 0 {
		return errors.New("transfer rate limit must not be negative")
	}

	return nil
}

func (c *Config) maxHops() int {
	if c.MaxHops == 0 {
		return alias.DefaultMaxHops
	}
	return c.MaxHops
}
