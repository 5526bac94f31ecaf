package editor

import "errors"

var (
	ErrNotReady          = errors.New("session is not ready")
	ErrNotLoading        = errors.New("no load in progress")
	ErrNoDimensions      = errors.New("source dimensions not set")
	ErrNoCatalog         = errors.New("export options not set")
	ErrInvalidDimensions = errors.New("dimensions must be positive")
	ErrInvalidCatalog    = errors.New("invalid export options")
	ErrUnknownFormat     = errors.New("unknown format")
	ErrUnknownPlugin     = errors.New("plugin not offered for format")
	ErrPluginNotFound    = errors.New("selected plugin no longer available")
)
