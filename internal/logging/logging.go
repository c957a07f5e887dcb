// Package logging provides the package-level loggers used while parsing
// linker map files.
package logging

import (
	"log"
	"os"

	"github.com/mewkiz/pkg/term"
)

var (
	// Debug is a logger with the "mapfile:" prefix which logs debug messages
	// to standard error.
	Debug = log.New(os.Stderr, term.CyanBold("mapfile:")+" ", 0)
	// Warn is a logger with the "mapfile:" prefix which logs warning messages
	// to standard error.
	Warn = log.New(os.Stderr, term.RedBold("mapfile:")+" ", 0)
)
