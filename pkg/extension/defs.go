// Package extension exports the C entry points the game calls and routes
// them to a dispatcher.
package extension

/*
#include <stdlib.h>
#include <stdio.h>
#include <string.h>
*/
import "C"

import (
	"github.com/PearlCalc/extension/internal/dispatcher"
)

// configStruct is the central configuration used by this library
type configStruct struct {
	// returned when the game first loads the extension
	rvExtensionVersion string

	dispatcher *dispatcher.Dispatcher
	chunks     *chunkStore
}

func (c *configStruct) Init() {
	c.rvExtensionVersion = "No version set"
	c.chunks = newChunkStore()
}

// SetVersion sets the version string returned by RVExtensionVersion.
func SetVersion(version string) {
	Config.rvExtensionVersion = version
}

// SetDispatcher sets the event dispatcher for handling commands
func SetDispatcher(d *dispatcher.Dispatcher) {
	Config.dispatcher = d
}

// GetDispatcher returns the configured dispatcher, or nil if not set
func GetDispatcher() *dispatcher.Dispatcher {
	return Config.dispatcher
}
