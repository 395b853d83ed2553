package install

import (
	"sync"
)

var (
	defaultMu   sync.Mutex
	defaultCtrl *Controller
)

// Default returns the process-wide controller, creating one that discards
// records if none was set.
func Default() *Controller {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCtrl == nil {
		defaultCtrl = New(nil)
	}
	return defaultCtrl
}

// SetDefault replaces the process-wide controller. It returns false and
// leaves the current one in place once that one has installed.
func SetDefault(c *Controller) bool {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCtrl != nil && defaultCtrl.Installed() {
		return false
	}
	defaultCtrl = c
	return true
}

// InstallAll installs the process-wide controller.
func InstallAll() {
	Default().InstallAll()
}

// Installed reports whether the process-wide controller has installed.
func Installed() bool {
	defaultMu.Lock()
	c := defaultCtrl
	defaultMu.Unlock()
	return c != nil && c.Installed()
}

// Seal seals the process-wide controller.
func Seal() {
	Default().Seal()
}
