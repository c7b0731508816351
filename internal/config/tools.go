//go:build tools

package config

// Pin the optgen code-generator as a build-time tool dependency, per
// the go:generate directive in config.go.
import (
	_ "github.com/ecordell/optgen"
)
