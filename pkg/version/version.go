package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var Version string

// Get returns the embedded release string of the apiserver
func Get() string {
	return strings.TrimSpace(Version)
}
