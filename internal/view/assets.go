package view

import "embed"

// Static holds the stylesheet, script and images served under /static/.
//
//go:embed static
var Static embed.FS
