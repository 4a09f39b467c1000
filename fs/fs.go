// Package appfs embeds assets that must ship inside the binary.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
