// Package static holds the console's page templates and browser assets.
package static

import "embed"

//go:embed templates css js
var Content embed.FS
