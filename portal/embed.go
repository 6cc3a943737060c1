package portal

import "embed"

// Assets holds the shared header fragment and the entry page template.
//
//go:embed assets/*.html
var Assets embed.FS
