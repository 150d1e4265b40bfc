package site

import _ "embed"

// indexHTML is the embedded landing page.
//
//go:embed static/index.html
var indexHTML []byte
