package report

import _ "embed"

// Stylesheets shipped with the binary; one copy is written to the
// output root for the cover and one into every month directory.

//go:embed assets/cover_style.css
var coverStyle []byte

//go:embed assets/page_style.css
var pageStyle []byte
