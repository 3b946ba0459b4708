package evaluator

import _ "embed"

//go:embed core.pla
var coreLibrary string
