package core

import (
	"path/filepath"
	"strings"
)

// defaultScenarioName is used when the uploaded filename hint is unusable.
const defaultScenarioName = "scenario.json"

// SanitizeScenarioFilename reduces an untrusted filename hint to a bare name
// safe to join into the working area. Path separators (either convention)
// and traversal sequences are stripped; degenerate hints fall back to
// defaultScenarioName.
func SanitizeScenarioFilename(hint string) string {
	name := strings.ReplaceAll(hint, "\\", "/")
	name = filepath.Base(name)
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.Trim(name, ".")
	if name == "" || name == string(filepath.Separator) {
		return defaultScenarioName
	}
	return name
}
