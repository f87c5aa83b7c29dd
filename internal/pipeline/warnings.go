package pipeline

import "fmt"

// Pipeline stage names used in warnings.
const (
	StageFrontMatter = "frontmatter"
	StageNormalize   = "normalize"
	StageCompose     = "compose"
)

// Warning records a recoverable, per-document degradation. Warnings are
// collected across the run and reported after a successful conversion.
type Warning struct {
	Stage   string // pipeline stage that degraded
	Path    string // source document, empty for run-level warnings
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return fmt.Sprintf("%s: %s", w.Stage, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Stage, w.Path, w.Message)
}
