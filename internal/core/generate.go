package core

import (
	"strings"

	"github.com/critdev/crit/pkg/models"
)

// GenerateOptions carries context for a task generation request.
type GenerateOptions struct {
	Context                  string
	ProjectType              string
	AutoGenerateDependencies bool
	// ExpandLevel controls how aggressively the generator decomposes the
	// input: 1 for a single task, 3 for requirement-document expansion.
	ExpandLevel int
}

// GenerateResult is what a generator returns. The router only counts and
// inserts the drafts; generation internals are opaque.
type GenerateResult struct {
	Success bool
	Tasks   []TaskDraft
	// Dependencies maps a draft index to indices it depends on, for
	// generators that emit ordered plans.
	Dependencies map[int][]int
}

// TaskGenerator is the external AI-task-generation collaborator boundary.
type TaskGenerator interface {
	Generate(text string, opts GenerateOptions) (GenerateResult, error)
}

// MarkerGenerator is the offline default generator: it turns each line
// containing a matched code marker into a single task draft. It keeps hook
// processing useful without any AI backend.
type MarkerGenerator struct{}

// NewMarkerGenerator returns the offline marker-to-task generator.
func NewMarkerGenerator() *MarkerGenerator {
	return &MarkerGenerator{}
}

// Generate scans text line by line for code markers and emits one draft per
// matching line, capped to avoid flooding the queue from a large paste.
func (g *MarkerGenerator) Generate(text string, opts GenerateOptions) (GenerateResult, error) {
	const maxDrafts = 10

	var drafts []TaskDraft
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		matched := ""
		for _, marker := range codeMarkers {
			if strings.Contains(lower, marker) {
				matched = marker
				break
			}
		}
		if matched == "" {
			continue
		}

		title := markerTitle(line, matched)
		if title == "" {
			continue
		}
		drafts = append(drafts, TaskDraft{
			Title:       title,
			Description: strings.TrimSpace(line),
			Priority:    markerPriority(matched),
			Tags:        []string{"generated", matched},
			Source:      models.SourceHook,
			SourcePayload: map[string]any{
				"project_type": opts.ProjectType,
				"expand_level": opts.ExpandLevel,
			},
		})
		if len(drafts) >= maxDrafts {
			break
		}
	}

	return GenerateResult{Success: true, Tasks: drafts}, nil
}

// markerTitle extracts a readable title from a marker line, stripping
// comment syntax and the marker keyword prefix.
func markerTitle(line, marker string) string {
	s := strings.TrimSpace(line)
	for _, prefix := range []string{"//", "#", "/*", "*", "--", "<!--"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	lower := strings.ToLower(s)
	if idx := strings.Index(lower, marker); idx >= 0 {
		rest := strings.TrimSpace(s[idx+len(marker):])
		rest = strings.TrimLeft(rest, ":.- ")
		if rest != "" {
			s = rest
		}
	}
	return SanitizeText(s, maxTitleLen)
}

func markerPriority(marker string) models.Priority {
	switch marker {
	case "security":
		return models.PriorityCritical
	case "bug", "fixme":
		return models.PriorityHigh
	default:
		return models.PriorityMedium
	}
}
