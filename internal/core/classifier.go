package core

import (
	"path/filepath"
	"strings"
)

// codeMarkers are the case-insensitive substrings in changed content that
// suggest actionable work.
var codeMarkers = []string{"todo", "fixme", "bug", "issue", "security", "implement"}

// requirementFilenames mark a file as a requirements document by name.
var requirementFilenames = []string{"prd", "requirements", "spec", "roadmap", "backlog"}

// requirementPhrases mark content as a requirements document.
var requirementPhrases = []string{"acceptance criteria", "user story"}

// researchKeywords mark fetched web content as task-relevant.
var researchKeywords = []string{"requirements", "roadmap", "features", "implement", "milestone", "backlog"}

// Decision is the outcome of classifying changed content for AI task
// generation. It is a tagged result rather than inline string checks so the
// keyword heuristics stay independently testable and tunable.
type Decision struct {
	ShouldTrigger   bool
	MatchedPatterns []string
	// RequirementDoc raises the generation expansion depth.
	RequirementDoc bool
	ExpandLevel    int
}

// ClassifyContent inspects a changed file's path and content for generation
// triggers.
func ClassifyContent(filePath, content string) Decision {
	var d Decision
	lower := strings.ToLower(content)

	for _, marker := range codeMarkers {
		if strings.Contains(lower, marker) {
			d.MatchedPatterns = append(d.MatchedPatterns, marker)
		}
	}

	name := strings.ToLower(filepath.Base(filePath))
	for _, frag := range requirementFilenames {
		if strings.Contains(name, frag) {
			d.RequirementDoc = true
			d.MatchedPatterns = append(d.MatchedPatterns, "filename:"+frag)
			break
		}
	}
	if !d.RequirementDoc {
		for _, phrase := range requirementPhrases {
			if strings.Contains(lower, phrase) {
				d.RequirementDoc = true
				d.MatchedPatterns = append(d.MatchedPatterns, "phrase:"+phrase)
				break
			}
		}
	}

	d.ShouldTrigger = len(d.MatchedPatterns) > 0
	switch {
	case d.RequirementDoc:
		d.ExpandLevel = 3
	case d.ShouldTrigger:
		d.ExpandLevel = 2
	}
	return d
}

// ClassifyFetched inspects fetched web content for task relevance.
func ClassifyFetched(content string) Decision {
	var d Decision
	lower := strings.ToLower(content)
	for _, kw := range researchKeywords {
		if strings.Contains(lower, kw) {
			d.MatchedPatterns = append(d.MatchedPatterns, kw)
		}
	}
	d.ShouldTrigger = len(d.MatchedPatterns) > 0
	if d.ShouldTrigger {
		d.ExpandLevel = 1
	}
	return d
}

// InferProjectType guesses a project type from the changed file's extension
// and directory, for generation context.
func InferProjectType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".go":
		return "go"
	case ".ts", ".tsx":
		return "typescript"
	case ".js", ".jsx", ".mjs":
		return "javascript"
	case ".py":
		return "python"
	case ".rs":
		return "rust"
	case ".java", ".kt":
		return "jvm"
	case ".md", ".rst", ".txt":
		return "docs"
	}

	normalized := filepath.ToSlash(strings.ToLower(filePath))
	switch {
	case strings.Contains(normalized, "/cmd/") || strings.Contains(normalized, "/internal/"):
		return "go"
	case strings.Contains(normalized, "/src/") && strings.Contains(normalized, "node_modules"):
		return "javascript"
	case strings.Contains(normalized, "/docs/"):
		return "docs"
	}
	return "generic"
}
