package analysis

import (
	"context"
	"regexp"
	"strings"

	"github.com/RishiKendai/argus/internal/models"
)

// Rule is one line-matched review heuristic. Exclude, when set, suppresses
// the rule on lines it also matches. Rules are data: adding a check means
// adding a row, not a branch.
type Rule struct {
	Pattern  *regexp.Regexp
	Exclude  *regexp.Regexp
	Severity models.Severity
	Category string
	Message  string
}

var pythonRules = []Rule{
	{
		Pattern:  regexp.MustCompile(`print\(`),
		Exclude:  regexp.MustCompile(`f"|f'|%`),
		Severity: models.SeveritySuggestion,
		Category: "style",
		Message:  "Consider using f-strings for better readability",
	},
	{
		Pattern:  regexp.MustCompile(`==.*\bis\b|\bis\b.*==`),
		Severity: models.SeverityWarning,
		Category: "logic",
		Message:  "Use '==' for value comparison, 'is' for identity comparison",
	},
	{
		Pattern:  regexp.MustCompile(`import \*`),
		Severity: models.SeverityWarning,
		Category: "best_practice",
		Message:  "Avoid 'import *' - it pollutes the namespace",
	},
	{
		Pattern:  regexp.MustCompile(`\beval\(|\bexec\(`),
		Severity: models.SeverityCritical,
		Category: "security",
		Message:  "Avoid eval/exec on dynamic input - it allows arbitrary code execution",
	},
}

var javaRules = []Rule{
	{
		Pattern:  regexp.MustCompile(`System\.out\.println`),
		Severity: models.SeveritySuggestion,
		Category: "best_practice",
		Message:  "Consider using a proper logging framework instead of System.out.println",
	},
	{
		Pattern:  regexp.MustCompile(`public static void main`),
		Exclude:  regexp.MustCompile(`String\[\] args`),
		Severity: models.SeverityWarning,
		Category: "logic",
		Message:  "Main method should have String[] args parameter",
	},
}

var cppRules = []Rule{
	{
		Pattern:  regexp.MustCompile(`using namespace std;`),
		Severity: models.SeverityWarning,
		Category: "best_practice",
		Message:  "Avoid 'using namespace std' in header files",
	},
	{
		Pattern:  regexp.MustCompile(`cout.*endl|endl.*cout`),
		Severity: models.SeveritySuggestion,
		Category: "performance",
		Message:  "Consider using '\\n' instead of 'endl' for better performance",
	},
}

func rulesFor(fileType string) []Rule {
	switch fileType {
	case "py":
		return pythonRules
	case "java":
		return javaRules
	case "cpp":
		return cppRules
	default:
		return nil
	}
}

// HeuristicAnalyzer reviews code with the pattern rules above. It never
// fails; clean code gets a single encouraging remark.
type HeuristicAnalyzer struct{}

func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

func (a *HeuristicAnalyzer) Analyze(_ context.Context, code, fileType string) ([]models.FeedbackItem, error) {
	rules := rulesFor(fileType)

	items := make([]models.FeedbackItem, 0)
	for i, line := range strings.Split(code, "\n") {
		for _, rule := range rules {
			if !rule.Pattern.MatchString(line) {
				continue
			}
			if rule.Exclude != nil && rule.Exclude.MatchString(line) {
				continue
			}
			items = append(items, models.FeedbackItem{
				Line:     i + 1,
				Severity: rule.Severity,
				Category: rule.Category,
				Message:  rule.Message,
				Source:   SourceHeuristic,
			})
		}
	}

	if len(items) == 0 {
		items = append(items, models.FeedbackItem{
			Line:     1,
			Severity: models.SeveritySuggestion,
			Category: "best_practice",
			Message:  "Code looks good! Consider adding comments for complex logic.",
			Source:   SourceHeuristic,
		})
	}

	return items, nil
}
