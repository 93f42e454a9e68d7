package analysis

import (
	"context"
	"testing"

	"github.com/RishiKendai/argus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzeHeuristic(t *testing.T, code, fileType string) []models.FeedbackItem {
	t.Helper()
	items, err := NewHeuristicAnalyzer().Analyze(context.Background(), code, fileType)
	require.NoError(t, err)
	return items
}

func TestHeuristic_PythonRules(t *testing.T) {
	code := "import *\nprint(x)\nif a == b is c:\n    pass"
	items := analyzeHeuristic(t, code, "py")

	require.Len(t, items, 3)

	assert.Equal(t, 1, items[0].Line)
	assert.Equal(t, models.SeverityWarning, items[0].Severity)
	assert.Equal(t, "best_practice", items[0].Category)

	assert.Equal(t, 2, items[1].Line)
	assert.Equal(t, "Consider using f-strings for better readability", items[1].Message)

	assert.Equal(t, 3, items[2].Line)
	assert.Equal(t, "logic", items[2].Category)
}

func TestHeuristic_PythonFStringPrintIsClean(t *testing.T) {
	items := analyzeHeuristic(t, `print(f"total: {total}")`, "py")

	require.Len(t, items, 1)
	assert.Equal(t, "Code looks good! Consider adding comments for complex logic.", items[0].Message)
}

func TestHeuristic_PythonEvalIsCritical(t *testing.T) {
	items := analyzeHeuristic(t, "result = eval(user_input)", "py")

	require.Len(t, items, 1)
	assert.Equal(t, models.SeverityCritical, items[0].Severity)
	assert.Equal(t, "security", items[0].Category)
}

func TestHeuristic_JavaRules(t *testing.T) {
	code := "public static void main() {\n    System.out.println(\"hi\");\n}"
	items := analyzeHeuristic(t, code, "java")

	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Line)
	assert.Equal(t, "Main method should have String[] args parameter", items[0].Message)
	assert.Equal(t, 2, items[1].Line)
	assert.Equal(t, models.SeveritySuggestion, items[1].Severity)
}

func TestHeuristic_JavaMainWithArgsIsClean(t *testing.T) {
	items := analyzeHeuristic(t, "public static void main(String[] args) {}", "java")

	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Line)
	assert.Equal(t, "best_practice", items[0].Category)
}

func TestHeuristic_CppRules(t *testing.T) {
	code := "using namespace std;\ncout << x << endl;"
	items := analyzeHeuristic(t, code, "cpp")

	require.Len(t, items, 2)
	assert.Equal(t, models.SeverityWarning, items[0].Severity)
	assert.Equal(t, "performance", items[1].Category)
}

func TestHeuristic_UnknownFileTypeGetsDefaultRemark(t *testing.T) {
	items := analyzeHeuristic(t, "print(x)\neval(y)", "rb")

	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Line)
	assert.Equal(t, models.SeveritySuggestion, items[0].Severity)
}

func TestHeuristic_AllItemsTaggedHeuristic(t *testing.T) {
	for _, item := range analyzeHeuristic(t, "import *\nprint(x)", "py") {
		assert.Equal(t, SourceHeuristic, item.Source)
	}
}
