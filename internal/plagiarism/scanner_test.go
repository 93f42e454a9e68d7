package plagiarism

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RishiKendai/argus/internal/models"
	"github.com/RishiKendai/argus/internal/similarity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContent struct {
	mu    sync.Mutex
	texts map[string]string
	errs  map[string]error
	reads []string
}

func (f *fakeContent) GetText(_ context.Context, submissionID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, submissionID)
	if err, ok := f.errs[submissionID]; ok {
		return "", err
	}
	return f.texts[submissionID], nil
}

type fakeSiblings struct {
	ids []string
	err error
}

func (f *fakeSiblings) ListSiblings(_ context.Context, _, _ string) ([]string, error) {
	return f.ids, f.err
}

type upsertCall struct {
	a, b  string
	score float64
}

type fakeReports struct {
	mu      sync.Mutex
	stored  map[string]*models.PlagiarismReport
	calls   []upsertCall
	failFor map[string]error
}

func newFakeReports() *fakeReports {
	return &fakeReports{
		stored:  make(map[string]*models.PlagiarismReport),
		failFor: make(map[string]error),
	}
}

func (f *fakeReports) Upsert(_ context.Context, a, b, assignmentID string, score float64, matchedLines []int) (*models.PlagiarismReport, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, upsertCall{a: a, b: b, score: score})

	s1, s2 := a, b
	if s2 < s1 {
		s1, s2 = s2, s1
	}
	key := s1 + ":" + s2

	if err, ok := f.failFor[key]; ok {
		return nil, false, err
	}
	if existing, ok := f.stored[key]; ok {
		return existing, false, nil
	}

	report := &models.PlagiarismReport{
		ID:              "report-" + key,
		Submission1:     s1,
		Submission2:     s2,
		AssignmentID:    assignmentID,
		SimilarityScore: score,
		MatchedLines:    matchedLines,
		Status:          models.ReportFlagged,
	}
	f.stored[key] = report
	return report, true, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	flagged []*models.PlagiarismReport
}

func (f *fakeNotifier) ReportFlagged(_ context.Context, report *models.PlagiarismReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flagged = append(f.flagged, report)
	return nil
}

type fakeStatus struct {
	mu    sync.Mutex
	steps []models.Step
}

func (f *fakeStatus) Update(_ context.Context, _ string, step models.Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, step)
	return nil
}

// stubScorer maps sibling text to a fixed score, bypassing the real engine.
type stubScorer struct {
	scores map[string]float64
}

func (s *stubScorer) Score(_, textB string) float64 {
	return s.scores[textB]
}

func testScanner(t *testing.T, cfg Config, scorer Scorer, content ContentSource, siblings SiblingLister, reports ReportStore, notifier FlagNotifier) *Scanner {
	t.Helper()
	pool := NewWorkerPool(context.Background())
	t.Cleanup(pool.Close)
	return NewScanner(cfg, scorer, content, siblings, reports, pool, &fakeStatus{}, notifier)
}

func defaultConfig() Config {
	return Config{Threshold: 0.9, ScanBudget: 5 * time.Second}
}

func submission(id string) *models.Submission {
	return &models.Submission{ID: id, AssignmentID: "hw-1", StudentID: "student-" + id}
}

func TestScan_EmptySiblingList(t *testing.T) {
	reports := newFakeReports()
	scanner := testScanner(t, defaultConfig(), similarity.NewEngine(similarity.DefaultWeights()),
		&fakeContent{texts: map[string]string{"s1": "print(1)"}}, &fakeSiblings{}, reports, nil)

	candidates, err := scanner.Scan(context.Background(), submission("s1"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Empty(t, reports.calls)
}

func TestScan_FlagsIdenticalSibling(t *testing.T) {
	text := "print(1)\nprint(2)\nprint(3)"
	content := &fakeContent{texts: map[string]string{"s1": text, "s2": text}}
	scanner := testScanner(t, defaultConfig(), similarity.NewEngine(similarity.DefaultWeights()),
		content, &fakeSiblings{ids: []string{"s2"}}, newFakeReports(), nil)

	candidates, err := scanner.Scan(context.Background(), submission("s1"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "s2", candidates[0].SubmissionID)
	assert.InDelta(t, 1.0, candidates[0].Score, 1e-9)
	assert.Equal(t, []int{1, 2, 3}, candidates[0].MatchedLines)
}

func TestScan_BelowThresholdNotFlagged(t *testing.T) {
	content := &fakeContent{texts: map[string]string{
		"s1": "alpha beta gamma",
		"s2": "delta epsilon zeta",
	}}
	scanner := testScanner(t, defaultConfig(), similarity.NewEngine(similarity.DefaultWeights()),
		content, &fakeSiblings{ids: []string{"s2"}}, newFakeReports(), nil)

	candidates, err := scanner.Scan(context.Background(), submission("s1"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestScan_ThresholdIsExclusive(t *testing.T) {
	// Identical texts score exactly 1.0; with the threshold at 1.0 the
	// strictly-greater rule must keep the pair unflagged.
	text := "print(1)\nprint(2)"
	content := &fakeContent{texts: map[string]string{"s1": text, "s2": text}}
	cfg := Config{Threshold: 1.0, ScanBudget: 5 * time.Second}
	scanner := testScanner(t, cfg, similarity.NewEngine(similarity.DefaultWeights()),
		content, &fakeSiblings{ids: []string{"s2"}}, newFakeReports(), nil)

	candidates, err := scanner.Scan(context.Background(), submission("s1"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestScan_SkipsUnreadableSibling(t *testing.T) {
	text := "print(1)\nprint(2)\nprint(3)"
	content := &fakeContent{
		texts: map[string]string{"s1": text, "s3": text},
		errs:  map[string]error{"s2": errors.New("storage gone")},
	}
	scanner := testScanner(t, defaultConfig(), similarity.NewEngine(similarity.DefaultWeights()),
		content, &fakeSiblings{ids: []string{"s2", "s3"}}, newFakeReports(), nil)

	candidates, err := scanner.Scan(context.Background(), submission("s1"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "s3", candidates[0].SubmissionID)
}

func TestScan_SkipsAbsentContent(t *testing.T) {
	content := &fakeContent{texts: map[string]string{"s1": "print(1)", "s2": ""}}
	scanner := testScanner(t, defaultConfig(), similarity.NewEngine(similarity.DefaultWeights()),
		content, &fakeSiblings{ids: []string{"s2"}}, newFakeReports(), nil)

	candidates, err := scanner.Scan(context.Background(), submission("s1"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestScan_TargetWithoutTextScansNothing(t *testing.T) {
	content := &fakeContent{texts: map[string]string{"s2": "print(1)"}}
	scanner := testScanner(t, defaultConfig(), similarity.NewEngine(similarity.DefaultWeights()),
		content, &fakeSiblings{ids: []string{"s2"}}, newFakeReports(), nil)

	candidates, err := scanner.Scan(context.Background(), submission("s1"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
	// Only the target read happened; no sibling fetches without a target
	assert.Equal(t, []string{"s1"}, content.reads)
}

func TestScan_SiblingListErrorFailsScan(t *testing.T) {
	scanner := testScanner(t, defaultConfig(), similarity.NewEngine(similarity.DefaultWeights()),
		&fakeContent{}, &fakeSiblings{err: errors.New("db down")}, newFakeReports(), nil)

	_, err := scanner.Scan(context.Background(), submission("s1"))
	assert.Error(t, err)
}

func TestScan_SortsByScoreDescending(t *testing.T) {
	content := &fakeContent{texts: map[string]string{
		"s1": "target",
		"s2": "low",
		"s3": "high",
		"s4": "mid",
	}}
	scorer := &stubScorer{scores: map[string]float64{"low": 0.91, "high": 0.99, "mid": 0.95}}
	scanner := testScanner(t, defaultConfig(), scorer, content,
		&fakeSiblings{ids: []string{"s2", "s3", "s4"}}, newFakeReports(), nil)

	candidates, err := scanner.Scan(context.Background(), submission("s1"))
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, "s3", candidates[0].SubmissionID)
	assert.Equal(t, "s4", candidates[1].SubmissionID)
	assert.Equal(t, "s2", candidates[2].SubmissionID)
}

func TestScanAndReport_PersistsExactlyOneReport(t *testing.T) {
	text := "print(1)\nprint(2)\nprint(3)"
	content := &fakeContent{texts: map[string]string{"s1": text, "s2": text}}
	reports := newFakeReports()
	notifier := &fakeNotifier{}
	scanner := testScanner(t, defaultConfig(), similarity.NewEngine(similarity.DefaultWeights()),
		content, &fakeSiblings{ids: []string{"s2"}}, reports, notifier)

	require.NoError(t, scanner.ScanAndReport(context.Background(), submission("s1")))

	require.Len(t, reports.stored, 1)
	report := reports.stored["s1:s2"]
	require.NotNil(t, report)
	assert.InDelta(t, 1.0, report.SimilarityScore, 1e-9)
	assert.Equal(t, models.ReportFlagged, report.Status)
	assert.Len(t, notifier.flagged, 1)

	// Rescanning the same pair must not create a second report or event
	require.NoError(t, scanner.ScanAndReport(context.Background(), submission("s1")))
	assert.Len(t, reports.stored, 1)
	assert.Len(t, notifier.flagged, 1)
}

func TestScanAndReport_UpsertCalledWithOriginatingFirst(t *testing.T) {
	text := "print(1)\nprint(2)"
	content := &fakeContent{texts: map[string]string{"s9": text, "s2": text}}
	reports := newFakeReports()
	scanner := testScanner(t, defaultConfig(), similarity.NewEngine(similarity.DefaultWeights()),
		content, &fakeSiblings{ids: []string{"s2"}}, reports, nil)

	require.NoError(t, scanner.ScanAndReport(context.Background(), submission("s9")))

	require.Len(t, reports.calls, 1)
	assert.Equal(t, "s9", reports.calls[0].a)
	assert.Equal(t, "s2", reports.calls[0].b)
}

func TestScanAndReport_UpsertFailureDoesNotAbortOthers(t *testing.T) {
	text := "print(1)\nprint(2)\nprint(3)"
	content := &fakeContent{texts: map[string]string{"s1": text, "s2": text, "s3": text}}
	reports := newFakeReports()
	reports.failFor["s1:s2"] = errors.New("mongo unavailable")
	scanner := testScanner(t, defaultConfig(), similarity.NewEngine(similarity.DefaultWeights()),
		content, &fakeSiblings{ids: []string{"s2", "s3"}}, reports, nil)

	require.NoError(t, scanner.ScanAndReport(context.Background(), submission("s1")))

	assert.Len(t, reports.calls, 2)
	require.Len(t, reports.stored, 1)
	assert.NotNil(t, reports.stored["s1:s3"])
}

func TestScanAndReport_TracksLifecycle(t *testing.T) {
	text := "print(1)"
	content := &fakeContent{texts: map[string]string{"s1": text, "s2": text}}
	status := &fakeStatus{}
	pool := NewWorkerPool(context.Background())
	t.Cleanup(pool.Close)
	scanner := NewScanner(defaultConfig(), similarity.NewEngine(similarity.DefaultWeights()),
		content, &fakeSiblings{ids: []string{"s2"}}, newFakeReports(), pool, status, nil)

	require.NoError(t, scanner.ScanAndReport(context.Background(), submission("s1")))

	assert.Equal(t, []models.Step{models.StepStarted, models.StepScanning, models.StepCompleted}, status.steps)
}
