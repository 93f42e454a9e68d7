// Package similarity scores how alike two source texts are on a [0,1]
// scale. Three independent signals are combined: token-set Jaccard and
// character-trigram Jaccard over the normalized text, and a line-overlap
// ratio over the comment-stripped line structure. No single signal is
// robust alone: token overlap is blind to statement order, trigrams catch
// near-verbatim copies after small shuffles, and line overlap rewards
// structurally identical files.
package similarity

import (
	"strings"

	"github.com/RishiKendai/argus/internal/normalize"
)

// Weights holds the signal weights for the combined score
type Weights struct {
	Token   float64
	Trigram float64
	Line    float64
}

// DefaultWeights returns the tuned production weights
func DefaultWeights() Weights {
	return Weights{
		Token:   0.40,
		Trigram: 0.40,
		Line:    0.20,
	}
}

// Engine computes pairwise similarity scores. It is stateless and safe
// for concurrent use.
type Engine struct {
	weights Weights
}

func NewEngine(weights Weights) *Engine {
	return &Engine{weights: weights}
}

// Score returns the weighted similarity of two raw texts, always in [0,1].
// Empty or absent input on either side scores 0.0.
func (e *Engine) Score(textA, textB string) float64 {
	// No comparison possible without both raw inputs
	if textA == "" || textB == "" {
		return 0.0
	}

	normA := normalize.Normalize(textA)
	normB := normalize.Normalize(textB)
	if normA == "" || normB == "" {
		return 0.0
	}

	tokens := tokenJaccard(normA, normB)
	trigrams := trigramJaccard(normA, normB)
	lines := lineOverlap(normalize.Lines(textA), normalize.Lines(textB))

	score := e.weights.Token*tokens + e.weights.Trigram*trigrams + e.weights.Line*lines

	// Oversized weights must not push the score past 1
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}

	return score
}

// tokenJaccard computes Jaccard similarity over whitespace-delimited token
// sets. Two empty documents are identical (1.0); one empty is 0.0.
func tokenJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(text) {
		set[token] = struct{}{}
	}
	return set
}

// trigramJaccard computes Jaccard similarity over the sets of contiguous
// 3-rune substrings. A text shorter than 3 runes has no trigrams and the
// signal contributes 0.0.
func trigramJaccard(a, b string) float64 {
	setA := trigramSet(a)
	setB := trigramSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for gram := range setA {
		if _, ok := setB[gram]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

func trigramSet(text string) map[string]struct{} {
	runes := []rune(text)
	set := make(map[string]struct{})
	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = struct{}{}
	}
	return set
}

// lineOverlap computes 2*matched/(lenA+lenB) over comment-stripped lines,
// counting matches from both sides so the measure stays symmetric and
// self-comparison stays 1.0 even when a file repeats a line.
func lineOverlap(linesA, linesB []string) float64 {
	if len(linesA) == 0 || len(linesB) == 0 {
		return 0.0
	}

	setA := lineSet(linesA)
	setB := lineSet(linesB)

	matched := 0
	for _, line := range linesA {
		if _, ok := setB[line]; ok {
			matched++
		}
	}
	for _, line := range linesB {
		if _, ok := setA[line]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(linesA)+len(linesB))
}

func lineSet(lines []string) map[string]struct{} {
	set := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		set[line] = struct{}{}
	}
	return set
}

// MatchedLines returns the 1-based raw line numbers of textA whose
// comment-stripped content also occurs in textB. Lines blank after
// stripping are never reported. Used to annotate flagged reports; the
// scored signals above do not depend on it.
func MatchedLines(textA, textB string) []int {
	if textA == "" || textB == "" {
		return nil
	}

	setB := lineSet(normalize.Lines(textB))
	if len(setB) == 0 {
		return nil
	}

	matched := make([]int, 0)
	for i, raw := range strings.Split(textA, "\n") {
		line := strings.TrimSpace(normalize.StripComments(raw))
		if line == "" {
			continue
		}
		if _, ok := setB[line]; ok {
			matched = append(matched, i+1)
		}
	}
	return matched
}
