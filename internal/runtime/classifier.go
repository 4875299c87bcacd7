package runtime

import (
	"strings"

	"github.com/aretw0/autofix/pkg/domain"
)

// Classifier turns a free-form repair report into a verdict.
type Classifier interface {
	Classify(report string) domain.Verdict
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(report string) domain.Verdict

func (f ClassifierFunc) Classify(report string) domain.Verdict {
	return f(report)
}

// MarkerClassifier reports success iff the report contains one of its markers.
// It is a plain substring match: "修复未完成" still contains 完成 and counts as success.
type MarkerClassifier struct {
	Markers []string
}

// NewMarkerClassifier returns the classifier with the default success markers.
func NewMarkerClassifier() MarkerClassifier {
	return MarkerClassifier{Markers: []string{domain.MarkerSucceeded, domain.MarkerCompleted}}
}

func (c MarkerClassifier) Classify(report string) domain.Verdict {
	for _, m := range c.Markers {
		if m != "" && strings.Contains(report, m) {
			return domain.Verdict{Success: true}
		}
	}
	return domain.Verdict{Success: false}
}
