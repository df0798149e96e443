// Package classify assigns a classification to raw log records. The rule
// logic is an interchangeable strategy so detection rules can evolve without
// touching the ingestion plumbing.
package classify

import (
	"strings"

	"logsift/config"
	"logsift/internal/models"
)

// Classifier is the classification strategy interface. Implementations must
// be deterministic for identical input so replays are reproducible: no
// clock reads, no hidden state.
type Classifier interface {
	// Classify returns the classification for a record. Records that cannot
	// be evaluated are classified as unidentified, never rejected.
	Classify(rec models.LogRecord) models.Classification
}

// Func adapts an ordinary function to the Classifier interface.
type Func func(rec models.LogRecord) models.Classification

// Classify implements Classifier.
func (f Func) Classify(rec models.LogRecord) models.Classification { return f(rec) }

// RuleClassifier classifies by log level membership: levels listed as
// anomalous map to anomaly, levels listed as normal map to normal, anything
// else (including a missing level) is unidentified.
type RuleClassifier struct {
	anomalyLevels map[string]struct{}
	normalLevels  map[string]struct{}
}

// NewRuleClassifier builds a RuleClassifier from configuration. Level
// matching is case-insensitive.
func NewRuleClassifier(cfg config.ClassifierConfig) *RuleClassifier {
	c := &RuleClassifier{
		anomalyLevels: make(map[string]struct{}, len(cfg.AnomalyLevels)),
		normalLevels:  make(map[string]struct{}, len(cfg.NormalLevels)),
	}
	for _, lvl := range cfg.AnomalyLevels {
		c.anomalyLevels[strings.ToUpper(lvl)] = struct{}{}
	}
	for _, lvl := range cfg.NormalLevels {
		c.normalLevels[strings.ToUpper(lvl)] = struct{}{}
	}
	return c
}

// Classify implements Classifier.
func (c *RuleClassifier) Classify(rec models.LogRecord) models.Classification {
	level := strings.ToUpper(strings.TrimSpace(rec.LogLevel))
	if level == "" {
		// Missing signal field: cannot be evaluated.
		return models.ClassUnidentified
	}
	if _, ok := c.anomalyLevels[level]; ok {
		return models.ClassAnomaly
	}
	if _, ok := c.normalLevels[level]; ok {
		return models.ClassNormal
	}
	return models.ClassUnidentified
}

var _ Classifier = (*RuleClassifier)(nil)
var _ Classifier = Func(nil)
