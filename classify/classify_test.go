package classify

import (
	"testing"
	"time"

	"logsift/config"
	"logsift/internal/models"
)

func defaultClassifier() *RuleClassifier {
	return NewRuleClassifier(config.ClassifierConfig{
		AnomalyLevels: []string{"ERROR", "CRITICAL"},
		NormalLevels:  []string{"INFO", "DEBUG", "WARNING"},
	})
}

func record(id, level string) models.LogRecord {
	return models.LogRecord{
		ID:        id,
		Timestamp: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		LogLevel:  level,
		Message:   "test message",
	}
}

func TestRuleClassifierLevels(t *testing.T) {
	c := defaultClassifier()

	cases := []struct {
		level string
		want  models.Classification
	}{
		{"ERROR", models.ClassAnomaly},
		{"CRITICAL", models.ClassAnomaly},
		{"error", models.ClassAnomaly}, // case-insensitive
		{"INFO", models.ClassNormal},
		{"WARNING", models.ClassNormal},
		{"TRACE", models.ClassUnidentified},
		{"", models.ClassUnidentified},
		{"  ", models.ClassUnidentified},
	}
	for _, tc := range cases {
		got := c.Classify(record("r1", tc.level))
		if got != tc.want {
			t.Errorf("Classify(level=%q) = %s, want %s", tc.level, got, tc.want)
		}
	}
}

func TestRuleClassifierDeterministic(t *testing.T) {
	c := defaultClassifier()
	rec := record("replay", "ERROR")

	first := c.Classify(rec)
	for i := 0; i < 100; i++ {
		if got := c.Classify(rec); got != first {
			t.Fatalf("replay %d: Classify returned %s, first call returned %s", i, got, first)
		}
	}
}

func TestFuncClassifier(t *testing.T) {
	flagged := Func(func(rec models.LogRecord) models.Classification {
		if rec.ParamValue == "X" {
			return models.ClassAnomaly
		}
		return models.ClassNormal
	})

	rec := record("f1", "INFO")
	rec.ParamValue = "X"
	if got := flagged.Classify(rec); got != models.ClassAnomaly {
		t.Fatalf("Func classifier returned %s, want anomaly", got)
	}
}

// Scenario from the dashboard acceptance checklist: level=="error" flags an
// anomaly, level=="info" is normal.
func TestRuleClassifierErrorInfoPair(t *testing.T) {
	c := defaultClassifier()

	r1 := record("1", "error")
	r1.ParamValue = "X"
	r2 := record("2", "info")
	r2.ParamValue = "Y"

	if got := c.Classify(r1); got != models.ClassAnomaly {
		t.Errorf("record 1: got %s, want anomaly", got)
	}
	if got := c.Classify(r2); got != models.ClassNormal {
		t.Errorf("record 2: got %s, want normal", got)
	}
}
