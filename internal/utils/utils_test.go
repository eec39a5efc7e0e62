package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/danielbdyer/schema-tightener/pkg/models"
)

func TestSetupLoggingExplicitLevel(t *testing.T) {
	logger := SetupLogging("debug")
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", logger.GetLevel())
	}
}

func TestSetupLoggingDefaultLevel(t *testing.T) {
	t.Setenv("TIGHTEN_LOG_LEVEL", "")
	logger := SetupLogging("")
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("Expected info level, got %v", logger.GetLevel())
	}
}

func TestSetupLoggingEnvironmentLevel(t *testing.T) {
	t.Setenv("TIGHTEN_LOG_LEVEL", "warning")
	logger := SetupLogging("")
	if logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("Expected warn level, got %v", logger.GetLevel())
	}
}

func TestSetupLoggingInvalidLevel(t *testing.T) {
	logger := SetupLogging("not-a-level")
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("Expected fallback to info level, got %v", logger.GetLevel())
	}
}

func TestLoadEnvironmentVariables(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("TIGHTEN_TEST_VAR=loaded\n"), 0o644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv("TIGHTEN_TEST_VAR", "")
	os.Unsetenv("TIGHTEN_TEST_VAR")

	LoadEnvironmentVariables(envFile, SetupLogging("error"))

	if os.Getenv("TIGHTEN_TEST_VAR") != "loaded" {
		t.Errorf("Expected TIGHTEN_TEST_VAR=loaded, got %q", os.Getenv("TIGHTEN_TEST_VAR"))
	}
}

func TestLoadEnvironmentVariablesMissingFile(t *testing.T) {
	// Missing file is not an error; existing environment wins.
	LoadEnvironmentVariables(filepath.Join(t.TempDir(), ".env"), SetupLogging("error"))
}

func TestValidateConnectionParams(t *testing.T) {
	logger := SetupLogging("error")

	tests := []struct {
		name     string
		host     string
		user     string
		password string
		database string
		port     string
		want     bool
	}{
		{"all valid", "localhost", "root", "secret", "testdb", "3306", true},
		{"empty password allowed", "localhost", "root", "", "testdb", "3306", true},
		{"missing host", "", "root", "secret", "testdb", "3306", false},
		{"missing user", "localhost", "", "secret", "testdb", "3306", false},
		{"missing database", "localhost", "root", "secret", "", "3306", false},
		{"invalid port", "localhost", "root", "secret", "testdb", "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateConnectionParams(tt.host, tt.user, tt.password, tt.database, tt.port, logger)
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TIGHTEN_TEST_INT", "9")
	if v := GetEnvInt("TIGHTEN_TEST_INT", 3); v != 9 {
		t.Errorf("Expected 9, got %d", v)
	}
	if v := GetEnvInt("TIGHTEN_TEST_INT_MISSING", 3); v != 3 {
		t.Errorf("Expected default 3, got %d", v)
	}
	t.Setenv("TIGHTEN_TEST_INT", "nope")
	if v := GetEnvInt("TIGHTEN_TEST_INT", 3); v != 3 {
		t.Errorf("Expected default 3 for unparseable value, got %d", v)
	}
}

func TestPrintDecisionReport(t *testing.T) {
	// Smoke test: the report must not panic on any input shape.
	decisions := []models.Decision{
		{
			Target:  models.ColumnTarget("appdb", "customer", "id"),
			Kind:    models.KindNullability,
			Tighten: true,
		},
		{
			Target:              models.ColumnTarget("appdb", "order", "customer_id"),
			Kind:                models.KindForeignKey,
			Tighten:             true,
			RequiresRemediation: true,
		},
		{
			Target:           models.CandidateTarget("appdb", "customer", []string{"email"}),
			Kind:             models.KindUniqueness,
			AlreadySatisfied: true,
		},
	}
	plans := []models.RemediationPlan{
		{
			Target:               models.ColumnTarget("appdb", "order", "customer_id"),
			Kind:                 models.KindForeignKey,
			ManualReviewRequired: true,
		},
	}
	inconsistencies := []error{errors.New("inconsistent target appdb.ghost.id: entity not declared in model")}
	circular := [][]string{{"appdb.left_side", "appdb.right_side"}}

	PrintDecisionReport(decisions, plans, inconsistencies, circular)
	PrintDecisionReport(nil, nil, nil, nil)
}
