package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// SetupLogging configures the logging system
func SetupLogging(logLevel string) *logrus.Logger {
	// Create a new logger
	logger := logrus.New()

	// Get log level from environment variable or parameter
	levelStr := logLevel
	if levelStr == "" {
		levelStr = os.Getenv("TIGHTEN_LOG_LEVEL")
		if levelStr == "" {
			levelStr = "info"
		}
	}

	// Parse log level
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	// Configure logger
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stdout)

	return logger
}

// LoadEnvironmentVariables loads environment variables from .env file
func LoadEnvironmentVariables(envFile string, logger *logrus.Logger) {
	// Check if a sample .env file exists but not the actual .env file
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		sampleEnvFile := envFile + ".sample"
		if _, err := os.Stat(sampleEnvFile); err == nil {
			logger.Infof("No %s file found, but %s exists. Consider copying %s to %s and updating it.",
				envFile, sampleEnvFile, sampleEnvFile, envFile)
		}
	}

	// Load environment variables from .env file if it exists
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logger.Warningf("Error loading %s file: %v", envFile, err)
		} else {
			logger.Infof("Loaded environment variables from %s", envFile)
		}
	} else {
		logger.Debugf("No %s file found, using existing environment variables", envFile)
	}
}

// ValidateConnectionParams validates database connection parameters
func ValidateConnectionParams(host, user, password, database, port string, logger *logrus.Logger) bool {
	if host == "" {
		logger.Error("Database host is required")
		return false
	}

	if user == "" {
		logger.Error("Database user is required")
		return false
	}

	if password == "" { // Empty password is allowed
		logger.Warning("Database password is empty")
	}

	if database == "" {
		logger.Error("Database name is required")
		return false
	}

	if _, err := strconv.Atoi(port); err != nil {
		logger.Errorf("Invalid port number: %s", port)
		return false
	}

	return true
}

// GetEnvInt gets an integer value from environment variable
func GetEnvInt(varName string, defaultValue int) int {
	value := os.Getenv(varName)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// PrintDecisionReport prints a summary of a tightening run.
func PrintDecisionReport(decisions []models.Decision, plans []models.RemediationPlan, inconsistencies []error, circularDeps [][]string) {
	tightened := make(map[models.ConstraintKind]int)
	skipped := make(map[models.ConstraintKind]int)
	satisfied := 0
	needRemediation := 0

	for _, d := range decisions {
		if d.Tighten {
			tightened[d.Kind]++
		} else {
			skipped[d.Kind]++
		}
		if d.AlreadySatisfied {
			satisfied++
		}
		if d.RequiresRemediation {
			needRemediation++
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SCHEMA TIGHTENING REPORT")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Println("\n1. DECISIONS")
	fmt.Printf("   Total decisions: %d\n", len(decisions))
	fmt.Printf("   NOT NULL      tighten: %d, keep loose: %d\n", tightened[models.KindNullability], skipped[models.KindNullability])
	fmt.Printf("   FOREIGN KEY   tighten: %d, keep loose: %d\n", tightened[models.KindForeignKey], skipped[models.KindForeignKey])
	fmt.Printf("   UNIQUE        tighten: %d, keep loose: %d\n", tightened[models.KindUniqueness], skipped[models.KindUniqueness])
	fmt.Printf("   Already satisfied by the catalog: %d\n", satisfied)

	fmt.Println("\n2. REMEDIATION")
	fmt.Printf("   Decisions requiring remediation: %d\n", needRemediation)
	fmt.Printf("   Plans emitted (not applied): %d\n", len(plans))
	manual := 0
	for _, p := range plans {
		if p.ManualReviewRequired {
			manual++
		}
	}
	if manual > 0 {
		fmt.Printf("   Plans requiring manual review: %d\n", manual)
	}

	if len(circularDeps) > 0 {
		fmt.Println("\n3. CIRCULAR REFERENCES")
		fmt.Printf("   Table pairs that reference each other: %d\n", len(circularDeps))
		for _, dep := range circularDeps {
			if len(dep) >= 2 {
				fmt.Printf("     %s <-> %s\n", dep[0], dep[1])
			}
		}
	}

	if len(inconsistencies) > 0 {
		fmt.Println("\n4. MODEL INCONSISTENCIES")
		fmt.Printf("   Errors: %d (run marked failed, affected tables withheld from emission)\n", len(inconsistencies))
		for _, err := range inconsistencies {
			fmt.Printf("     - %v\n", err)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
}
