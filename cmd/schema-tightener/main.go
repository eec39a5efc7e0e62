package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/danielbdyer/schema-tightener/internal/config"
	"github.com/danielbdyer/schema-tightener/internal/connector"
	"github.com/danielbdyer/schema-tightener/internal/decision"
	"github.com/danielbdyer/schema-tightener/internal/evidence"
	"github.com/danielbdyer/schema-tightener/internal/ledger"
	"github.com/danielbdyer/schema-tightener/internal/modelgraph"
	"github.com/danielbdyer/schema-tightener/internal/modelsource"
	"github.com/danielbdyer/schema-tightener/internal/policy"
	"github.com/danielbdyer/schema-tightener/internal/remediation"
	"github.com/danielbdyer/schema-tightener/internal/utils"
	"github.com/danielbdyer/schema-tightener/pkg/models"
)

func main() {
	var (
		modelFile     string
		evidenceFile  string
		profile       bool
		host          string
		user          string
		password      string
		database      string
		port          string
		mode          string
		nullBudget    float64
		workers       int
		ceiling       int64
		crossSchema   bool
		crossCatalog  bool
		missingDelete string
		configFile    string
		outDir        string
		envFile       string
		logLevel      string
	)

	rootCmd := &cobra.Command{
		Use:   "schema-tightener",
		Short: "Decides which integrity constraints can safely be added to a migrated schema",
		Long: `Schema Tightener

Combines a declared logical model with measured data evidence to decide,
column by column and relationship by relationship, which NOT NULL, foreign
key and unique constraints can be added without breaking existing data.
Decisions are deterministic, carry a rationale trail, and default to safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			// Setup logging
			logger := utils.SetupLogging(logLevel)

			// Load environment variables
			utils.LoadEnvironmentVariables(envFile, logger)

			runID := uuid.New()
			logger.Infof("Starting tightening run %s", runID)

			// Configuration: defaults, then config file, then explicit flags.
			cfg, err := config.Load(configFile, logger)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("mode") {
				parsed, err := policy.ParseMode(mode)
				if err != nil {
					return err
				}
				cfg.Mode = parsed
			}
			if cmd.Flags().Changed("null-budget") {
				cfg.NullBudget = nullBudget
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			} else {
				cfg.Workers = utils.GetEnvInt("TIGHTEN_WORKERS", cfg.Workers)
			}
			if cmd.Flags().Changed("remediation-ceiling") {
				cfg.RemediationRowCeiling = ceiling
			} else {
				cfg.RemediationRowCeiling = int64(utils.GetEnvInt("TIGHTEN_REMEDIATION_CEILING", int(cfg.RemediationRowCeiling)))
			}
			if cmd.Flags().Changed("allow-cross-schema") {
				cfg.AllowCrossSchema = crossSchema
			}
			if cmd.Flags().Changed("allow-cross-catalog") {
				cfg.AllowCrossCatalog = crossCatalog
			}
			if cmd.Flags().Changed("missing-delete-action") {
				cfg.MissingDeleteAction = policy.MissingDeleteActionPolicy(missingDelete)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Load the logical model
			model, err := modelsource.Load(modelFile, logger)
			if err != nil {
				return err
			}

			// Obtain the evidence snapshot
			var snapshot *models.Snapshot
			switch {
			case evidenceFile != "":
				snapshot, err = evidence.NewFileProvider(evidenceFile, logger).GetSnapshot(model)
				if err != nil {
					return err
				}
			case profile:
				if host == "" {
					host = os.Getenv("MYSQL_HOST")
				}
				if user == "" {
					user = os.Getenv("MYSQL_USER")
				}
				if password == "" {
					password = os.Getenv("MYSQL_PASSWORD")
				}
				if database == "" {
					database = os.Getenv("MYSQL_DATABASE")
				}
				if port == "" {
					port = os.Getenv("MYSQL_PORT")
					if port == "" {
						port = "3306"
					}
				}
				if !utils.ValidateConnectionParams(host, user, password, database, port, logger) {
					return fmt.Errorf("invalid connection parameters")
				}
				db := connector.NewDatabaseConnector(host, user, password, database, port, logger)
				if err := db.Connect(); err != nil {
					return fmt.Errorf("connect to database: %w", err)
				}
				defer db.Disconnect()
				snapshot, err = evidence.NewProfiler(db, logger).GetSnapshot(model)
				if err != nil {
					return err
				}
			default:
				logger.Warning("No evidence source given (--evidence or --profile); every target will be treated as missing evidence")
				snapshot = models.NewSnapshot()
			}

			// Evaluate all targets
			engine := decision.NewEngine(model, snapshot, cfg, logger)
			result, err := engine.Run()
			if err != nil {
				return err
			}

			// Plan remediation for decisions that require it
			planner := remediation.NewPlanner(model, cfg, logger)
			for _, d := range result.Ledger.Decisions() {
				if !d.RequiresRemediation {
					continue
				}
				if err := result.Ledger.AttachPlan(planner.Plan(d)); err != nil {
					return err
				}
			}

			// Constraint application order from the relationship graph
			graphAnalyzer := modelgraph.NewAnalyzer(model, logger)
			applyOrder := graphAnalyzer.ApplyOrder()

			// Export the ledger
			exporter := ledger.NewExporter(outDir, logger)
			if err := exporter.WriteAll(result.Ledger, result.FailedTables, applyOrder); err != nil {
				return err
			}

			// Print summary
			utils.PrintDecisionReport(result.Ledger.Decisions(), result.Ledger.Plans(), result.Inconsistencies, graphAnalyzer.DirectCircularDeps)

			if len(result.Inconsistencies) > 0 {
				return fmt.Errorf("run failed: %d model inconsistency error(s)", len(result.Inconsistencies))
			}
			return nil
		},
	}

	// Define flags
	rootCmd.Flags().StringVarP(&modelFile, "model", "m", "", "Path to the logical model JSON file (required)")
	rootCmd.Flags().StringVarP(&evidenceFile, "evidence", "e", "", "Path to an evidence snapshot JSON file")
	rootCmd.Flags().BoolVar(&profile, "profile", false, "Profile evidence from a live MySQL database")
	rootCmd.Flags().StringVarP(&host, "host", "H", "", "MySQL host (default: localhost)")
	rootCmd.Flags().StringVarP(&user, "user", "u", "", "MySQL user (default: root)")
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "MySQL password")
	rootCmd.Flags().StringVarP(&database, "database", "d", "", "MySQL database name")
	rootCmd.Flags().StringVarP(&port, "port", "P", "", "MySQL port (default: 3306)")
	rootCmd.Flags().StringVar(&mode, "mode", string(policy.ModeEvidenceGated), "Tightening mode (cautious, evidence-gated, aggressive)")
	rootCmd.Flags().Float64Var(&nullBudget, "null-budget", 0.0, "Maximum tolerated null ratio for NOT NULL tightening, in [0,1]")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of evaluation workers (falls back to TIGHTEN_WORKERS)")
	rootCmd.Flags().Int64Var(&ceiling, "remediation-ceiling", 100000, "Affected-row ceiling above which remediation needs manual review (falls back to TIGHTEN_REMEDIATION_CEILING)")
	rootCmd.Flags().BoolVar(&crossSchema, "allow-cross-schema", false, "Permit foreign keys across schemas")
	rootCmd.Flags().BoolVar(&crossCatalog, "allow-cross-catalog", false, "Permit foreign keys across catalogs")
	rootCmd.Flags().StringVar(&missingDelete, "missing-delete-action", string(policy.MissingDeleteProtect), "How to treat relationships without a delete action (protect, ignore)")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to a YAML configuration file")
	rootCmd.Flags().StringVarP(&outDir, "out-dir", "o", "out", "Directory for the exported decision documents")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.MarkFlagRequired("model")

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
