// Package config loads engine configuration from an optional YAML file laid
// over the built-in defaults. Command line flags are applied on top by the
// caller. Anything invalid fails before evaluation starts.
package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/danielbdyer/schema-tightener/internal/policy"
	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// File mirrors the YAML config file. Pointer fields distinguish "absent"
// from zero values so absent keys keep their defaults.
type File struct {
	Mode                  string            `yaml:"mode"`
	NullBudget            *float64          `yaml:"null_budget"`
	AllowCrossSchema      *bool             `yaml:"allow_cross_schema"`
	AllowCrossCatalog     *bool             `yaml:"allow_cross_catalog"`
	MissingDeleteAction   string            `yaml:"missing_delete_action"`
	RemediationRowCeiling *int64            `yaml:"remediation_row_ceiling"`
	Workers               *int              `yaml:"workers"`
	Sentinels             map[string]string `yaml:"sentinels"`
}

var validFamilies = map[string]models.TypeFamily{
	string(models.FamilyText):     models.FamilyText,
	string(models.FamilyInteger):  models.FamilyInteger,
	string(models.FamilyDecimal):  models.FamilyDecimal,
	string(models.FamilyDateTime): models.FamilyDateTime,
	string(models.FamilyBoolean):  models.FamilyBoolean,
	string(models.FamilyBinary):   models.FamilyBinary,
}

// Load returns the defaults when path is empty, otherwise the defaults with
// the file's settings applied. A named but unreadable file is an error, not
// a silent fallback.
func Load(path string, logger *logrus.Logger) (policy.Config, error) {
	cfg := policy.Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("decode config file %s: %w", path, err)
	}

	if file.Mode != "" {
		mode, err := policy.ParseMode(file.Mode)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}
	if file.NullBudget != nil {
		cfg.NullBudget = *file.NullBudget
	}
	if file.AllowCrossSchema != nil {
		cfg.AllowCrossSchema = *file.AllowCrossSchema
	}
	if file.AllowCrossCatalog != nil {
		cfg.AllowCrossCatalog = *file.AllowCrossCatalog
	}
	if file.MissingDeleteAction != "" {
		cfg.MissingDeleteAction = policy.MissingDeleteActionPolicy(file.MissingDeleteAction)
	}
	if file.RemediationRowCeiling != nil {
		cfg.RemediationRowCeiling = *file.RemediationRowCeiling
	}
	if file.Workers != nil {
		cfg.Workers = *file.Workers
	}
	for name, sentinel := range file.Sentinels {
		family, ok := validFamilies[name]
		if !ok {
			return cfg, fmt.Errorf("%w: unknown sentinel type family %q", policy.ErrInvalidConfig, name)
		}
		cfg.Sentinels[family] = sentinel
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	logger.Infof("Loaded configuration from %s (mode: %s, null budget: %v)", path, cfg.Mode, cfg.NullBudget)
	return cfg, nil
}
