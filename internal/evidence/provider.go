// Package evidence supplies the point-in-time data measurements the engine
// decides against: null counts, orphan counts, duplicate-group counts, and
// the constraints the physical catalog already enforces. A key with no
// snapshot entry has no evidence; that absence is itself a signal.
package evidence

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// Provider produces an evidence snapshot for the model's target keys.
type Provider interface {
	GetSnapshot(model *models.Model) (*models.Snapshot, error)
}

// FileProvider loads a snapshot measured earlier (or by another tool) from
// a JSON file, for runs without database access.
type FileProvider struct {
	Path   string
	Logger *logrus.Logger
}

// NewFileProvider creates a file-backed evidence provider.
func NewFileProvider(path string, logger *logrus.Logger) *FileProvider {
	return &FileProvider{Path: path, Logger: logger}
}

// GetSnapshot reads and decodes the snapshot file. The model is not
// consulted: whatever the file does not mention simply has no evidence.
func (fp *FileProvider) GetSnapshot(_ *models.Model) (*models.Snapshot, error) {
	data, err := os.ReadFile(fp.Path)
	if err != nil {
		return nil, fmt.Errorf("read evidence file %s: %w", fp.Path, err)
	}

	snapshot := models.NewSnapshot()
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("decode evidence file %s: %w", fp.Path, err)
	}

	fp.Logger.Infof("Loaded evidence snapshot from %s: %d columns, %d relationships, %d unique candidates",
		fp.Path, len(snapshot.Columns), len(snapshot.Relationships), len(snapshot.Uniques))
	return snapshot, nil
}
