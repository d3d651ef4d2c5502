package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/use-agent/seoscope/models"
)

// Project directory layout, per stage. Subdirectories under
// 03_competitor_content and 07_final_reports are created on demand.
const (
	dirConfig      = "00_config"
	dirSerp        = models.StageSerpResults
	dirContent     = models.StageCompetitorContent
	dirExtracted   = "extracted_content"
	dirRawBackups  = "raw_backups"
	dirFailed      = "failed_scrapes"
	dirProcessing  = models.StageContentProcessing
	dirAnalysis    = models.StageCompetitiveScoring
	dirOptimize    = models.StageOptimization
	dirReports     = models.StageFinalReports
	dirExecSummary = "executive_summary"
	dirImplGuide   = "implementation_guide"
	dirArchive     = "08_archive"
)

// ProjectStore owns the on-disk layout for all projects under root.
type ProjectStore struct {
	root string
}

// NewProjectStore returns a ProjectStore rooted at the given projects
// directory, creating it if necessary.
func NewProjectStore(root string) (*ProjectStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating projects root: %w", err)
	}
	return &ProjectStore{root: root}, nil
}

func (s *ProjectStore) Dir(name string) string {
	return filepath.Join(s.root, name)
}

func (s *ProjectStore) configPath(name string) string {
	return filepath.Join(s.Dir(name), dirConfig, "project_config.json")
}

// ensureLayout creates every stage subdirectory for a project.
func (s *ProjectStore) ensureLayout(name string) error {
	dirs := []string{
		filepath.Join(s.Dir(name), dirConfig),
		filepath.Join(s.Dir(name), dirSerp),
		filepath.Join(s.Dir(name), dirContent, dirExtracted),
		filepath.Join(s.Dir(name), dirContent, dirRawBackups),
		filepath.Join(s.Dir(name), dirContent, dirFailed),
		filepath.Join(s.Dir(name), dirProcessing),
		filepath.Join(s.Dir(name), dirAnalysis),
		filepath.Join(s.Dir(name), dirOptimize),
		filepath.Join(s.Dir(name), dirReports, dirExecSummary),
		filepath.Join(s.Dir(name), dirReports, dirImplGuide),
		filepath.Join(s.Dir(name), dirArchive),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
	}
	return nil
}

// Create initializes a new project. It fails if a project_config.json
// already exists for name, since a project name is its identity and at
// most one project may use it.
func (s *ProjectStore) Create(name, query, targetURL string, topN int) (*models.Project, error) {
	if _, err := os.Stat(s.configPath(name)); err == nil {
		return nil, fmt.Errorf("project %q already exists", name)
	}
	if err := s.ensureLayout(name); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &models.Project{
		ProjectName: name,
		Query:       query,
		TargetURL:   targetURL,
		TopN:        topN,
		Status:      models.StatusInitialized,
		CurrentStep: models.StageOrder[0],
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := s.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads a project's current state from disk.
func (s *ProjectStore) Load(name string) (*models.Project, error) {
	data, err := os.ReadFile(s.configPath(name))
	if err != nil {
		return nil, fmt.Errorf("reading project config: %w", err)
	}
	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project config: %w", err)
	}
	return &p, nil
}

// Save persists a project's current state, updating LastUpdated.
func (s *ProjectStore) Save(p *models.Project) error {
	p.LastUpdated = time.Now()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling project config: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(s.Dir(p.ProjectName), dirConfig), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(s.configPath(p.ProjectName), data, 0o644)
}

// writeJSON writes v as indented JSON to relPath under the project directory.
func (s *ProjectStore) writeJSON(projectName, relPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", relPath, err)
	}
	full := filepath.Join(s.Dir(projectName), relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating dir for %s: %w", relPath, err)
	}
	return os.WriteFile(full, data, 0o644)
}

// writeText writes raw bytes to relPath under the project directory, for
// artifacts that aren't JSON, like the Markdown reports under
// 07_final_reports.
func (s *ProjectStore) writeText(projectName, relPath string, data []byte) error {
	full := filepath.Join(s.Dir(projectName), relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating dir for %s: %w", relPath, err)
	}
	return os.WriteFile(full, data, 0o644)
}

// readJSON reads and decodes relPath under the project directory into v.
// It returns (false, nil) rather than an error when the file is absent, so
// callers can distinguish "not yet produced" from a real read failure.
func (s *ProjectStore) readJSON(projectName, relPath string, v any) (bool, error) {
	full := filepath.Join(s.Dir(projectName), relPath)
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", relPath, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing %s: %w", relPath, err)
	}
	return true, nil
}
