package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
)

const (
	ReportFile      = "report.json"
	DiffResultsFile = "diff-results.json"
)

// ReportRepoImpl reads and writes the manifest and diff results as indented JSON.
type ReportRepoImpl struct {
	artifacts repository.ArtifactRepository
}

// NewReportRepo creates a new instance of ReportRepoImpl.
func NewReportRepo(artifacts repository.ArtifactRepository) *ReportRepoImpl {
	return &ReportRepoImpl{artifacts: artifacts}
}

func (r *ReportRepoImpl) SaveReport(_ context.Context, report *entity.Report) error {
	return r.writeJSON(ReportFile, report)
}

func (r *ReportRepoImpl) LoadReport(_ context.Context) (*entity.Report, error) {
	var report entity.Report
	if err := r.readJSON(ReportFile, &report); err != nil {
		return nil, err
	}
	if report.TargetURL == "" {
		return nil, fmt.Errorf("decode %s: missing target_url", ReportFile)
	}
	return &report, nil
}

func (r *ReportRepoImpl) SaveDiffResults(_ context.Context, results *entity.DiffResults) error {
	return r.writeJSON(DiffResultsFile, results)
}

func (r *ReportRepoImpl) LoadDiffResults(_ context.Context) (*entity.DiffResults, error) {
	var results entity.DiffResults
	if err := r.readJSON(DiffResultsFile, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

func (r *ReportRepoImpl) writeJSON(rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", rel, err)
	}
	return r.artifacts.Write(rel, data)
}

func (r *ReportRepoImpl) readJSON(rel string, v any) error {
	data, err := r.artifacts.Read(rel)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", rel, repository.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", rel, err)
	}
	return nil
}

// RenderDiffReport writes diff-report.html.
func (r *ReportRepoImpl) RenderDiffReport(_ context.Context, targetURL string, results *entity.DiffResults) error {
	return WriteDiffReport(r.artifacts, targetURL, results)
}
