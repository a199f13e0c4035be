package app

import (
	"context"
	"fmt"

	"sheetsort/domain/core"
	"sheetsort/domain/distribution"
	"sheetsort/domain/table"
	"sheetsort/domain/workbook"
	"sheetsort/internal"
	apperrors "sheetsort/internal/errors"
	"sheetsort/internal/profiles"
	"sheetsort/internal/session"
	"sheetsort/ports"
)

// DistributionService runs the distributor on stored workbooks and persists
// the merged result
type DistributionService struct {
	workbooks   ports.WorkbookRepository
	backups     *BackupService
	profiles    *profiles.Registry
	locker      *session.Locker
	autoBackup  bool
	defaultName string
	logger      *internal.Logger
}

// DistributionResult is returned after a successful run
type DistributionResult struct {
	Profile  string              `json:"profile"`
	Report   distribution.Report `json:"report"`
	Sheets   []string            `json:"sheets"`
	BackupID core.ID             `json:"backup_id,omitempty"`
}

// Message is the one-line summary of the run
func (r *DistributionResult) Message() string {
	return r.Report.Message()
}

// NewSheets lists the sheets this run created
func (r *DistributionResult) NewSheets() []string {
	var names []string
	for _, s := range r.Report.Sheets {
		if s.Created {
			names = append(names, s.Name)
		}
	}
	return names
}

// NewDistributionService creates a distribution service. backups may be nil
// when automatic backups are disabled.
func NewDistributionService(workbooks ports.WorkbookRepository, backups *BackupService, registry *profiles.Registry, locker *session.Locker, autoBackup bool, defaultProfile string) *DistributionService {
	return &DistributionService{
		workbooks:   workbooks,
		backups:     backups,
		profiles:    registry,
		locker:      locker,
		autoBackup:  autoBackup && backups != nil,
		defaultName: defaultProfile,
		logger:      internal.DefaultLogger.With("Distribution"),
	}
}

// Distribute distributes the source sheet of the active workbook by its
// group key and merges the result into the stored sheets. A failed run
// persists nothing.
func (s *DistributionService) Distribute(ctx context.Context, sc session.Context, profile string) (*DistributionResult, error) {
	if err := requireWorkbook(sc); err != nil {
		return nil, err
	}
	if profile == "" {
		profile = s.defaultName
	}
	cfg, err := s.profiles.Get(profile)
	if err != nil {
		return nil, &apperrors.AppError{
			Code:    apperrors.CodeInvalidInput,
			Message: fmt.Sprintf("Unbekanntes Profil: %s", profile),
			Cause:   err,
		}
	}

	release, err := s.locker.Lock(ctx, sc.WorkbookID)
	if err != nil {
		return nil, classify(err, msgSaveFailed)
	}
	defer release()

	sheets, err := s.workbooks.LoadSheets(ctx, sc.WorkbookID)
	if err != nil {
		return nil, classify(err, msgLoadFailed)
	}
	source, ok := cfg.SelectSource(sheets)
	if !ok || source.Len() == 0 {
		return nil, &apperrors.AppError{
			Code:    apperrors.CodeInvalidInput,
			Message: msgNoSortData,
			Cause:   fmt.Errorf("%w: source sheet %q", core.ErrSheetNotFound, cfg.SourceSheet),
		}
	}

	out := distribution.NewDistributor(cfg).Apply(source, sheets)
	if out.Failed() {
		s.logger.Warn("distribution of %s (%s) rejected: %v", source.Name, sc.WorkbookID, out.Err)
		return nil, apperrors.DistributionFailed(out.Err)
	}
	for _, w := range out.Report.Warnings {
		s.logger.Warn("%s", w.String())
	}

	if err := s.persist(ctx, sc.WorkbookID, out); err != nil {
		return nil, err
	}

	result := &DistributionResult{
		Profile: cfg.Name,
		Report:  out.Report,
		Sheets:  out.Tables.Names(),
	}

	if s.autoBackup {
		backup, err := s.backups.snapshot(ctx, sc.WorkbookID, workbook.BackupAuto, out.Tables)
		if err != nil {
			// the distribution is already stored
			s.logger.Error("automatic backup of %s failed: %v", sc.WorkbookID, err)
		} else {
			result.BackupID = backup.ID
		}
	}

	s.logger.Info("%s: %s", sc.WorkbookID, out.Report.Message())
	return result, nil
}

// persist saves the tables this run touched and refreshes the metadata
func (s *DistributionService) persist(ctx context.Context, id core.ID, out *distribution.Outcome) error {
	var changed []*table.Table
	for _, summary := range out.Report.Sheets {
		t, ok := out.Tables.Get(summary.Name)
		if !ok {
			return apperrors.InternalError(fmt.Sprintf("merged sheet %q missing from result", summary.Name))
		}
		changed = append(changed, t)
	}
	if len(changed) == 0 {
		return nil
	}

	if err := s.workbooks.SaveSheets(ctx, id, changed...); err != nil {
		return classify(err, msgSaveFailed)
	}
	return updateSheetMetadata(ctx, s.workbooks, id)
}
