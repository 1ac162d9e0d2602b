package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hie/mpi/internal/mpi"
	"github.com/hie/mpi/internal/platform/cache"
	"github.com/hie/mpi/internal/platform/metrics"
)

// Service orchestrates identity resolution over the patient store: it pulls
// the blocking cohort (cache first, then Postgres), runs the matching engine,
// and maps the selected candidate back to a stored patient.
type Service struct {
	repo        PatientRepository
	matcher     *mpi.Matcher
	cache       *cache.CandidateCache
	metrics     *metrics.Metrics
	parallelism int
}

func NewService(repo PatientRepository, matcher *mpi.Matcher, cc *cache.CandidateCache, m *metrics.Metrics, parallelism int) *Service {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Service{repo: repo, matcher: matcher, cache: cc, metrics: m, parallelism: parallelism}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := mpi.ValidateSubject(p.ToRecord()); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.invalidateCohort(ctx, p)
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if err := mpi.ValidateSubject(p.ToRecord()); err != nil {
		return err
	}
	prev, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	// Demographics may have moved the row between cohorts; drop both.
	s.invalidateCohort(ctx, prev)
	s.invalidateCohort(ctx, p)
	return nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	prev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCohort(ctx, prev)
	return nil
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) invalidateCohort(ctx context.Context, p *Patient) {
	if err := s.cache.Invalidate(ctx, p.DOB, string(p.GenderAtBirth)); err != nil {
		log.Warn().Err(err).Msg("candidate cache invalidation failed")
	}
}

// MatchResult is the outcome of resolving a subject against the store.
type MatchResult struct {
	// MatchedPatientID is set when exactly the selected candidate maps to a
	// stored row; nil when nothing matched.
	MatchedPatientID *uuid.UUID    `json:"matched_patient_id,omitempty"`
	Ambiguous        bool          `json:"ambiguous"`
	CandidateCount   int           `json:"candidate_count"`
	Verdicts         []mpi.Verdict `json:"verdicts,omitempty"`
}

// MatchPatient resolves a subject record against the blocking cohort sharing
// its DOB and birth gender.
func (s *Service) MatchPatient(ctx context.Context, subject mpi.Record) (*MatchResult, error) {
	if err := mpi.ValidateSubject(subject); err != nil {
		return nil, fmt.Errorf("match subject: %w", err)
	}
	candidates, err := s.loadCohort(ctx, subject.DOB, subject.GenderAtBirth)
	if err != nil {
		return nil, err
	}

	records := make([]mpi.Record, len(candidates))
	for i, c := range candidates {
		records[i] = c.Record
	}
	out, err := s.matcher.Match(subject, records)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordOutcome(out)

	result := &MatchResult{
		Ambiguous:      out.Ambiguous,
		CandidateCount: len(candidates),
		Verdicts:       out.Verdicts,
	}
	if out.Selected >= 0 {
		id := candidates[out.Selected].ID
		result.MatchedPatientID = &id
	}
	return result, nil
}

func (s *Service) loadCohort(ctx context.Context, dob string, gender mpi.Gender) ([]cache.Candidate, error) {
	cached, hit, err := s.cache.Get(ctx, dob, string(gender))
	if err != nil {
		log.Warn().Err(err).Msg("candidate cache read failed, falling back to store")
	}
	if hit {
		return cached, nil
	}

	patients, err := s.repo.FindCandidates(ctx, dob, gender)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	candidates := make([]cache.Candidate, len(patients))
	for i, p := range patients {
		candidates[i] = cache.Candidate{ID: p.ID, Record: p.ToRecord()}
	}
	if err := s.cache.Put(ctx, dob, string(gender), candidates); err != nil {
		log.Warn().Err(err).Msg("candidate cache write failed")
	}
	return candidates, nil
}

// RematchReport summarizes a bulk re-resolution pass over the store.
type RematchReport struct {
	Processed int `json:"processed"`
	Matched   int `json:"matched"`
	Ambiguous int `json:"ambiguous"`
}

const rematchPageSize = 200

// RematchAll re-resolves every stored patient against its cohort, excluding
// each subject from its own candidate set. Used after threshold or rule
// changes to surface newly ambiguous identities.
func (s *Service) RematchAll(ctx context.Context) (*RematchReport, error) {
	report := &RematchReport{}
	for offset := 0; ; offset += rematchPageSize {
		page, _, err := s.repo.List(ctx, rematchPageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return report, nil
		}

		items := make([]mpi.BatchItem, 0, len(page))
		ids := make([][]uuid.UUID, 0, len(page))
		for _, p := range page {
			cohort, err := s.loadCohort(ctx, p.DOB, p.GenderAtBirth)
			if err != nil {
				return nil, err
			}
			var records []mpi.Record
			var cohortIDs []uuid.UUID
			for _, c := range cohort {
				if c.ID == p.ID {
					continue
				}
				records = append(records, c.Record)
				cohortIDs = append(cohortIDs, c.ID)
			}
			items = append(items, mpi.BatchItem{Subject: p.ToRecord(), Candidates: records})
			ids = append(ids, cohortIDs)
		}

		outcomes, err := s.matcher.MatchBatch(ctx, items, s.parallelism)
		if err != nil {
			return nil, err
		}
		for i, out := range outcomes {
			s.metrics.RecordOutcome(out)
			report.Processed++
			if out.Selected >= 0 {
				report.Matched++
				log.Info().
					Str("patient_id", page[i].ID.String()).
					Str("matched_id", ids[i][out.Selected].String()).
					Bool("ambiguous", out.Ambiguous).
					Msg("rematch linked patient")
			}
			if out.Ambiguous {
				report.Ambiguous++
			}
		}
	}
}
