package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/message-router/internal/domain"
	"github.com/spec-kit/message-router/internal/repository"
)

// Scoring policy constants. The weights encode a deliberate business
// policy; behavioral compatibility requires keeping them exactly as-is.
const (
	keywordScoreCap       = 50.0
	workloadScoreCap      = 30.0
	shiftScoreCap         = 20.0
	keywordPriorityWeight = 10.0

	// Workload fallbacks: a period row without a usable target scores a
	// flat mid-value; no row at all scores higher to bias initial
	// traffic toward staff with no KPI history yet.
	workloadScoreNoTarget = 15.0
	workloadScoreNoRecord = 20.0

	// A shift scheduled today but outside its window still counts a
	// little: the member is nominally on duty today.
	shiftScoreOffWindow = 5.0
)

// StaffScorer computes a 0-100 suitability score per candidate from
// keyword affinity, workload headroom and shift presence. Workload and
// shift state are read fresh from the store on every call; nothing is
// memoized across messages.
type StaffScorer struct {
	workloads repository.WorkloadRepository
	shifts    repository.ShiftRepository
	metric    string
	now       func() time.Time
}

// NewStaffScorer builds a scorer over the workload ledger and shift
// registry.
func NewStaffScorer(workloads repository.WorkloadRepository, shifts repository.ShiftRepository) *StaffScorer {
	return &StaffScorer{
		workloads: workloads,
		shifts:    shifts,
		metric:    domain.MetricMessagesHandled,
		now:       time.Now,
	}
}

// WithClock overrides the scorer's clock.
func (s *StaffScorer) WithClock(now func() time.Time) *StaffScorer {
	s.now = now
	return s
}

// Score computes the composite score for one candidate.
func (s *StaffScorer) Score(ctx context.Context, staff *domain.StaffMember, matched []domain.Keyword) (float64, error) {
	now := s.now()

	score := KeywordAffinityScore(staff, matched)

	workload, err := s.workloadScore(ctx, staff.ID, now)
	if err != nil {
		return 0, err
	}
	score += workload

	shift, err := s.shiftScore(ctx, staff.ID, now)
	if err != nil {
		return 0, err
	}
	score += shift

	return score, nil
}

// Best scores every candidate and returns the winner with its score.
// Strictly higher wins; ties resolve to the first candidate in input
// order, and an all-zero pool still elects its first member — a zero score
// is a valid outcome, not an absence of candidates.
func (s *StaffScorer) Best(ctx context.Context, candidates []domain.StaffMember, matched []domain.Keyword) (*domain.StaffMember, float64, error) {
	bestIdx := -1
	bestScore := 0.0
	for i := range candidates {
		score, err := s.Score(ctx, &candidates[i], matched)
		if err != nil {
			return nil, 0, err
		}
		if bestIdx == -1 || score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}
	if bestIdx == -1 {
		return nil, 0, nil
	}
	return &candidates[bestIdx], bestScore, nil
}

// KeywordAffinityScore sums priority*weight over matched keywords owned by
// the candidate's department, capped. Keywords from other departments
// contribute nothing: the sub-score rewards departmental ownership, not raw
// match count.
func KeywordAffinityScore(staff *domain.StaffMember, matched []domain.Keyword) float64 {
	if staff.DepartmentID == nil {
		return 0
	}
	total := 0.0
	for _, kw := range matched {
		if kw.DepartmentID == *staff.DepartmentID {
			total += float64(kw.Priority) * keywordPriorityWeight
		}
	}
	if total > keywordScoreCap {
		return keywordScoreCap
	}
	return total
}

func (s *StaffScorer) workloadScore(ctx context.Context, staffID string, now time.Time) (float64, error) {
	period, err := s.workloads.GetCurrent(ctx, staffID, s.metric, now)
	if errors.Is(err, pgx.ErrNoRows) {
		return workloadScoreNoRecord, nil
	}
	if err != nil {
		return 0, err
	}
	return WorkloadScore(period), nil
}

// WorkloadScore converts quota consumption into a sub-score: the less of
// the quota a candidate has used, the higher the value.
func WorkloadScore(period *domain.WorkloadPeriod) float64 {
	if period == nil {
		return workloadScoreNoRecord
	}
	if period.TargetValue == nil || *period.TargetValue <= 0 {
		return workloadScoreNoTarget
	}
	completion := period.CurrentValue / *period.TargetValue * 100
	if completion > 100 {
		completion = 100
	}
	if completion < 0 {
		completion = 0
	}
	return workloadScoreCap * (100 - completion) / 100
}

func (s *StaffScorer) shiftScore(ctx context.Context, staffID string, now time.Time) (float64, error) {
	shift, err := s.shifts.GetScheduledFor(ctx, staffID, now)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return ShiftScore(shift, now), nil
}

// ShiftScore awards the full cap inside the scheduled [start, end) window,
// the off-window value when today's shift exists but now is outside it,
// and zero without a shift.
func ShiftScore(shift *domain.StaffShift, now time.Time) float64 {
	if shift == nil {
		return 0
	}
	if shift.Covers(now) {
		return shiftScoreCap
	}
	return shiftScoreOffWindow
}
