// Package reports aggregates completed visits into revenue summaries for the
// dashboard. Pure aggregation over the visits table; fees come from config.
package reports

import (
	"context"
	"fmt"
	"time"
)

type Repository interface {
	// CountCompletedByType groups completed visits in [from, to) by visit type.
	CountCompletedByType(ctx context.Context, from, to time.Time) (map[string]int, error)
}

type Fees struct {
	Consultation float64
	Examination  float64
}

type Summary struct {
	Start               time.Time
	End                 time.Time
	ConsultationCount   int
	ExaminationCount    int
	ConsultationFee     float64
	ExaminationFee      float64
	ConsultationRevenue float64
	ExaminationRevenue  float64
	TotalRevenue        float64
}

type Report struct {
	Daily   Summary
	Weekly  Summary
	Monthly Summary
}

type Service struct {
	repo      Repository
	fees      Fees
	weekStart int // 0=Sunday..6=Saturday
	now       func() time.Time
}

func NewService(repo Repository, fees Fees, weekStart int) *Service {
	return &Service{
		repo:      repo,
		fees:      fees,
		weekStart: weekStart,
		now:       time.Now,
	}
}

// Revenue builds today's, this week's and this month's summaries.
func (s *Service) Revenue(ctx context.Context) (*Report, error) {
	now := s.now()
	dayStart := startOfDay(now)

	daily, err := s.buildSummary(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	weekStart := startOfWeek(now, s.weekStart)
	weekly, err := s.buildSummary(ctx, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, err
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthly, err := s.buildSummary(ctx, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	return &Report{Daily: *daily, Weekly: *weekly, Monthly: *monthly}, nil
}

func (s *Service) buildSummary(ctx context.Context, from, to time.Time) (*Summary, error) {
	counts, err := s.repo.CountCompletedByType(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count completed visits: %w", err)
	}

	consultations := counts["consultation"]
	examinations := counts["examination"]

	sum := Summary{
		Start:               from,
		End:                 to,
		ConsultationCount:   consultations,
		ExaminationCount:    examinations,
		ConsultationFee:     s.fees.Consultation,
		ExaminationFee:      s.fees.Examination,
		ConsultationRevenue: float64(consultations) * s.fees.Consultation,
		ExaminationRevenue:  float64(examinations) * s.fees.Examination,
	}
	sum.TotalRevenue = sum.ConsultationRevenue + sum.ExaminationRevenue

	return &sum, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time, weekStart int) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) - weekStart + 7) % 7
	return day.AddDate(0, 0, -offset)
}
