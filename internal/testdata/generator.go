package testdata

import (
	"math/rand"
	"time"

	"github.com/lucasvrm/bipolar-api-sub002/internal/apperr"
	"github.com/lucasvrm/bipolar-api-sub002/internal/model"
)

// Check-in entry timestamps are placed between these hours of the day.
const (
	entryWindowStartHour = 8
	entryWindowEndHour   = 22
)

// GeneratorSpec describes one synthetic check-in series for one patient.
type GeneratorSpec struct {
	PatientID string
	// Start is the first calendar day of the series (normalized to UTC
	// midnight). Days is the number of consecutive days to cover; zero
	// days yields an empty sequence.
	Start time.Time
	Days  int
	// Per-day check-in count, drawn uniformly from [PerDayMin, PerDayMax].
	PerDayMin int
	PerDayMax int
	Pattern   Pattern
	// PhaseLengthDays applies to the cycling pattern only.
	PhaseLengthDays int
	// Seed makes the sequence reproducible. Without a seed the output is
	// non-reproducible by design.
	Seed *int64
}

// DaysInRange converts a [start, end) date range into a day count.
// end == start means zero days; end before start is invalid.
func DaysInRange(start, end time.Time) (int, error) {
	start = dayStart(start)
	end = dayStart(end)
	if end.Before(start) {
		return 0, apperr.NewValidation("date_range", "end date before start date")
	}
	return int(end.Sub(start).Hours() / 24), nil
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s GeneratorSpec) validate() error {
	if _, err := ParsePattern(string(s.Pattern)); err != nil {
		return err
	}
	if s.Days < 0 {
		return apperr.NewValidation("days", "negative day count")
	}
	if s.PerDayMin < 0 {
		return apperr.NewValidation("checkins_per_day_min", "negative per-day count")
	}
	if s.PerDayMax < s.PerDayMin {
		return apperr.NewValidation("checkins_per_day_max", "max below min")
	}
	return nil
}

// Sequence lazily yields the check-ins of one GeneratorSpec, one day cluster
// at a time. It is finite and restartable: Reset replays the identical
// series when the spec was seeded, and replays this sequence's own entropy
// draw otherwise.
type Sequence struct {
	spec    GeneratorSpec
	seed    int64
	rng     *rand.Rand
	day     int
	pending []model.CheckIn
}

// NewSequence validates the spec and prepares a sequence. No check-in is
// produced until Next is called.
func NewSequence(spec GeneratorSpec) (*Sequence, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	spec.Start = dayStart(spec.Start)
	if spec.PhaseLengthDays <= 0 {
		spec.PhaseLengthDays = DefaultPhaseLengthDays
	}
	seed := time.Now().UnixNano()
	if spec.Seed != nil {
		seed = *spec.Seed
	}
	s := &Sequence{spec: spec, seed: seed}
	s.Reset()
	return s, nil
}

// Reset restarts the sequence from its first day.
func (s *Sequence) Reset() {
	s.rng = rand.New(rand.NewSource(s.seed))
	s.day = 0
	s.pending = nil
}

// Next returns the next check-in of the series. The second return value is
// false once the series is exhausted.
func (s *Sequence) Next() (model.CheckIn, bool) {
	for len(s.pending) == 0 {
		if s.day >= s.spec.Days {
			return model.CheckIn{}, false
		}
		s.pending = s.generateDay(s.day)
		s.day++
	}
	ci := s.pending[0]
	s.pending = s.pending[1:]
	return ci, true
}

// Collect drains the remaining sequence into a slice.
func (s *Sequence) Collect() []model.CheckIn {
	var out []model.CheckIn
	for {
		ci, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, ci)
	}
}

func (s *Sequence) generateDay(day int) []model.CheckIn {
	params := patternDispatch[s.spec.Pattern](day, s.spec.PhaseLengthDays)

	count := s.spec.PerDayMin
	if s.spec.PerDayMax > s.spec.PerDayMin {
		count += s.rng.Intn(s.spec.PerDayMax - s.spec.PerDayMin + 1)
	}
	if count == 0 {
		return nil
	}

	date := s.spec.Start.AddDate(0, 0, day)

	// One slot per check-in across the entry window; jitter stays inside
	// the slot so timestamps never collide.
	window := time.Duration(entryWindowEndHour-entryWindowStartHour) * time.Hour
	slot := window / time.Duration(count)

	out := make([]model.CheckIn, 0, count)
	for i := 0; i < count; i++ {
		jitter := time.Duration(0)
		if slot > time.Minute {
			jitter = time.Duration(s.rng.Int63n(int64(slot - time.Minute)))
		}
		entryAt := date.Add(time.Duration(entryWindowStartHour)*time.Hour +
			time.Duration(i)*slot + jitter)

		out = append(out, model.CheckIn{
			PatientID:     s.spec.PatientID,
			Date:          date,
			EntryAt:       entryAt,
			SleepHours:    params.sleepHours.draw(s.rng),
			SleepQuality:  params.sleepQuality.draw(s.rng),
			MoodScore:     params.mood.draw(s.rng),
			EnergyLevel:   params.energy.draw(s.rng),
			Anxiety:       params.anxiety.draw(s.rng),
			Irritability:  params.irritability.draw(s.rng),
			RiskyBehavior: params.risky.draw(s.rng),
			RoutineScore:  params.routine.draw(s.rng),
			Appetite:      params.appetite.draw(s.rng),
			Impulsivity:   params.impulsivity.draw(s.rng),
			MedsTaken:     s.rng.Float64() < params.medsProb,
		})
	}
	return out
}
