package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lucasvrm/bipolar-api-sub002/internal/model"
)

// MemoryStore is the in-memory Store used when the database is disabled
// (local development) and by the unit tests. Semantics mirror the GORM
// implementation: id/timestamp defaulting on create, uniqueness of profile
// emails and of the patient side of therapist links.
type MemoryStore struct {
	mu   sync.RWMutex
	data *memData
}

var _ Store = (*MemoryStore)(nil)

type memData struct {
	profiles map[string]model.Profile
	checkIns map[string]model.CheckIn
	notes    map[string]model.ClinicalNote
	plans    map[string]model.CrisisPlan
	links    map[string]model.TherapistPatient
	audits   []model.AuditLog
}

func newMemData() *memData {
	return &memData{
		profiles: map[string]model.Profile{},
		checkIns: map[string]model.CheckIn{},
		notes:    map[string]model.ClinicalNote{},
		plans:    map[string]model.CrisisPlan{},
		links:    map[string]model.TherapistPatient{},
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.checkIns {
		c.checkIns[k] = v
	}
	for k, v := range d.notes {
		c.notes[k] = v
	}
	for k, v := range d.plans {
		c.plans[k] = v
	}
	for k, v := range d.links {
		c.links[k] = v
	}
	c.audits = append([]model.AuditLog(nil), d.audits...)
	return c
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData()}
}

// WithTx runs fn against a copy of the data and commits the copy only when
// fn succeeds, so a failed transaction leaves no partial writes.
func (s *MemoryStore) WithTx(_ context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	child := &MemoryStore{data: s.data.clone()}
	if err := fn(child); err != nil {
		return err
	}
	s.data = child.data
	return nil
}

// Profiles

func (s *MemoryStore) CreateProfile(_ context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := s.data.profiles[p.ID]; ok {
		return fmt.Errorf("profile %s already exists", p.ID)
	}
	if p.Email != "" {
		for _, other := range s.data.profiles {
			if other.Email == p.Email {
				return fmt.Errorf("duplicate email %s", p.Email)
			}
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = p.CreatedAt
	s.data.profiles[p.ID] = *p
	return nil
}

func (s *MemoryStore) liveTestPatients() []model.Profile {
	var out []model.Profile
	for _, p := range s.data.profiles {
		if p.IsTestPatient && p.DeletedAt == nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) TestPatients(_ context.Context, before *time.Time, limit int) ([]model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.liveTestPatients()
	out := make([]model.Profile, 0, len(all))
	for _, p := range all {
		if before != nil && !p.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) TestPatientIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.liveTestPatients()
	ids := make([]string, 0, len(all))
	for _, p := range all {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (s *MemoryStore) CountTestProfiles(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.data.profiles {
		if p.IsTestPatient {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) FindTherapist(_ context.Context) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []model.Profile
	for _, p := range s.data.profiles {
		if p.Role == model.RoleTherapist && p.DeletedAt == nil {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	return &candidates[0], nil
}

func (s *MemoryStore) HardDeleteProfiles(_ context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, id := range ids {
		if _, ok := s.data.profiles[id]; ok {
			delete(s.data.profiles, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteAllTestProfiles(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, p := range s.data.profiles {
		if p.IsTestPatient {
			delete(s.data.profiles, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountSoftDeletableProfiles(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.data.profiles {
		if !p.IsTestPatient && p.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) SoftDeleteProfiles(_ context.Context, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, p := range s.data.profiles {
		if p.IsTestPatient || p.DeletedAt != nil {
			continue
		}
		t := at
		p.DeletedAt = &t
		p.DeletionScheduledAt = &t
		p.UpdatedAt = at
		s.data.profiles[id] = p
		n++
	}
	return n, nil
}

// Therapist-patient links

func (s *MemoryStore) CreateTherapistPatient(_ context.Context, link *model.TherapistPatient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	for _, other := range s.data.links {
		if other.PatientID == link.PatientID {
			return fmt.Errorf("patient %s already has a therapist", link.PatientID)
		}
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	s.data.links[link.ID] = *link
	return nil
}

func (s *MemoryStore) HasTherapist(_ context.Context, patientID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.data.links {
		if l.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s *MemoryStore) CountLinksFor(_ context.Context, profileIDs []string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := idSet(profileIDs)
	var n int64
	for _, l := range s.data.links {
		if _, ok := set[l.TherapistID]; ok {
			n++
			continue
		}
		if _, ok := set[l.PatientID]; ok {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteLinksFor(_ context.Context, profileIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := idSet(profileIDs)
	var n int64
	for id, l := range s.data.links {
		_, th := set[l.TherapistID]
		_, pa := set[l.PatientID]
		if th || pa {
			delete(s.data.links, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountAllLinks(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data.links)), nil
}

func (s *MemoryStore) DeleteAllLinks(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.data.links))
	s.data.links = map[string]model.TherapistPatient{}
	return n, nil
}

// Clinical notes

func (s *MemoryStore) CountNotesFor(_ context.Context, profileIDs []string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := idSet(profileIDs)
	var n int64
	for _, note := range s.data.notes {
		_, th := set[note.TherapistID]
		_, pa := set[note.PatientID]
		if th || pa {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteNotesFor(_ context.Context, profileIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := idSet(profileIDs)
	var n int64
	for id, note := range s.data.notes {
		_, th := set[note.TherapistID]
		_, pa := set[note.PatientID]
		if th || pa {
			delete(s.data.notes, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountAllNotes(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data.notes)), nil
}

func (s *MemoryStore) DeleteAllNotes(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.data.notes))
	s.data.notes = map[string]model.ClinicalNote{}
	return n, nil
}

// CreateNote inserts a clinical note. Only the in-memory store needs a
// creation path for notes and plans (test fixtures and DB-disabled mode);
// real note authoring lives in another service.
func (s *MemoryStore) CreateNote(note *model.ClinicalNote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}
	s.data.notes[note.ID] = *note
}

// CreateCrisisPlan inserts a crisis plan, replacing any existing plan for
// the same patient (unique ownership).
func (s *MemoryStore) CreateCrisisPlan(plan *model.CrisisPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	for id, other := range s.data.plans {
		if other.PatientID == plan.PatientID {
			delete(s.data.plans, id)
		}
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}
	s.data.plans[plan.ID] = *plan
}

// Check-ins

func (s *MemoryStore) CreateCheckIns(_ context.Context, rows []model.CheckIn) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = time.Now()
		}
		s.data.checkIns[rows[i].ID] = rows[i]
	}
	return int64(len(rows)), nil
}

func (s *MemoryStore) CountCheckInsFor(_ context.Context, profileIDs []string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := idSet(profileIDs)
	var n int64
	for _, ci := range s.data.checkIns {
		if _, ok := set[ci.PatientID]; ok {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteCheckInsFor(_ context.Context, profileIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := idSet(profileIDs)
	var n int64
	for id, ci := range s.data.checkIns {
		if _, ok := set[ci.PatientID]; ok {
			delete(s.data.checkIns, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountAllCheckIns(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data.checkIns)), nil
}

func (s *MemoryStore) DeleteAllCheckIns(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.data.checkIns))
	s.data.checkIns = map[string]model.CheckIn{}
	return n, nil
}

// Crisis plans

func (s *MemoryStore) CountCrisisPlansFor(_ context.Context, profileIDs []string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := idSet(profileIDs)
	var n int64
	for _, p := range s.data.plans {
		if _, ok := set[p.PatientID]; ok {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteCrisisPlansFor(_ context.Context, profileIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := idSet(profileIDs)
	var n int64
	for id, p := range s.data.plans {
		if _, ok := set[p.PatientID]; ok {
			delete(s.data.plans, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountAllCrisisPlans(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data.plans)), nil
}

func (s *MemoryStore) DeleteAllCrisisPlans(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.data.plans))
	s.data.plans = map[string]model.CrisisPlan{}
	return n, nil
}

// Audit log

func (s *MemoryStore) CreateAuditLog(_ context.Context, entry *model.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.data.audits = append(s.data.audits, *entry)
	return nil
}

func (s *MemoryStore) CountAuditLogs(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data.audits)), nil
}

func (s *MemoryStore) DeleteAllAuditLogs(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.data.audits))
	s.data.audits = nil
	return n, nil
}

// AuditLogs returns a copy of the audit entries in append order.
func (s *MemoryStore) AuditLogs() []model.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.AuditLog(nil), s.data.audits...)
}

// Profile returns the profile with the given id, if present.
func (s *MemoryStore) Profile(id string) (model.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.data.profiles[id]
	return p, ok
}

// Profiles returns a copy of every profile row.
func (s *MemoryStore) Profiles() []model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Profile, 0, len(s.data.profiles))
	for _, p := range s.data.profiles {
		out = append(out, p)
	}
	return out
}
