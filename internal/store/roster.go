package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"classroom/internal/core"
	"classroom/internal/log"
	"classroom/internal/storage"
)

// RosterStore holds the students in insertion order together with their
// payment maps.
type RosterStore struct {
	mu     sync.Mutex
	doc    document[[]core.Student]
	newID  func() string
	logger *log.Logger
}

func NewRosterStore(kv storage.KV, logger *log.Logger) *RosterStore {
	return &RosterStore{
		doc:    document[[]core.Student]{kv: kv, key: storage.KeyStudents, logger: logger},
		newID:  uuid.NewString,
		logger: logger,
	}
}

// List returns every student. An unreadable roster is reported as empty.
func (s *RosterStore) List(ctx context.Context) []core.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return normalizeStudents(s.doc.get(ctx))
}

func normalizeStudents(students []core.Student) []core.Student {
	if students == nil {
		return []core.Student{}
	}
	for i := range students {
		if students[i].Payments == nil {
			students[i].Payments = map[core.CalendarDate]decimal.Decimal{}
		}
	}
	return students
}

func (s *RosterStore) Add(ctx context.Context, name string, gender core.Gender) (core.Student, error) {
	added, err := s.add(ctx, []core.StudentGuess{{Name: name, Gender: gender}})
	if err != nil {
		return core.Student{}, err
	}
	return added[0], nil
}

// AddMany appends every guess in one write and returns how many were added.
func (s *RosterStore) AddMany(ctx context.Context, guesses []core.StudentGuess) (int, error) {
	if len(guesses) == 0 {
		return 0, nil
	}
	added, err := s.add(ctx, guesses)
	return len(added), err
}

func (s *RosterStore) add(ctx context.Context, guesses []core.StudentGuess) ([]core.Student, error) {
	added := make([]core.Student, 0, len(guesses))
	for _, g := range guesses {
		g.Name = strings.TrimSpace(g.Name)
		if err := g.Validate(); err != nil {
			return nil, err
		}
		added = append(added, core.Student{
			ID:       s.newID(),
			Name:     g.Name,
			Gender:   g.Gender,
			Payments: map[core.CalendarDate]decimal.Decimal{},
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	students, err := s.doc.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.doc.save(ctx, append(students, added...)); err != nil {
		return nil, err
	}
	return added, nil
}

// ImportFromText parses pasted roster text and appends the result.
func (s *RosterStore) ImportFromText(ctx context.Context, text string) (int, error) {
	n, err := s.AddMany(ctx, core.ParseRosterText(text))
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Roster imported", log.FieldOperation, log.OpImport, log.FieldCount, n)
	return n, nil
}

// Delete removes the student and their payments. Unknown ids are ignored.
func (s *RosterStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	students, err := s.doc.load(ctx)
	if err != nil {
		return err
	}
	out, removed := without(students, func(st core.Student) bool { return st.ID == id })
	if !removed {
		return nil
	}
	return s.doc.save(ctx, out)
}

// RecordPayment sets the student's amount for date, replacing any previous
// value. Unknown ids are ignored.
func (s *RosterStore) RecordPayment(ctx context.Context, studentID string, date core.CalendarDate, amount decimal.Decimal) error {
	_, err := s.UpdatePayment(ctx, studentID, date, func(decimal.Decimal, bool) (decimal.Decimal, bool) {
		return amount, true
	})
	return err
}

// UpdatePayment runs fn on the student's current cell under the store lock.
// fn receives the stored amount and whether one exists, and returns the new
// amount and whether to write it. found is false for unknown ids.
func (s *RosterStore) UpdatePayment(ctx context.Context, studentID string, date core.CalendarDate,
	fn func(current decimal.Decimal, set bool) (decimal.Decimal, bool),
) (found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	students, err := s.doc.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range students {
		if students[i].ID != studentID {
			continue
		}
		current, set := students[i].Payments[date]
		next, write := fn(current, set)
		if !write {
			return true, nil
		}
		if students[i].Payments == nil {
			students[i].Payments = map[core.CalendarDate]decimal.Decimal{}
		}
		students[i].Payments[date] = next
		return true, s.doc.save(ctx, students)
	}
	return false, nil
}

// SetPayments sets every student's amount for date in a single write.
func (s *RosterStore) SetPayments(ctx context.Context, date core.CalendarDate, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	students, err := s.doc.load(ctx)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		return nil
	}
	for i := range students {
		if students[i].Payments == nil {
			students[i].Payments = map[core.CalendarDate]decimal.Decimal{}
		}
		students[i].Payments[date] = amount
	}
	return s.doc.save(ctx, students)
}
