package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"classroom/internal/core"
	"classroom/internal/log"
	"classroom/internal/storage"
)

// BoardStore keeps announcements and the agenda. Neither feeds the ledger.
type BoardStore struct {
	mu            sync.Mutex
	announcements document[[]core.Announcement]
	agenda        document[[]core.AgendaItem]
	newID         func() string
}

func NewBoardStore(kv storage.KV, logger *log.Logger) *BoardStore {
	return &BoardStore{
		announcements: document[[]core.Announcement]{kv: kv, key: storage.KeyAnnouncements, logger: logger},
		agenda:        document[[]core.AgendaItem]{kv: kv, key: storage.KeyAgenda, logger: logger},
		newID:         uuid.NewString,
	}
}

// ListAnnouncements returns announcements newest first.
func (s *BoardStore) ListAnnouncements(ctx context.Context) []core.Announcement {
	s.mu.Lock()
	items := s.announcements.get(ctx)
	s.mu.Unlock()
	if items == nil {
		return []core.Announcement{}
	}
	slices.SortStableFunc(items, func(a, b core.Announcement) int {
		return b.Date.Compare(a.Date)
	})
	return items
}

func (s *BoardStore) AddAnnouncement(ctx context.Context, a core.Announcement) (core.Announcement, error) {
	if strings.TrimSpace(a.Title) == "" {
		return core.Announcement{}, core.ErrEmptyTitle
	}
	if a.ID == "" {
		a.ID = s.newID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.announcements.load(ctx)
	if err != nil {
		return core.Announcement{}, err
	}
	if err := s.announcements.save(ctx, append(items, a)); err != nil {
		return core.Announcement{}, err
	}
	return a, nil
}

func (s *BoardStore) DeleteAnnouncement(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.announcements.load(ctx)
	if err != nil {
		return err
	}
	out, removed := without(items, func(a core.Announcement) bool { return a.ID == id })
	if !removed {
		return nil
	}
	return s.announcements.save(ctx, out)
}

// ListAgenda returns agenda items by date, earliest first.
func (s *BoardStore) ListAgenda(ctx context.Context) []core.AgendaItem {
	s.mu.Lock()
	items := s.agenda.get(ctx)
	s.mu.Unlock()
	if items == nil {
		return []core.AgendaItem{}
	}
	slices.SortStableFunc(items, func(a, b core.AgendaItem) int {
		return strings.Compare(string(a.Date), string(b.Date))
	})
	return items
}

func (s *BoardStore) AddAgendaItem(ctx context.Context, item core.AgendaItem) (core.AgendaItem, error) {
	if err := item.Validate(); err != nil {
		return core.AgendaItem{}, err
	}
	if item.ID == "" {
		item.ID = s.newID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.agenda.load(ctx)
	if err != nil {
		return core.AgendaItem{}, err
	}
	if err := s.agenda.save(ctx, append(items, item)); err != nil {
		return core.AgendaItem{}, err
	}
	return item, nil
}

func (s *BoardStore) DeleteAgendaItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.agenda.load(ctx)
	if err != nil {
		return err
	}
	out, removed := without(items, func(a core.AgendaItem) bool { return a.ID == id })
	if !removed {
		return nil
	}
	return s.agenda.save(ctx, out)
}
