package store

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"classroom/internal/core"
	"classroom/internal/log"
	"classroom/internal/storage"
)

// settingsRecord is the stored shape. Pointer and empty values mark fields
// that were never saved so Get can fill them from the defaults.
type settingsRecord struct {
	DailyQuota     *decimal.Decimal                      `json:"dailyQuota,omitempty"`
	CurrencySymbol string                                `json:"currencySymbol,omitempty"`
	CustomQuotas   map[core.CalendarDate]decimal.Decimal `json:"customQuotas,omitempty"`
	CollectionDays map[core.CalendarDate]bool            `json:"collectionDays,omitempty"`
}

func (r *settingsRecord) merged() core.Settings {
	s := core.DefaultSettings()
	if r == nil {
		return s
	}
	if r.DailyQuota != nil {
		s.DailyQuota = *r.DailyQuota
	}
	if strings.TrimSpace(r.CurrencySymbol) != "" {
		s.CurrencySymbol = r.CurrencySymbol
	}
	for d, q := range r.CustomQuotas {
		s.CustomQuotas[d] = q
	}
	for d, active := range r.CollectionDays {
		s.CollectionDays[d] = active
	}
	return s
}

func recordOf(s core.Settings) *settingsRecord {
	q := s.DailyQuota
	return &settingsRecord{
		DailyQuota:     &q,
		CurrencySymbol: s.CurrencySymbol,
		CustomQuotas:   s.CustomQuotas,
		CollectionDays: s.CollectionDays,
	}
}

type SettingsStore struct {
	mu  sync.Mutex
	doc document[*settingsRecord]
}

func NewSettingsStore(kv storage.KV, logger *log.Logger) *SettingsStore {
	return &SettingsStore{doc: document[*settingsRecord]{kv: kv, key: storage.KeySettings, logger: logger}}
}

// Get returns the stored settings merged over the defaults. It never fails:
// an unreadable record yields the defaults.
func (s *SettingsStore) Get(ctx context.Context) core.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.get(ctx).merged()
}

// Save replaces the whole record.
func (s *SettingsStore) Save(ctx context.Context, settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.save(ctx, recordOf(settings))
}

// Update applies fn to the current settings and saves the result.
func (s *SettingsStore) Update(ctx context.Context, fn func(*core.Settings)) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.doc.load(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	settings := rec.merged()
	fn(&settings)
	if err := s.doc.save(ctx, recordOf(settings)); err != nil {
		return core.Settings{}, err
	}
	return settings, nil
}

// SetCollectionDay marks date active or inactive. Inactive dates are stored
// as false rather than removed.
func (s *SettingsStore) SetCollectionDay(ctx context.Context, date core.CalendarDate, active bool) (core.Settings, error) {
	return s.Update(ctx, func(st *core.Settings) {
		st.CollectionDays[date] = active
	})
}

func (s *SettingsStore) SetCustomQuota(ctx context.Context, date core.CalendarDate, amount decimal.Decimal) (core.Settings, error) {
	return s.Update(ctx, func(st *core.Settings) {
		st.CustomQuotas[date] = amount
	})
}

func (s *SettingsStore) ClearCustomQuota(ctx context.Context, date core.CalendarDate) (core.Settings, error) {
	return s.Update(ctx, func(st *core.Settings) {
		delete(st.CustomQuotas, date)
	})
}
