package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"classroom/internal/core"
	"classroom/internal/ledger"
	"classroom/internal/log"
	"classroom/internal/metrics"
	"classroom/internal/storage"
	"classroom/internal/store"
)

// ErrImageImportUnavailable is returned when no roster image reader is
// configured.
var ErrImageImportUnavailable = errors.New("roster image import is not configured")

// ChangePublisher is told about every successful mutation.
type ChangePublisher interface {
	PublishLedgerChanged(ctx context.Context, collection, operation string) error
}

// RosterImageReader extracts roster entries from a photo of a class list.
type RosterImageReader interface {
	ReadRoster(ctx context.Context, image []byte) ([]core.StudentGuess, error)
}

// Overview is everything the dashboard renders, computed from one read of
// each collection.
type Overview struct {
	Settings      core.Settings         `json:"settings"`
	Summary       ledger.Summary        `json:"summary"`
	Grid          ledger.Grid           `json:"grid"`
	TodayColumn   ledger.DayCollection  `json:"todayColumn"`
	Transactions  []core.Transaction    `json:"transactions"`
	Planned       []core.PlannedExpense `json:"plannedExpenses"`
	Announcements []core.Announcement   `json:"announcements"`
	Agenda        []core.AgendaItem     `json:"agenda"`
}

// LedgerService applies officer actions to the stores and recomputes ledger
// aggregates on demand. It caches nothing.
type LedgerService struct {
	stores    *store.Stores
	publisher ChangePublisher
	images    RosterImageReader
	logger    *log.Logger
	now       func() time.Time
}

// NewLedgerService wires the stores with the optional publisher and image
// reader. Pass untyped nil for either to disable it.
func NewLedgerService(stores *store.Stores, publisher ChangePublisher, images RosterImageReader, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		stores:    stores,
		publisher: publisher,
		images:    images,
		logger:    logger.WithComponent(log.ComponentLedger),
		now:       time.Now,
	}
}

func (s *LedgerService) Today() core.CalendarDate {
	return core.DateOf(s.now())
}

func (s *LedgerService) engine(ctx context.Context) *ledger.Engine {
	return ledger.New(s.stores.Settings.Get(ctx), s.Today())
}

// changed records a successful mutation and notifies subscribers. Publish
// failures are logged only; the write already happened.
func (s *LedgerService) changed(ctx context.Context, collection, op string) {
	metrics.Mutations.WithLabelValues(op).Inc()
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerChanged(ctx, collection, op); err != nil {
		metrics.ChangeEventsPublished.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			"collection", collection, log.FieldOperation, op, log.FieldError, err)
		return
	}
	metrics.ChangeEventsPublished.WithLabelValues("ok").Inc()
}

func (s *LedgerService) failed(ctx context.Context, op string, err error) error {
	metrics.MutationErrors.WithLabelValues(op).Inc()
	s.logger.ErrorContext(ctx, "Ledger mutation failed", log.FieldOperation, op, log.FieldError, err)
	return err
}

// TogglePayment flips one ledger cell between zero and the date's quota and
// returns the stored amount. Inactive dates yield core.ErrInactiveDate with
// no write; unknown students are ignored.
func (s *LedgerService) TogglePayment(ctx context.Context, studentID string, date core.CalendarDate) (decimal.Decimal, error) {
	e := s.engine(ctx)
	if !e.IsCollectionActive(date) {
		return decimal.Zero, core.ErrInactiveDate
	}

	var next decimal.Decimal
	found, err := s.stores.Roster.UpdatePayment(ctx, studentID, date, func(current decimal.Decimal, _ bool) (decimal.Decimal, bool) {
		var ok bool
		next, ok = e.ToggleAmount(current, date)
		return next, ok
	})
	if err != nil {
		return decimal.Zero, s.failed(ctx, log.OpToggle, fmt.Errorf("toggle payment: %w", err))
	}
	if !found {
		return decimal.Zero, nil
	}

	s.logger.InfoContext(ctx, "Payment toggled",
		log.NewFields().WithPayment(studentID, date.String(), next.String()).ToSlice()...)
	s.changed(ctx, storage.KeyStudents, log.OpToggle)
	return next, nil
}

// BulkMark sets every student's cell for date to the quota (paid) or zero.
func (s *LedgerService) BulkMark(ctx context.Context, date core.CalendarDate, paid bool) error {
	amount, ok := s.engine(ctx).BulkAmount(date, paid)
	if !ok {
		return core.ErrInactiveDate
	}
	if err := s.stores.Roster.SetPayments(ctx, date, amount); err != nil {
		return s.failed(ctx, log.OpBulkMark, fmt.Errorf("bulk mark: %w", err))
	}
	s.logger.InfoContext(ctx, "Day marked",
		log.NewFields().WithPayment("", date.String(), amount.String()).ToSlice()...)
	s.changed(ctx, storage.KeyStudents, log.OpBulkMark)
	return nil
}

// RecordPayment stores an explicit amount for one cell, replacing the
// previous value. It works on inactive dates too.
func (s *LedgerService) RecordPayment(ctx context.Context, studentID string, date core.CalendarDate, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return core.ErrInvalidAmount
	}
	if err := s.stores.Roster.RecordPayment(ctx, studentID, date, amount); err != nil {
		return s.failed(ctx, log.OpUpdate, fmt.Errorf("record payment: %w", err))
	}
	s.changed(ctx, storage.KeyStudents, log.OpUpdate)
	return nil
}

func (s *LedgerService) Settings(ctx context.Context) core.Settings {
	return s.stores.Settings.Get(ctx)
}

// SaveSettings replaces the daily quota and currency symbol, keeping the
// stored per-date maps unless settings carries its own. Values are stored
// as given; request validation happens at the HTTP layer.
func (s *LedgerService) SaveSettings(ctx context.Context, settings core.Settings) (core.Settings, error) {
	out, err := s.stores.Settings.Update(ctx, func(st *core.Settings) {
		st.DailyQuota = settings.DailyQuota
		if strings.TrimSpace(settings.CurrencySymbol) != "" {
			st.CurrencySymbol = settings.CurrencySymbol
		}
		if settings.CustomQuotas != nil {
			st.CustomQuotas = settings.CustomQuotas
		}
		if settings.CollectionDays != nil {
			st.CollectionDays = settings.CollectionDays
		}
	})
	if err != nil {
		return core.Settings{}, s.failed(ctx, log.OpUpdate, fmt.Errorf("save settings: %w", err))
	}
	s.changed(ctx, storage.KeySettings, log.OpUpdate)
	return out, nil
}

// SetCollectionDay activates or deactivates a date. Payments recorded on a
// date that becomes inactive are kept.
func (s *LedgerService) SetCollectionDay(ctx context.Context, date core.CalendarDate, active bool) (core.Settings, error) {
	out, err := s.stores.Settings.SetCollectionDay(ctx, date, active)
	if err != nil {
		return core.Settings{}, s.failed(ctx, log.OpUpdate, fmt.Errorf("set collection day: %w", err))
	}
	s.changed(ctx, storage.KeySettings, log.OpUpdate)
	return out, nil
}

func (s *LedgerService) SetCustomQuota(ctx context.Context, date core.CalendarDate, amount decimal.Decimal) (core.Settings, error) {
	if amount.IsNegative() {
		return core.Settings{}, core.ErrInvalidAmount
	}
	out, err := s.stores.Settings.SetCustomQuota(ctx, date, amount)
	if err != nil {
		return core.Settings{}, s.failed(ctx, log.OpUpdate, fmt.Errorf("set custom quota: %w", err))
	}
	s.changed(ctx, storage.KeySettings, log.OpUpdate)
	return out, nil
}

func (s *LedgerService) ClearCustomQuota(ctx context.Context, date core.CalendarDate) (core.Settings, error) {
	out, err := s.stores.Settings.ClearCustomQuota(ctx, date)
	if err != nil {
		return core.Settings{}, s.failed(ctx, log.OpUpdate, fmt.Errorf("clear custom quota: %w", err))
	}
	s.changed(ctx, storage.KeySettings, log.OpUpdate)
	return out, nil
}

func (s *LedgerService) Students(ctx context.Context) []core.Student {
	return s.stores.Roster.List(ctx)
}

func (s *LedgerService) AddStudent(ctx context.Context, name string, gender core.Gender) (core.Student, error) {
	st, err := s.stores.Roster.Add(ctx, name, gender)
	if err != nil {
		if IsValidation(err) {
			return core.Student{}, err
		}
		return core.Student{}, s.failed(ctx, log.OpCreate, fmt.Errorf("add student: %w", err))
	}
	s.changed(ctx, storage.KeyStudents, log.OpCreate)
	return st, nil
}

// DeleteStudent drops the student with all their payments.
func (s *LedgerService) DeleteStudent(ctx context.Context, id string) error {
	if err := s.stores.Roster.Delete(ctx, id); err != nil {
		return s.failed(ctx, log.OpDelete, fmt.Errorf("delete student: %w", err))
	}
	s.changed(ctx, storage.KeyStudents, log.OpDelete)
	return nil
}

// ImportRoster appends every student found in text and returns the count.
func (s *LedgerService) ImportRoster(ctx context.Context, text string) (int, error) {
	n, err := s.stores.Roster.ImportFromText(ctx, text)
	if err != nil {
		return 0, s.failed(ctx, log.OpImport, fmt.Errorf("import roster: %w", err))
	}
	if n > 0 {
		s.changed(ctx, storage.KeyStudents, log.OpImport)
	}
	return n, nil
}

// ImportRosterImage reads a class list photo and appends what it finds. An
// unreadable image imports nobody and is not an error.
func (s *LedgerService) ImportRosterImage(ctx context.Context, image []byte) (int, error) {
	if s.images == nil {
		return 0, ErrImageImportUnavailable
	}
	guesses, err := s.images.ReadRoster(ctx, image)
	if err != nil {
		s.logger.WarnContext(ctx, "Roster image could not be read",
			log.FieldOperation, log.OpImport, log.FieldError, err)
		return 0, nil
	}
	n, err := s.stores.Roster.AddMany(ctx, guesses)
	if err != nil {
		return 0, s.failed(ctx, log.OpImport, fmt.Errorf("import roster image: %w", err))
	}
	if n > 0 {
		s.changed(ctx, storage.KeyStudents, log.OpImport)
	}
	return n, nil
}

func (s *LedgerService) Expenses(ctx context.Context) []core.Transaction {
	return s.stores.Expenses.List(ctx)
}

// RecordExpense appends a paid expense dated now.
func (s *LedgerService) RecordExpense(ctx context.Context, amount decimal.Decimal, description, category string) (core.Transaction, error) {
	tx, err := s.stores.Expenses.Append(ctx, core.Transaction{
		Amount:      amount,
		Date:        s.now(),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		Type:        core.TypeExpense,
		Status:      core.StatusPaid,
	})
	if err != nil {
		if IsValidation(err) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, s.failed(ctx, log.OpCreate, fmt.Errorf("record expense: %w", err))
	}
	s.changed(ctx, storage.KeyTransactions, log.OpCreate)
	return tx, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.stores.Expenses.Delete(ctx, id); err != nil {
		return s.failed(ctx, log.OpDelete, fmt.Errorf("delete expense: %w", err))
	}
	s.changed(ctx, storage.KeyTransactions, log.OpDelete)
	return nil
}

func (s *LedgerService) Wishlist(ctx context.Context) []core.PlannedExpense {
	return s.stores.Wishlist.List(ctx)
}

func (s *LedgerService) AddPlannedExpense(ctx context.Context, item string, cost decimal.Decimal, priority core.Priority) (core.PlannedExpense, error) {
	p, err := s.stores.Wishlist.Add(ctx, core.PlannedExpense{
		Item:          strings.TrimSpace(item),
		EstimatedCost: cost,
		Priority:      priority,
	})
	if err != nil {
		if IsValidation(err) {
			return core.PlannedExpense{}, err
		}
		return core.PlannedExpense{}, s.failed(ctx, log.OpCreate, fmt.Errorf("add planned expense: %w", err))
	}
	s.changed(ctx, storage.KeyPlannedExpenses, log.OpCreate)
	return p, nil
}

func (s *LedgerService) DeletePlannedExpense(ctx context.Context, id string) error {
	if err := s.stores.Wishlist.Delete(ctx, id); err != nil {
		return s.failed(ctx, log.OpDelete, fmt.Errorf("delete planned expense: %w", err))
	}
	s.changed(ctx, storage.KeyPlannedExpenses, log.OpDelete)
	return nil
}

// ConvertToExpense turns a planned item into a recorded expense. The expense
// is written first; if that fails the planned item stays. If the planned
// item cannot be removed afterwards the expense is deleted again, so the
// conversion either happens whole or not at all.
func (s *LedgerService) ConvertToExpense(ctx context.Context, plannedID string) (core.Transaction, error) {
	p, err := s.stores.Wishlist.Get(ctx, plannedID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, s.failed(ctx, log.OpConvert, fmt.Errorf("load planned expense: %w", err))
	}

	tx, err := s.stores.Expenses.Append(ctx, core.Transaction{
		Amount:      p.EstimatedCost,
		Date:        s.now(),
		Description: core.TruncateDescription(p.Item),
		Category:    core.CategoryMaterials,
		Type:        core.TypeExpense,
		Status:      core.StatusPaid,
	})
	if err != nil {
		if IsValidation(err) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, s.failed(ctx, log.OpConvert, fmt.Errorf("record converted expense: %w", err))
	}

	if err := s.stores.Wishlist.Delete(ctx, plannedID); err != nil {
		if rerr := s.stores.Expenses.Delete(ctx, tx.ID); rerr != nil {
			s.logger.ErrorContext(ctx, "Converted expense could not be rolled back",
				"planned_id", plannedID, "transaction_id", tx.ID, log.FieldError, rerr)
			s.changed(ctx, storage.KeyTransactions, log.OpConvert)
		}
		return core.Transaction{}, s.failed(ctx, log.OpConvert, fmt.Errorf("remove converted item: %w", err))
	}
	s.changed(ctx, storage.KeyTransactions, log.OpConvert)
	s.changed(ctx, storage.KeyPlannedExpenses, log.OpConvert)
	return tx, nil
}

func (s *LedgerService) Announcements(ctx context.Context) []core.Announcement {
	return s.stores.Board.ListAnnouncements(ctx)
}

func (s *LedgerService) AddAnnouncement(ctx context.Context, a core.Announcement) (core.Announcement, error) {
	if a.Date.IsZero() {
		a.Date = s.now()
	}
	out, err := s.stores.Board.AddAnnouncement(ctx, a)
	if err != nil {
		if IsValidation(err) {
			return core.Announcement{}, err
		}
		return core.Announcement{}, s.failed(ctx, log.OpCreate, fmt.Errorf("add announcement: %w", err))
	}
	s.changed(ctx, storage.KeyAnnouncements, log.OpCreate)
	return out, nil
}

func (s *LedgerService) DeleteAnnouncement(ctx context.Context, id string) error {
	if err := s.stores.Board.DeleteAnnouncement(ctx, id); err != nil {
		return s.failed(ctx, log.OpDelete, fmt.Errorf("delete announcement: %w", err))
	}
	s.changed(ctx, storage.KeyAnnouncements, log.OpDelete)
	return nil
}

func (s *LedgerService) Agenda(ctx context.Context) []core.AgendaItem {
	return s.stores.Board.ListAgenda(ctx)
}

func (s *LedgerService) AddAgendaItem(ctx context.Context, item core.AgendaItem) (core.AgendaItem, error) {
	out, err := s.stores.Board.AddAgendaItem(ctx, item)
	if err != nil {
		if IsValidation(err) {
			return core.AgendaItem{}, err
		}
		return core.AgendaItem{}, s.failed(ctx, log.OpCreate, fmt.Errorf("add agenda item: %w", err))
	}
	s.changed(ctx, storage.KeyAgenda, log.OpCreate)
	return out, nil
}

func (s *LedgerService) DeleteAgendaItem(ctx context.Context, id string) error {
	if err := s.stores.Board.DeleteAgendaItem(ctx, id); err != nil {
		return s.failed(ctx, log.OpDelete, fmt.Errorf("delete agenda item: %w", err))
	}
	s.changed(ctx, storage.KeyAgenda, log.OpDelete)
	return nil
}

// Snapshot reads every ledger collection concurrently.
func (s *LedgerService) Snapshot(ctx context.Context) (core.Snapshot, error) {
	snap := core.Snapshot{Today: s.Today()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Settings = s.stores.Settings.Get(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		snap.Students = s.stores.Roster.List(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		snap.Transactions = s.stores.Expenses.List(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		snap.Planned = s.stores.Wishlist.List(gctx)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

// Overview computes the dashboard from a fresh snapshot plus the board.
func (s *LedgerService) Overview(ctx context.Context) (Overview, error) {
	var (
		snap          core.Snapshot
		announcements []core.Announcement
		agenda        []core.AgendaItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = s.Snapshot(gctx)
		return err
	})
	g.Go(func() error {
		announcements = s.stores.Board.ListAnnouncements(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		agenda = s.stores.Board.ListAgenda(gctx)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	e := ledger.New(snap.Settings, snap.Today)
	summary := e.Summarize(snap.Students, snap.Transactions, snap.Planned)
	metrics.SetTotals(summary.Outstanding, summary.Balance)

	return Overview{
		Settings:      snap.Settings,
		Summary:       summary,
		Grid:          e.Grid(snap.Students),
		TodayColumn:   e.Collection(snap.Students, snap.Today),
		Transactions:  snap.Transactions,
		Planned:       snap.Planned,
		Announcements: announcements,
		Agenda:        agenda,
	}, nil
}

// Close releases the publisher when it owns a connection.
func (s *LedgerService) Close() error {
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}

// IsValidation reports whether err is rejected input rather than a storage
// failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount, core.ErrInvalidDate, core.ErrEmptyName, core.ErrInvalidGender,
		core.ErrInvalidPriority, core.ErrInvalidAgenda, core.ErrEmptyTitle, core.ErrDescriptionTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
