package core

import (
	"errors"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Male   Gender = "M"
	Female Gender = "F"

	High   Priority = "High"
	Medium Priority = "Medium"
	Low    Priority = "Low"

	Exam       AgendaType = "exam"
	Assignment AgendaType = "assignment"
	Event      AgendaType = "event"
	Holiday    AgendaType = "holiday"

	TypeExpense TransactionType = "EXPENSE"
	TypeIncome  TransactionType = "INCOME"

	StatusPaid = "paid"

	// CategoryOther collects transactions recorded without a category.
	CategoryOther = "Other"
	// CategoryMaterials is the bucket converted wishlist items land in.
	CategoryMaterials = "Materials"

	DefaultCurrencySymbol = "Rp"

	// MaxDescriptionLen caps Transaction.Description, in bytes.
	MaxDescriptionLen = 200
)

// DefaultDailyQuota is the amount owed per active day until an officer changes it.
var DefaultDailyQuota = decimal.NewFromInt(2000)

type (
	Gender          string
	Priority        string
	AgendaType      string
	TransactionType string

	Settings struct {
		DailyQuota     decimal.Decimal                  `json:"dailyQuota"`
		CurrencySymbol string                           `json:"currencySymbol"`
		CustomQuotas   map[CalendarDate]decimal.Decimal `json:"customQuotas"`
		CollectionDays map[CalendarDate]bool            `json:"collectionDays"`
	}

	Student struct {
		ID       string                           `json:"id"`
		Name     string                           `json:"name"`
		Gender   Gender                           `json:"gender"`
		Payments map[CalendarDate]decimal.Decimal `json:"payments"`
	}

	// StudentGuess is a roster entry that has not been assigned an id yet.
	StudentGuess struct {
		Name   string `json:"name"`
		Gender Gender `json:"gender"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Date        time.Time       `json:"date"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Type        TransactionType `json:"type"`
		Status      string          `json:"status"`
	}

	PlannedExpense struct {
		ID            string          `json:"id"`
		Item          string          `json:"item"`
		EstimatedCost decimal.Decimal `json:"estimatedCost"`
		Priority      Priority        `json:"priority"`
	}

	Announcement struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Content   string    `json:"content"`
		Date      time.Time `json:"date"`
		Author    string    `json:"author"`
		Important bool      `json:"important"`
	}

	AgendaItem struct {
		ID          string       `json:"id"`
		Title       string       `json:"title"`
		Date        CalendarDate `json:"date"`
		Type        AgendaType   `json:"type"`
		Description string       `json:"description"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidGender   = errors.New("invalid gender")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidAgenda   = errors.New("invalid agenda type")
	ErrEmptyTitle      = errors.New("empty title")
	ErrNotFound        = errors.New("not found")
	ErrInactiveDate    = errors.New("collection is not active on this date")

	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// DefaultSettings returns the settings record used before an officer saves one.
func DefaultSettings() Settings {
	return Settings{
		DailyQuota:     DefaultDailyQuota,
		CurrencySymbol: DefaultCurrencySymbol,
		CustomQuotas:   map[CalendarDate]decimal.Decimal{},
		CollectionDays: map[CalendarDate]bool{},
	}
}

// Clone returns a copy whose maps can be mutated without touching s.
func (s Settings) Clone() Settings {
	out := s
	out.CustomQuotas = make(map[CalendarDate]decimal.Decimal, len(s.CustomQuotas))
	maps.Copy(out.CustomQuotas, s.CustomQuotas)
	out.CollectionDays = make(map[CalendarDate]bool, len(s.CollectionDays))
	maps.Copy(out.CollectionDays, s.CollectionDays)
	return out
}

// Payment returns the recorded amount for date and whether one was ever set.
func (s Student) Payment(date CalendarDate) (decimal.Decimal, bool) {
	amount, ok := s.Payments[date]
	return amount, ok
}

func ParseGender(s string) (Gender, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "":
		return Male, nil
	case "F":
		return Female, nil
	default:
		return "", ErrInvalidGender
	}
}

func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return High, nil
	case "medium", "":
		return Medium, nil
	case "low":
		return Low, nil
	default:
		return "", ErrInvalidPriority
	}
}

func ParseAgendaType(s string) (AgendaType, error) {
	switch t := AgendaType(strings.ToLower(strings.TrimSpace(s))); t {
	case Exam, Assignment, Event, Holiday:
		return t, nil
	default:
		return "", ErrInvalidAgenda
	}
}

func (g StudentGuess) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.Gender != Male && g.Gender != Female {
		return ErrInvalidGender
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if len(t.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// TruncateDescription shortens s to fit MaxDescriptionLen without splitting
// a UTF-8 sequence.
func TruncateDescription(s string) string {
	if len(s) <= MaxDescriptionLen {
		return s
	}
	cut := MaxDescriptionLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (p PlannedExpense) Validate() error {
	if strings.TrimSpace(p.Item) == "" {
		return ErrEmptyName
	}
	if p.EstimatedCost.IsNegative() {
		return ErrInvalidAmount
	}
	switch p.Priority {
	case High, Medium, Low:
	default:
		return ErrInvalidPriority
	}
	return nil
}

func (a AgendaItem) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyTitle
	}
	if err := a.Date.Validate(); err != nil {
		return err
	}
	if _, err := ParseAgendaType(string(a.Type)); err != nil {
		return err
	}
	return nil
}
