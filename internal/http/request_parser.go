package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"classroom/internal/core"
)

const maxJSONBody = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names rather than Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := core.ParseAmount(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		_, err := core.ParseCalendarDate(fl.Field().String())
		return err == nil
	})
	return v
}

type (
	settingsRequest struct {
		DailyQuota     amountText            `json:"dailyQuota"     validate:"required,amount"`
		CurrencySymbol string                `json:"currencySymbol" validate:"max=8"`
		CustomQuotas   map[string]amountText `json:"customQuotas"   validate:"omitempty,dive,keys,calendardate,endkeys,required,amount"`
		CollectionDays map[string]bool       `json:"collectionDays" validate:"omitempty,dive,keys,calendardate,endkeys"`
	}

	collectionDayRequest struct {
		Active *bool `json:"active" validate:"required"`
	}

	amountRequest struct {
		Amount amountText `json:"amount" validate:"required,amount"`
	}

	markRequest struct {
		Paid *bool `json:"paid" validate:"required"`
	}

	studentRequest struct {
		Name   string `json:"name"   validate:"notblank,max=100"`
		Gender string `json:"gender" validate:"omitempty,oneof=M F m f"`
	}

	expenseRequest struct {
		Amount      amountText `json:"amount"      validate:"required,amount"`
		Description string     `json:"description" validate:"max=200"`
		Category    string     `json:"category"    validate:"max=50"`
	}

	plannedRequest struct {
		Item          string     `json:"item"          validate:"notblank,max=200"`
		EstimatedCost amountText `json:"estimatedCost" validate:"required,amount"`
		Priority      string     `json:"priority"      validate:"omitempty,oneof=High Medium Low high medium low"`
	}

	announcementRequest struct {
		Title     string `json:"title"     validate:"notblank,max=200"`
		Content   string `json:"content"   validate:"max=5000"`
		Author    string `json:"author"    validate:"max=100"`
		Important bool   `json:"important"`
	}

	agendaRequest struct {
		Title       string `json:"title"       validate:"notblank,max=200"`
		Date        string `json:"date"        validate:"required,calendardate"`
		Type        string `json:"type"        validate:"required,oneof=exam assignment event holiday"`
		Description string `json:"description" validate:"max=1000"`
	}
)

// amountText holds an amount as sent by the client. Both "12.5" and 12.5 are
// accepted since responses carry amounts as plain numbers.
type amountText string

func (a *amountText) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amountText(n.String())
	return nil
}

// decodeJSON reads a size-limited JSON body into dst and runs the struct
// validation tags. Any failure is a validation error.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return describeValidation(err)
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "notblank":
			parts = append(parts, fe.Field()+" is required")
		case "amount":
			parts = append(parts, fe.Field()+" is not a valid amount")
		case "calendardate":
			parts = append(parts, fe.Field()+" must be YYYY-MM-DD")
		case "oneof":
			parts = append(parts, fe.Field()+" must be one of "+fe.Param())
		case "max":
			parts = append(parts, fe.Field()+" is too long")
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return errors.New(strings.Join(parts, "; "))
}

// dateParam parses the {date} path segment.
func dateParam(r *http.Request) (core.CalendarDate, error) {
	return core.ParseCalendarDate(chi.URLParam(r, "date"))
}

// mustAmount converts a field already checked by the amount tag.
func mustAmount(a amountText) decimal.Decimal {
	d, _ := core.ParseAmount(string(a))
	return d
}

// bind decodes the body into dst, answering 422 and returning false when
// the request is unusable.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// bindDate parses {date}, answering 422 on failure.
func bindDate(w http.ResponseWriter, r *http.Request) (core.CalendarDate, bool) {
	date, err := dateParam(r)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return "", false
	}
	return date, true
}
