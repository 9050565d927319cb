package http

import (
	"strings"
	"time"

	"scadenze/internal/core"
)

// sanitizeInput removes control characters (except tab and newlines) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

type (
	entryDTO struct {
		ID                 string         `json:"id"`
		CategoryID         string         `json:"category_id,omitempty"`
		Type               core.EntryType `json:"type"`
		Title              string         `json:"title"`
		Amount             string         `json:"amount"`
		Months             int            `json:"months"`
		StartDate          string         `json:"start_date"`
		ScheduleType       string         `json:"schedule_type"`
		ReminderDaysBefore *int           `json:"reminder_days_before,omitempty"`
		CreatedAt          time.Time      `json:"created_at"`
		UpdatedAt          time.Time      `json:"updated_at"`
	}

	paymentDTO struct {
		ID        string             `json:"id"`
		EntryID   string             `json:"entry_id"`
		DueDate   string             `json:"due_date"`
		Amount    string             `json:"amount"`
		Status    core.PaymentStatus `json:"status"`
		PaidAt    *time.Time         `json:"paid_at,omitempty"`
		CreatedAt time.Time          `json:"created_at"`
		UpdatedAt time.Time          `json:"updated_at"`
	}

	createEntryRequest struct {
		CategoryID         string      `json:"category_id"`
		Type               string      `json:"type"`
		Title              string      `json:"title"`
		Amount             amountInput `json:"amount"`
		Months             int         `json:"months"`
		StartDate          string      `json:"start_date"`
		ReminderDaysBefore *int        `json:"reminder_days_before"`
	}

	// updateEntryRequest leaves absent fields unchanged.
	updateEntryRequest struct {
		Title              *string `json:"title"`
		CategoryID         *string `json:"category_id"`
		ReminderDaysBefore *int    `json:"reminder_days_before"`
		ClearReminder      bool    `json:"clear_reminder"`
	}

	updateStatusRequest struct {
		Status string `json:"status"`
	}

	reportRequest struct {
		Name   string            `json:"name"`
		Config core.ReportConfig `json:"config"`
	}

	reportRunResponse struct {
		Report core.ReportDefinition `json:"report"`
		Rows   []core.AggregateRow   `json:"rows"`
	}

	createCategoryRequest struct {
		Name  string `json:"name"`
		Type  string `json:"type"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}

	settingRequest struct {
		Value string `json:"value"`
	}

	resetRequest struct {
		Confirm string `json:"confirm"`
	}

	idResponse struct {
		ID string `json:"id"`
	}
)

func toEntryDTO(e core.Entry) entryDTO {
	return entryDTO{
		ID:                 e.ID,
		CategoryID:         e.CategoryID,
		Type:               e.Type,
		Title:              e.Title,
		Amount:             e.Amount.StringFixed(2),
		Months:             e.Months,
		StartDate:          e.StartDate.String(),
		ScheduleType:       string(e.ScheduleType),
		ReminderDaysBefore: e.ReminderDaysBefore,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func toEntryDTOs(entries []core.Entry) []entryDTO {
	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryDTO(e))
	}
	return out
}

func toPaymentDTO(p core.Payment) paymentDTO {
	return paymentDTO{
		ID:        p.ID,
		EntryID:   p.EntryID,
		DueDate:   p.DueDate.String(),
		Amount:    p.Amount.StringFixed(2),
		Status:    p.Status,
		PaidAt:    p.PaidAt,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toPaymentDTOs(payments []core.Payment) []paymentDTO {
	out := make([]paymentDTO, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentDTO(p))
	}
	return out
}

// toNewEntry converts the request into the service input. Only amount parsing happens
// here; every other rule is enforced by the entry service.
func (req createEntryRequest) toNewEntry() (core.NewEntry, error) {
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.NewEntry{}, err
	}
	entryType, err := core.ParseEntryType(req.Type)
	if err != nil {
		return core.NewEntry{}, err
	}
	return core.NewEntry{
		CategoryID:         sanitizeInput(req.CategoryID),
		Type:               entryType,
		Title:              sanitizeInput(req.Title),
		Amount:             amount,
		Months:             req.Months,
		StartDate:          strings.TrimSpace(req.StartDate),
		ReminderDaysBefore: req.ReminderDaysBefore,
	}, nil
}

// merge applies the present fields of req onto the current entry metadata.
func (req updateEntryRequest) merge(current core.Entry) core.EntryUpdate {
	u := core.EntryUpdate{
		Title:              current.Title,
		CategoryID:         current.CategoryID,
		ReminderDaysBefore: current.ReminderDaysBefore,
	}
	if req.Title != nil {
		u.Title = sanitizeInput(*req.Title)
	}
	if req.CategoryID != nil {
		u.CategoryID = sanitizeInput(*req.CategoryID)
	}
	if req.ReminderDaysBefore != nil {
		u.ReminderDaysBefore = req.ReminderDaysBefore
	}
	if req.ClearReminder {
		u.ReminderDaysBefore = nil
	}
	return u
}
