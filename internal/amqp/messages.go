package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentReminderMessage announces a pending payment that is about to fall due. It is
// self-contained so that the notification deliverer never reads the database.
type PaymentReminderMessage struct {
	PaymentID string          `json:"payment_id"`
	EntryID   string          `json:"entry_id"`
	Title     string          `json:"title"`
	Type      string          `json:"type"`
	DueDate   string          `json:"due_date"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	DaysLeft  int             `json:"days_left"`
	Timestamp time.Time       `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *PaymentReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentReminderFromJSON decodes a reminder delivered by the broker.
func PaymentReminderFromJSON(data []byte) (*PaymentReminderMessage, error) {
	var msg PaymentReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
