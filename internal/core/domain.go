package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	Cash         PaymentMethod = "Efectivo"
	Yape         PaymentMethod = "Yape"
	Plin         PaymentMethod = "Plin"
	BankTransfer PaymentMethod = "Transferencia"
	Card         PaymentMethod = "Tarjeta"
)

// DateLayout is the persisted timestamp format. It always renders in UTC with
// millisecond precision, so the string form sorts in time order.
const DateLayout = "2006-01-02T15:04:05.000Z"

type (
	TransactionType string

	PaymentMethod string

	Transaction struct {
		ID            string          `json:"id"`
		Amount        float64         `json:"amount"`
		Category      string          `json:"category"`
		Note          string          `json:"note"`
		Date          string          `json:"date"`
		Type          TransactionType `json:"type"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
	}

	Goal struct {
		ID            string  `json:"id"`
		Name          string  `json:"name"`
		TargetAmount  float64 `json:"targetAmount"`
		CurrentAmount float64 `json:"currentAmount"`
		Color         string  `json:"color"`
	}

	// AppData is the unit that gets persisted and exported.
	AppData struct {
		Transactions []Transaction `json:"transactions"`
		Goals        []Goal        `json:"goals"`
	}

	// TransactionInput carries the user-editable fields of a new transaction.
	TransactionInput struct {
		Type          TransactionType `validate:"transaction_type"`
		Amount        float64         `validate:"gt=0"`
		Category      string
		Note          string
		PaymentMethod PaymentMethod `validate:"payment_method"`
	}

	// GoalInput carries the user-editable fields of a goal. An empty ID means
	// a new goal.
	GoalInput struct {
		ID            string
		Name          string  `validate:"notblank"`
		TargetAmount  float64 `validate:"gt=0"`
		CurrentAmount float64 `validate:"gte=0"`
		Color         string  `validate:"omitempty,palette_color"`
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrEmptyName            = errors.New("empty goal name")
	ErrInvalidTarget        = errors.New("invalid target amount")
	ErrInvalidCurrent       = errors.New("invalid current amount")
	ErrInvalidColor         = errors.New("invalid color")
)

// Empty returns AppData with non-nil, empty sequences.
func Empty() AppData {
	return AppData{Transactions: []Transaction{}, Goals: []Goal{}}
}

// Normalize replaces nil sequences with empty ones so the JSON form always
// carries arrays.
func (d AppData) Normalize() AppData {
	if d.Transactions == nil {
		d.Transactions = []Transaction{}
	}
	if d.Goals == nil {
		d.Goals = []Goal{}
	}
	return d
}

// Clone returns a copy that shares no backing arrays with d.
func (d AppData) Clone() AppData {
	out := AppData{
		Transactions: make([]Transaction, len(d.Transactions)),
		Goals:        make([]Goal, len(d.Goals)),
	}
	copy(out.Transactions, d.Transactions)
	copy(out.Goals, d.Goals)
	return out
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case Cash, Yape, Plin, BankTransfer, Card:
		return true
	}
	return false
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Time parses the transaction date. Imported data may carry any ISO-8601
// variant, so RFC 3339 with optional fraction is accepted too.
func (t Transaction) Time() (time.Time, error) {
	if ts, err := time.Parse(DateLayout, t.Date); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339Nano, t.Date)
}

// Validate checks the form input before a transaction is built. The
// category must belong to the catalog of the chosen type.
func (in TransactionInput) Validate() error {
	return check(in, transactionFieldErrors)
}

// Validate checks the form input before a goal is built. An empty color is
// allowed and later replaced by the default.
func (in GoalInput) Validate() error {
	return check(in, goalFieldErrors)
}

// NewTransaction builds an immutable transaction with a fresh id, dated now.
func NewTransaction(in TransactionInput, now time.Time) (Transaction, error) {
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:            uuid.NewString(),
		Amount:        in.Amount,
		Category:      in.Category,
		Note:          strings.TrimSpace(in.Note),
		Date:          FormatDate(now),
		Type:          in.Type,
		PaymentMethod: in.PaymentMethod,
	}, nil
}

// NewGoal builds a goal from the form input. The id is kept when editing and
// generated otherwise; a missing color falls back to the first palette entry.
func NewGoal(in GoalInput) (Goal, error) {
	if err := in.Validate(); err != nil {
		return Goal{}, err
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	color := in.Color
	if color == "" {
		color = DefaultColor()
	}
	return Goal{
		ID:            id,
		Name:          strings.TrimSpace(in.Name),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		Color:         color,
	}, nil
}
