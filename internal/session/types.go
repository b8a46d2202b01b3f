package session

import (
	"time"

	"github.com/A-zanke/pharmachat/internal/models"
)

// Mode is the dialogue state machine's current state.
type Mode string

const (
	ModeIdle                      Mode = "idle"
	ModeAwaitingQuantity          Mode = "awaiting_quantity"
	ModeConfirmingAddMore         Mode = "confirming_add_more"
	ModeWizardAwaitName           Mode = "stock_wizard_await_name"
	ModeWizardAwaitPackets        Mode = "stock_wizard_await_packets"
	ModeWizardAwaitTablets        Mode = "stock_wizard_await_tablets_per_packet"
	ModeWizardAwaitPrice          Mode = "stock_wizard_await_price"
	ModeAwaitingOrderConfirmation Mode = "awaiting_order_confirmation"
)

// Confirm distinguishes the two yes/no sub-dialogues that share
// ModeAwaitingOrderConfirmation: agreeing to restock an out-of-stock
// medicine versus confirming checkout of the cart.
type Confirm string

const (
	ConfirmNone     Confirm = ""
	ConfirmRestock  Confirm = "restock"
	ConfirmCheckout Confirm = "checkout"
)

// Wizard holds the partially filled stock-replenishment fields.
type Wizard struct {
	MedicineID       string  `json:"medicine_id,omitempty"`
	MedicineName     string  `json:"medicine_name,omitempty"`
	Packets          int     `json:"packets,omitempty"`
	TabletsPerPacket int     `json:"tablets_per_packet,omitempty"`
	PricePerPacket   float64 `json:"price_per_packet,omitempty"`
}

// CartLine is one medicine queued for the order being assembled.
type CartLine struct {
	MedicineID string `json:"medicine_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}

// State is everything the dialogue engine knows about one
// conversation. Only the engine mutates it; stores just hold it.
type State struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`

	Mode    Mode    `json:"mode"`
	Confirm Confirm `json:"confirm,omitempty"`

	TargetMedicineID   string `json:"target_medicine_id,omitempty"`
	TargetMedicineName string `json:"target_medicine_name,omitempty"`

	Wizard  Wizard        `json:"wizard"`
	Cart    []CartLine    `json:"cart,omitempty"`
	History []models.Turn `json:"history,omitempty"`
	Retries int           `json:"retries,omitempty"`

	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
}

// New returns a fresh Idle session.
func New(sessionID, userID string) *State {
	now := time.Now()
	return &State{
		SessionID:    sessionID,
		UserID:       userID,
		Mode:         ModeIdle,
		StartedAt:    now,
		LastActivity: now,
	}
}

// Clone deep-copies the state so a transition can be computed in full
// and committed atomically, leaving the stored state untouched when a
// downstream call fails.
func (s *State) Clone() *State {
	cp := *s
	cp.Cart = append([]CartLine(nil), s.Cart...)
	cp.History = append([]models.Turn(nil), s.History...)
	return &cp
}

// ResetFlow drops every in-flight slot and returns the session to
// Idle. History and identity are kept.
func (s *State) ResetFlow() {
	s.Mode = ModeIdle
	s.Confirm = ConfirmNone
	s.TargetMedicineID = ""
	s.TargetMedicineName = ""
	s.Wizard = Wizard{}
	s.Cart = nil
	s.Retries = 0
}

// AppendTurn records one message in the conversation history.
func (s *State) AppendTurn(role, text string) {
	s.History = append(s.History, models.Turn{
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	})
	s.LastActivity = time.Now()
}
