package models

import "time"

// Turn request arriving over the transport
type TurnRequest struct {
	SessionID string `json:"session_id"`
	Utterance string `json:"utterance"`
	UserID    string `json:"user_id,omitempty"`
}

// Turn response returned to the caller. Mode is exposed for
// observability and tests, the UI only needs Reply.
type TurnResponse struct {
	SessionID      string    `json:"session_id"`
	Reply          string    `json:"reply"`
	Mode           string    `json:"mode"`
	CommandsIssued []Command `json:"commands_issued"`
	ErrorCode      *string   `json:"error_code,omitempty"`
	ErrorMessage   *string   `json:"error_message,omitempty"`
}

// Turn is a single message in the conversation history.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MedicineMention is one medicine the classifier picked out of the
// utterance, with an optional quantity when the user gave one in the
// same breath ("2 strips of Dolo").
type MedicineMention struct {
	Name     string `json:"name"`
	Quantity *int   `json:"quantity"`
}

// ClassifiedTurn is the canonical output of the intent classifier,
// whichever backend produced it. The dialogue engine treats every
// field as untrusted until validated against the catalog.
type ClassifiedTurn struct {
	Medicines []MedicineMention `json:"medicines"`
	Intent    string            `json:"intent"`
	Action    string            `json:"action"`
	Language  string            `json:"language"`
}

// Intents
const (
	IntentOrder          = "order"
	IntentSearch         = "search"
	IntentInquiry        = "inquiry"
	IntentAddStock       = "add_stock"
	IntentRemoveMedicine = "remove_medicine"
)

// Actions
const (
	ActionCheckStock = "check_stock"
	ActionAddStock   = "add_stock"
	ActionOrder      = "order"
	ActionRemove     = "remove"
	ActionOther      = "other"
)

// Command kinds
const (
	CommandMutateStock    = "mutate_stock"
	CommandCreateOrder    = "create_order"
	CommandRemoveMedicine = "remove_medicine"
)

// Command is a side effect the dialogue engine wants performed. It is
// data, not a call: exactly one of the payload pointers is set,
// matching Kind. The engine never touches storage itself.
type Command struct {
	Kind           string                 `json:"kind"`
	MutateStock    *MutateStockCommand    `json:"mutate_stock,omitempty"`
	CreateOrder    *CreateOrderCommand    `json:"create_order,omitempty"`
	RemoveMedicine *RemoveMedicineCommand `json:"remove_medicine,omitempty"`
}

type MutateStockCommand struct {
	MedicineID       string  `json:"medicine_id"`
	DeltaPackets     int     `json:"delta_packets"`
	TabletsPerPacket int     `json:"tablets_per_packet"`
	PricePerPacket   float64 `json:"price_per_packet"`
}

type OrderItem struct {
	MedicineID string `json:"medicine_id"`
	Quantity   int    `json:"quantity"`
}

type CreateOrderCommand struct {
	Items  []OrderItem `json:"items"`
	UserID string      `json:"user_id"`
}

type RemoveMedicineCommand struct {
	MedicineID string `json:"medicine_id"`
}

// Ack reports a successfully executed command. OrderID is set only
// for CreateOrder.
type Ack struct {
	OrderID string `json:"order_id,omitempty"`
}

// Error codes surfaced on TurnResponse
const (
	ErrorClassifierFailed = "CLASSIFIER_FAILED"
	ErrorParseError       = "PARSE_ERROR"
	ErrorExecutionFailed  = "EXECUTION_FAILED"
)
