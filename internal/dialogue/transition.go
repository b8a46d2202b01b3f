package dialogue

import (
	"strconv"
	"strings"

	"github.com/A-zanke/pharmachat/internal/match"
	"github.com/A-zanke/pharmachat/internal/models"
	"github.com/A-zanke/pharmachat/internal/prompts"
	"github.com/A-zanke/pharmachat/internal/session"
)

// MaxRetries is how many times one slot is re-prompted before the
// session gives up and resets to Idle.
const MaxRetries = 3

// ResolveFunc resolves a free-text medicine name against the catalog
// snapshot taken for this turn. It must be deterministic within the
// turn.
type ResolveFunc func(name string) match.Result

// Input is everything a single turn feeds into the state machine.
// Classified is nil when the classifier was not consulted or failed;
// the machine must cope either way.
type Input struct {
	Utterance  string
	Classified *models.ClassifiedTurn
	UserID     string
}

// Outcome is the full result of one transition: the complete next
// state (committed atomically by the engine), the reply, and any
// side-effect commands. No I/O happens in here.
type Outcome struct {
	Next     *session.State
	Reply    string
	Commands []models.Command
}

// Transition is the dialogue state machine. Identical inputs always
// produce identical outcomes.
func Transition(cur *session.State, in Input, resolve ResolveFunc) Outcome {
	next := cur.Clone()

	// A remove intent is honored from any mode.
	if in.Classified != nil && in.Classified.Action == models.ActionRemove {
		return removeMedicine(next, in, resolve)
	}

	switch cur.Mode {
	case session.ModeIdle:
		return fromIdle(next, in, resolve)
	case session.ModeAwaitingQuantity:
		return collectQuantity(next, in)
	case session.ModeConfirmingAddMore:
		return confirmAddMore(next, in)
	case session.ModeWizardAwaitName:
		return wizardName(next, in, resolve)
	case session.ModeWizardAwaitPackets:
		return wizardPackets(next, in)
	case session.ModeWizardAwaitTablets:
		return wizardTablets(next, in)
	case session.ModeWizardAwaitPrice:
		return wizardPrice(next, in)
	case session.ModeAwaitingOrderConfirmation:
		if cur.Confirm == session.ConfirmRestock {
			return confirmRestock(next, in)
		}
		return confirmCheckout(next, in)
	}

	// Unknown mode in stored state: treat as a fresh session.
	next.ResetFlow()
	return Outcome{Next: next, Reply: replyStartOver}
}

func fromIdle(next *session.State, in Input, resolve ResolveFunc) Outcome {
	ct := in.Classified
	if ct == nil {
		return Outcome{Next: next, Reply: prompts.FallbackReply}
	}

	switch {
	case ct.Action == models.ActionAddStock || ct.Intent == models.IntentAddStock:
		next.Mode = session.ModeWizardAwaitName
		next.Retries = 0
		return Outcome{Next: next, Reply: replyAskWizardName}

	case ct.Action == models.ActionOrder || ct.Intent == models.IntentOrder:
		return startOrder(next, ct, resolve)

	case ct.Action == models.ActionCheckStock,
		len(ct.Medicines) > 0 && (ct.Intent == models.IntentSearch || ct.Intent == models.IntentInquiry):
		return checkStock(next, ct, resolve)
	}

	return Outcome{Next: next, Reply: prompts.FallbackReply}
}

func checkStock(next *session.State, ct *models.ClassifiedTurn, resolve ResolveFunc) Outcome {
	name := mentionedName(ct, "")
	if name == "" {
		return Outcome{Next: next, Reply: prompts.FallbackReply}
	}

	res := resolve(name)
	if !res.Found() {
		return Outcome{Next: next, Reply: replyNotFound(name)}
	}

	item := res.Item
	if item.TotalTablets() > 0 {
		return Outcome{Next: next, Reply: replyStockReport(item)}
	}

	next.Mode = session.ModeAwaitingOrderConfirmation
	next.Confirm = session.ConfirmRestock
	next.TargetMedicineID = item.ID
	next.TargetMedicineName = item.Name
	next.Retries = 0
	return Outcome{Next: next, Reply: replyOutOfStock(item)}
}

func startOrder(next *session.State, ct *models.ClassifiedTurn, resolve ResolveFunc) Outcome {
	if len(ct.Medicines) == 0 {
		return Outcome{Next: next, Reply: replyNextMedicine}
	}
	mention := ct.Medicines[0]

	res := resolve(mention.Name)
	if !res.Found() {
		return Outcome{Next: next, Reply: replyNotFound(mention.Name)}
	}
	item := res.Item

	next.TargetMedicineID = item.ID
	next.TargetMedicineName = item.Name

	// Quantity already given in the same turn skips straight to the
	// cart.
	if mention.Quantity != nil && *mention.Quantity > 0 {
		next.Cart = append(next.Cart, session.CartLine{
			MedicineID: item.ID,
			Name:       item.Name,
			Quantity:   *mention.Quantity,
		})
		next.TargetMedicineID = ""
		next.TargetMedicineName = ""
		next.Mode = session.ModeConfirmingAddMore
		next.Retries = 0
		return Outcome{Next: next, Reply: replyCartAdded(next.Cart)}
	}

	next.Mode = session.ModeAwaitingQuantity
	next.Retries = 0
	return Outcome{Next: next, Reply: replyAskQuantity(item.Name)}
}

func collectQuantity(next *session.State, in Input) Outcome {
	qty, ok := quantityFrom(in)
	if !ok {
		return reprompt(next, replyAskQuantityRetry)
	}

	next.Cart = append(next.Cart, session.CartLine{
		MedicineID: next.TargetMedicineID,
		Name:       next.TargetMedicineName,
		Quantity:   qty,
	})
	next.TargetMedicineID = ""
	next.TargetMedicineName = ""
	next.Mode = session.ModeConfirmingAddMore
	next.Retries = 0
	return Outcome{Next: next, Reply: replyCartAdded(next.Cart)}
}

func confirmAddMore(next *session.State, in Input) Outcome {
	switch answer(in.Utterance) {
	case answerYes:
		next.Mode = session.ModeIdle
		next.Retries = 0
		return Outcome{Next: next, Reply: replyNextMedicine}
	case answerNo:
		next.Mode = session.ModeAwaitingOrderConfirmation
		next.Confirm = session.ConfirmCheckout
		next.Retries = 0
		return Outcome{Next: next, Reply: replyCheckoutPrompt(next.Cart)}
	}
	return reprompt(next, replyYesNoRetry)
}

func confirmRestock(next *session.State, in Input) Outcome {
	switch answer(in.Utterance) {
	case answerYes:
		next.Mode = session.ModeWizardAwaitName
		next.Confirm = session.ConfirmNone
		next.Retries = 0
		return Outcome{Next: next, Reply: replyAskWizardName}
	case answerNo:
		next.Mode = session.ModeIdle
		next.Confirm = session.ConfirmNone
		next.TargetMedicineID = ""
		next.TargetMedicineName = ""
		next.Retries = 0
		return Outcome{Next: next, Reply: replyRestockDeclined}
	}
	return reprompt(next, replyYesNoRetry)
}

func confirmCheckout(next *session.State, in Input) Outcome {
	switch normalized(in.Utterance) {
	case "proceed", "yes", "y":
		userID := in.UserID
		if userID == "" {
			userID = next.UserID
		}
		items := make([]models.OrderItem, 0, len(next.Cart))
		for _, line := range next.Cart {
			items = append(items, models.OrderItem{MedicineID: line.MedicineID, Quantity: line.Quantity})
		}
		cmd := models.Command{
			Kind:        models.CommandCreateOrder,
			CreateOrder: &models.CreateOrderCommand{Items: items, UserID: userID},
		}
		next.Mode = session.ModeIdle
		next.Confirm = session.ConfirmNone
		next.Cart = nil
		next.Retries = 0
		return Outcome{Next: next, Reply: replyOrderPlaced(""), Commands: []models.Command{cmd}}
	case "no", "n", "cancel":
		next.ResetFlow()
		return Outcome{Next: next, Reply: replyCheckoutDeclined}
	}
	return reprompt(next, replyProceedRetry)
}

func wizardName(next *session.State, in Input, resolve ResolveFunc) Outcome {
	name := strings.TrimSpace(in.Utterance)
	if name == "" {
		return reprompt(next, replyAskWizardName)
	}

	res := resolve(name)
	if !res.Found() {
		return reprompt(next, replyNotFound(name)+" "+replyAskWizardName)
	}

	next.Wizard.MedicineID = res.Item.ID
	next.Wizard.MedicineName = res.Item.Name
	next.Mode = session.ModeWizardAwaitPackets
	next.Retries = 0
	return Outcome{Next: next, Reply: replyAskPackets}
}

func wizardPackets(next *session.State, in Input) Outcome {
	n, ok := parsePositiveInt(in.Utterance)
	if !ok {
		return reprompt(next, replyPacketsInvalid)
	}
	next.Wizard.Packets = n
	next.Mode = session.ModeWizardAwaitTablets
	next.Retries = 0
	return Outcome{Next: next, Reply: replyAskTablets}
}

func wizardTablets(next *session.State, in Input) Outcome {
	n, ok := parsePositiveInt(in.Utterance)
	if !ok {
		return reprompt(next, replyTabletsInvalid)
	}
	next.Wizard.TabletsPerPacket = n
	next.Mode = session.ModeWizardAwaitPrice
	next.Retries = 0
	return Outcome{Next: next, Reply: replyAskPrice}
}

func wizardPrice(next *session.State, in Input) Outcome {
	price, ok := parseNonNegativeFloat(in.Utterance)
	if !ok {
		return reprompt(next, replyPriceInvalid)
	}
	next.Wizard.PricePerPacket = price

	cmd := models.Command{
		Kind: models.CommandMutateStock,
		MutateStock: &models.MutateStockCommand{
			MedicineID:       next.Wizard.MedicineID,
			DeltaPackets:     next.Wizard.Packets,
			TabletsPerPacket: next.Wizard.TabletsPerPacket,
			PricePerPacket:   next.Wizard.PricePerPacket,
		},
	}
	reply := replyStockAdded(next.Wizard.MedicineName, next.Wizard.Packets, next.Wizard.TabletsPerPacket, next.Wizard.PricePerPacket)

	next.Mode = session.ModeIdle
	next.Wizard = session.Wizard{}
	next.Retries = 0
	return Outcome{Next: next, Reply: reply, Commands: []models.Command{cmd}}
}

func removeMedicine(next *session.State, in Input, resolve ResolveFunc) Outcome {
	name := mentionedName(in.Classified, in.Utterance)
	res := resolve(name)

	next.Mode = session.ModeIdle
	next.Confirm = session.ConfirmNone
	next.TargetMedicineID = ""
	next.TargetMedicineName = ""
	next.Wizard = session.Wizard{}
	next.Retries = 0

	if !res.Found() {
		return Outcome{Next: next, Reply: replyNotFound(name)}
	}

	cmd := models.Command{
		Kind:           models.CommandRemoveMedicine,
		RemoveMedicine: &models.RemoveMedicineCommand{MedicineID: res.Item.ID},
	}
	return Outcome{Next: next, Reply: replyRemoved(res.Item.Name), Commands: []models.Command{cmd}}
}

// reprompt keeps the mode, bumps the retry counter and resets to Idle
// once the cap is hit so a confused exchange cannot loop forever.
func reprompt(next *session.State, reply string) Outcome {
	next.Retries++
	if next.Retries >= MaxRetries {
		next.ResetFlow()
		return Outcome{Next: next, Reply: replyStartOver}
	}
	return Outcome{Next: next, Reply: reply}
}

func mentionedName(ct *models.ClassifiedTurn, fallback string) string {
	if ct != nil && len(ct.Medicines) > 0 {
		return ct.Medicines[0].Name
	}
	return strings.TrimSpace(fallback)
}

func quantityFrom(in Input) (int, bool) {
	if in.Classified != nil && len(in.Classified.Medicines) > 0 {
		if q := in.Classified.Medicines[0].Quantity; q != nil && *q > 0 {
			return *q, true
		}
	}
	return parsePositiveInt(in.Utterance)
}

// parsePositiveInt accepts either a bare integer or the first integer
// token of the utterance ("10 tablets" -> 10).
func parsePositiveInt(s string) (int, bool) {
	for _, field := range strings.Fields(s) {
		n, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		if n > 0 {
			return n, true
		}
		return 0, false
	}
	return 0, false
}

func parseNonNegativeFloat(s string) (float64, bool) {
	for _, field := range strings.Fields(s) {
		field = strings.TrimPrefix(field, "₹")
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		if f >= 0 {
			return f, true
		}
		return 0, false
	}
	return 0, false
}

type yesNo int

const (
	answerOther yesNo = iota
	answerYes
	answerNo
)

func answer(utterance string) yesNo {
	switch normalized(utterance) {
	case "yes", "y", "haan", "ha":
		return answerYes
	case "no", "n", "nahi", "nahin":
		return answerNo
	}
	return answerOther
}

func normalized(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ".")))
}
