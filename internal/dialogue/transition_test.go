package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/A-zanke/pharmachat/internal/catalog"
	"github.com/A-zanke/pharmachat/internal/match"
	"github.com/A-zanke/pharmachat/internal/models"
	"github.com/A-zanke/pharmachat/internal/session"
)

func testItems() []catalog.Item {
	return []catalog.Item{
		{ID: "m1", Name: "Dolo 650", Packets: 10, TabletsPerPacket: 15, PricePerTablet: 2, LowStockThreshold: 30},
		{ID: "m2", Name: "Paracetamol", Packets: 0, TabletsPerPacket: 10, PricePerTablet: 1},
		{ID: "m3", Name: "Cetirizine", Packets: 1, TabletsPerPacket: 10, PricePerTablet: 0.5, LowStockThreshold: 50},
	}
}

func resolver() ResolveFunc {
	items := testItems()
	return func(name string) match.Result {
		return match.Match(name, items)
	}
}

func intPtr(n int) *int { return &n }

func classified(action, intent string, mentions ...models.MedicineMention) *models.ClassifiedTurn {
	return &models.ClassifiedTurn{
		Medicines: mentions,
		Intent:    intent,
		Action:    action,
		Language:  "en",
	}
}

func TestCheckStockAvailable(t *testing.T) {
	st := session.New("s1", "u1")
	out := Transition(st, Input{
		Utterance:  "Dolo hai kya?",
		Classified: classified(models.ActionCheckStock, models.IntentSearch, models.MedicineMention{Name: "Dolo"}),
	}, resolver())

	assert.Equal(t, session.ModeIdle, out.Next.Mode)
	assert.Empty(t, out.Commands)
	assert.Contains(t, out.Reply, "Dolo 650")
	assert.Contains(t, out.Reply, "150 tablets")
}

func TestCheckStockNotFound(t *testing.T) {
	st := session.New("s1", "u1")
	out := Transition(st, Input{
		Utterance:  "is aspirin available",
		Classified: classified(models.ActionCheckStock, models.IntentSearch, models.MedicineMention{Name: "aspirin"}),
	}, resolver())

	assert.Equal(t, session.ModeIdle, out.Next.Mode)
	assert.Empty(t, out.Commands)
	assert.Contains(t, out.Reply, "couldn't find")
}

func TestCheckStockLowStockWarning(t *testing.T) {
	st := session.New("s1", "u1")
	out := Transition(st, Input{
		Utterance:  "cetirizine stock?",
		Classified: classified(models.ActionCheckStock, models.IntentSearch, models.MedicineMention{Name: "cetirizine"}),
	}, resolver())

	assert.Contains(t, out.Reply, "running low")
}

func TestCheckStockOutOfStockOffersRestock(t *testing.T) {
	st := session.New("s1", "u1")
	out := Transition(st, Input{
		Utterance:  "paracetamol hai?",
		Classified: classified(models.ActionCheckStock, models.IntentSearch, models.MedicineMention{Name: "paracetamol"}),
	}, resolver())

	assert.Equal(t, session.ModeAwaitingOrderConfirmation, out.Next.Mode)
	assert.Equal(t, session.ConfirmRestock, out.Next.Confirm)
	assert.Equal(t, "m2", out.Next.TargetMedicineID)
	assert.Contains(t, out.Reply, "out of stock")
	assert.Empty(t, out.Commands)
}

// Drives the full restock wizard and checks the single MutateStock
// emission: 10 packets x 20 tablets at Rs 100/packet = 200 tablets at
// Rs 5 per tablet.
func TestStockWizardRoundTrip(t *testing.T) {
	resolve := resolver()
	st := session.New("s1", "u1")

	out := Transition(st, Input{
		Utterance:  "paracetamol hai?",
		Classified: classified(models.ActionCheckStock, models.IntentSearch, models.MedicineMention{Name: "paracetamol"}),
	}, resolve)
	require.Equal(t, session.ModeAwaitingOrderConfirmation, out.Next.Mode)

	out = Transition(out.Next, Input{Utterance: "Yes"}, resolve)
	require.Equal(t, session.ModeWizardAwaitName, out.Next.Mode)
	assert.Equal(t, replyAskWizardName, out.Reply)

	out = Transition(out.Next, Input{Utterance: "Paracetamol"}, resolve)
	require.Equal(t, session.ModeWizardAwaitPackets, out.Next.Mode)
	assert.Equal(t, "m2", out.Next.Wizard.MedicineID)

	out = Transition(out.Next, Input{Utterance: "10"}, resolve)
	require.Equal(t, session.ModeWizardAwaitTablets, out.Next.Mode)

	out = Transition(out.Next, Input{Utterance: "20"}, resolve)
	require.Equal(t, session.ModeWizardAwaitPrice, out.Next.Mode)

	out = Transition(out.Next, Input{Utterance: "100"}, resolve)
	assert.Equal(t, session.ModeIdle, out.Next.Mode)
	require.Len(t, out.Commands, 1)
	cmd := out.Commands[0]
	require.Equal(t, models.CommandMutateStock, cmd.Kind)
	require.NotNil(t, cmd.MutateStock)
	assert.Equal(t, "m2", cmd.MutateStock.MedicineID)
	assert.Equal(t, 10, cmd.MutateStock.DeltaPackets)
	assert.Equal(t, 20, cmd.MutateStock.TabletsPerPacket)
	assert.Equal(t, 100.0, cmd.MutateStock.PricePerPacket)
	assert.Contains(t, out.Reply, "200 tablets")
	assert.Contains(t, out.Reply, "5.00")
	assert.Equal(t, session.Wizard{}, out.Next.Wizard)
}

func TestRestockDeclined(t *testing.T) {
	resolve := resolver()
	st := session.New("s1", "u1")
	st.Mode = session.ModeAwaitingOrderConfirmation
	st.Confirm = session.ConfirmRestock
	st.TargetMedicineID = "m2"

	out := Transition(st, Input{Utterance: "no"}, resolve)
	assert.Equal(t, session.ModeIdle, out.Next.Mode)
	assert.Equal(t, session.ConfirmNone, out.Next.Confirm)
	assert.Empty(t, out.Next.TargetMedicineID)
	assert.Empty(t, out.Commands)
}

func TestWizardInvalidInputReprompts(t *testing.T) {
	resolve := resolver()
	tests := []struct {
		name string
		mode session.Mode
		bad  string
	}{
		{"packets non-integer", session.ModeWizardAwaitPackets, "ten"},
		{"packets zero", session.ModeWizardAwaitPackets, "0"},
		{"packets negative", session.ModeWizardAwaitPackets, "-3"},
		{"tablets non-integer", session.ModeWizardAwaitTablets, "a few"},
		{"price non-numeric", session.ModeWizardAwaitPrice, "cheap"},
		{"price negative", session.ModeWizardAwaitPrice, "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := session.New("s1", "u1")
			st.Mode = tt.mode
			st.Wizard = session.Wizard{MedicineID: "m2", MedicineName: "Paracetamol", Packets: 5, TabletsPerPacket: 10}

			out := Transition(st, Input{Utterance: tt.bad}, resolve)
			assert.Equal(t, tt.mode, out.Next.Mode, "mode must not change")
			assert.Empty(t, out.Commands, "no side effect on invalid input")
			assert.Equal(t, 1, out.Next.Retries)
		})
	}
}

func TestRepromptCapResetsToIdle(t *testing.T) {
	resolve := resolver()
	st := session.New("s1", "u1")
	st.Mode = session.ModeWizardAwaitPackets
	st.Wizard.MedicineID = "m2"

	cur := st
	for i := 0; i < MaxRetries-1; i++ {
		out := Transition(cur, Input{Utterance: "garbage"}, resolve)
		assert.Equal(t, session.ModeWizardAwaitPackets, out.Next.Mode)
		cur = out.Next
	}
	out := Transition(cur, Input{Utterance: "garbage"}, resolve)
	assert.Equal(t, session.ModeIdle, out.Next.Mode)
	assert.Equal(t, 0, out.Next.Retries)
	assert.Equal(t, session.Wizard{}, out.Next.Wizard)
	assert.Equal(t, replyStartOver, out.Reply)
}

func TestOrderRoundTrip(t *testing.T) {
	resolve := resolver()
	st := session.New("s1", "u1")

	out := Transition(st, Input{
		Utterance:  "order dolo",
		Classified: classified(models.ActionOrder, models.IntentOrder, models.MedicineMention{Name: "Dolo"}),
	}, resolve)
	require.Equal(t, session.ModeAwaitingQuantity, out.Next.Mode)
	assert.Equal(t, "m1", out.Next.TargetMedicineID)
	assert.Contains(t, out.Reply, "How many tablets")

	out = Transition(out.Next, Input{Utterance: "2"}, resolve)
	require.Equal(t, session.ModeConfirmingAddMore, out.Next.Mode)
	require.Len(t, out.Next.Cart, 1)
	assert.Equal(t, 2, out.Next.Cart[0].Quantity)

	out = Transition(out.Next, Input{Utterance: "no"}, resolve)
	require.Equal(t, session.ModeAwaitingOrderConfirmation, out.Next.Mode)
	assert.Equal(t, session.ConfirmCheckout, out.Next.Confirm)
	assert.Contains(t, out.Reply, "proceed")

	out = Transition(out.Next, Input{Utterance: "proceed", UserID: "u1"}, resolve)
	assert.Equal(t, session.ModeIdle, out.Next.Mode)
	assert.Empty(t, out.Next.Cart)
	require.Len(t, out.Commands, 1)
	cmd := out.Commands[0]
	require.Equal(t, models.CommandCreateOrder, cmd.Kind)
	require.NotNil(t, cmd.CreateOrder)
	require.Len(t, cmd.CreateOrder.Items, 1)
	assert.Equal(t, models.OrderItem{MedicineID: "m1", Quantity: 2}, cmd.CreateOrder.Items[0])
	assert.Equal(t, "u1", cmd.CreateOrder.UserID)
}

func TestOrderWithInlineQuantitySkipsPrompt(t *testing.T) {
	st := session.New("s1", "u1")
	out := Transition(st, Input{
		Utterance:  "2 dolo chahiye",
		Classified: classified(models.ActionOrder, models.IntentOrder, models.MedicineMention{Name: "Dolo", Quantity: intPtr(2)}),
	}, resolver())

	assert.Equal(t, session.ModeConfirmingAddMore, out.Next.Mode)
	require.Len(t, out.Next.Cart, 1)
	assert.Equal(t, "m1", out.Next.Cart[0].MedicineID)
	assert.Equal(t, 2, out.Next.Cart[0].Quantity)
}

func TestAddMoreKeepsCartAndReArms(t *testing.T) {
	resolve := resolver()
	st := session.New("s1", "u1")
	st.Mode = session.ModeConfirmingAddMore
	st.Cart = []session.CartLine{{MedicineID: "m1", Name: "Dolo 650", Quantity: 2}}

	out := Transition(st, Input{Utterance: "Y"}, resolve)
	assert.Equal(t, session.ModeIdle, out.Next.Mode)
	require.Len(t, out.Next.Cart, 1, "cart survives re-arming")

	// Next medicine goes on top of the existing cart.
	out = Transition(out.Next, Input{
		Utterance:  "cetirizine 5",
		Classified: classified(models.ActionOrder, models.IntentOrder, models.MedicineMention{Name: "cetirizine", Quantity: intPtr(5)}),
	}, resolve)
	assert.Equal(t, session.ModeConfirmingAddMore, out.Next.Mode)
	assert.Len(t, out.Next.Cart, 2)
}

func TestCheckoutDeclinedDropsCart(t *testing.T) {
	st := session.New("s1", "u1")
	st.Mode = session.ModeAwaitingOrderConfirmation
	st.Confirm = session.ConfirmCheckout
	st.Cart = []session.CartLine{{MedicineID: "m1", Name: "Dolo 650", Quantity: 2}}

	out := Transition(st, Input{Utterance: "cancel"}, resolver())
	assert.Equal(t, session.ModeIdle, out.Next.Mode)
	assert.Empty(t, out.Next.Cart)
	assert.Empty(t, out.Commands)
}

func TestRemoveMedicineFromAnyMode(t *testing.T) {
	resolve := resolver()
	for _, mode := range []session.Mode{
		session.ModeIdle,
		session.ModeAwaitingQuantity,
		session.ModeWizardAwaitPackets,
		session.ModeAwaitingOrderConfirmation,
	} {
		t.Run(string(mode), func(t *testing.T) {
			st := session.New("s1", "u1")
			st.Mode = mode

			out := Transition(st, Input{
				Utterance:  "remove cetirizine",
				Classified: classified(models.ActionRemove, models.IntentRemoveMedicine, models.MedicineMention{Name: "cetirizine"}),
			}, resolve)

			assert.Equal(t, session.ModeIdle, out.Next.Mode)
			require.Len(t, out.Commands, 1)
			require.Equal(t, models.CommandRemoveMedicine, out.Commands[0].Kind)
			assert.Equal(t, "m3", out.Commands[0].RemoveMedicine.MedicineID)
		})
	}
}

func TestRemoveUnknownMedicine(t *testing.T) {
	st := session.New("s1", "u1")
	out := Transition(st, Input{
		Utterance:  "remove aspirin",
		Classified: classified(models.ActionRemove, models.IntentRemoveMedicine, models.MedicineMention{Name: "aspirin"}),
	}, resolver())

	assert.Equal(t, session.ModeIdle, out.Next.Mode)
	assert.Empty(t, out.Commands)
	assert.Contains(t, out.Reply, "couldn't find")
}

func TestNilClassifierInIdleFallsBack(t *testing.T) {
	st := session.New("s1", "u1")
	out := Transition(st, Input{Utterance: "mumble"}, resolver())

	assert.Equal(t, session.ModeIdle, out.Next.Mode)
	assert.Empty(t, out.Commands)
	assert.NotEmpty(t, out.Reply)
}

func TestTransitionDeterministic(t *testing.T) {
	resolve := resolver()
	in := Input{
		Utterance:  "order dolo",
		Classified: classified(models.ActionOrder, models.IntentOrder, models.MedicineMention{Name: "Dolo"}),
	}

	st := session.New("s1", "u1")
	first := Transition(st, in, resolve)
	for i := 0; i < 20; i++ {
		out := Transition(st, in, resolve)
		assert.Equal(t, first.Next.Mode, out.Next.Mode)
		assert.Equal(t, first.Reply, out.Reply)
		assert.Equal(t, first.Commands, out.Commands)
	}
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	st := session.New("s1", "u1")
	st.Cart = []session.CartLine{{MedicineID: "m1", Name: "Dolo 650", Quantity: 2}}
	st.Mode = session.ModeConfirmingAddMore

	_ = Transition(st, Input{Utterance: "no"}, resolver())

	assert.Equal(t, session.ModeConfirmingAddMore, st.Mode, "input state must stay untouched")
	assert.Equal(t, session.ConfirmNone, st.Confirm)
}
