package builder

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

// sampleDraft mirrors the two-item draft the modal builder opens with
func sampleDraft() Draft {
	return Draft{
		TemplateID:    TemplateProfessional,
		InvoiceNumber: "INV-001",
		ClientName:    "John Doe",
		ClientEmail:   "john@example.com",
		IssueDate:     "2026-03-01",
		DueDate:       "2026-03-16",
		LineItems: []LineItem{
			{ID: "1", Description: "Web Design Services", Quantity: dec("1"), Rate: dec("500")},
			{ID: "2", Description: "Logo Design", Quantity: dec("1"), Rate: dec("200")},
		},
		Notes: "Thank you for your business!",
	}
}

func assertTotalsConsistent(t *testing.T, b *Builder) {
	t.Helper()
	st := b.State()
	sum := decimal.Zero
	for _, item := range st.Draft.LineItems {
		assert.True(t, item.Amount.Equal(item.Quantity.Mul(item.Rate)),
			"item %s amount %s != %s * %s", item.ID, item.Amount, item.Quantity, item.Rate)
		sum = sum.Add(item.Amount)
	}
	assert.True(t, st.Subtotal.Equal(sum), "subtotal %s != %s", st.Subtotal, sum)
	assert.True(t, st.Tax.Equal(st.Subtotal.Mul(st.TaxRate)), "tax %s", st.Tax)
	assert.True(t, st.Total.Equal(st.Subtotal.Add(st.Tax)), "total %s", st.Total)
}

func TestNew_Defaults(t *testing.T) {
	b := New(WithClock(fixedClock))
	st := b.State()

	assert.Equal(t, 1, st.CurrentStep)
	assert.Equal(t, DefaultStepCount, st.StepCount)
	assert.False(t, st.PreviewMode)
	assert.Equal(t, DefaultTemplateID, st.Draft.TemplateID)
	assert.Equal(t, "2026-03-01", st.Draft.IssueDate)
	assert.Equal(t, "2026-03-31", st.Draft.DueDate)
	assert.Empty(t, st.Draft.LineItems)
	assert.True(t, st.TaxRate.Equal(dec("0.10")))
	assert.True(t, st.Subtotal.IsZero())
	assert.True(t, st.Tax.IsZero())
	assert.True(t, st.Total.IsZero())
}

func TestNew_InitialDraftRecomputesAmounts(t *testing.T) {
	d := sampleDraft()
	d.LineItems[0].Amount = dec("9999") // stale amount must not survive
	d.LineItems = append(d.LineItems, LineItem{Quantity: dec("2"), Rate: dec("5")})

	b := New(WithInitialDraft(d), WithTaxRate(decimal.Zero), WithIDGenerator(seqIDs()))
	st := b.State()

	require.Len(t, st.Draft.LineItems, 3)
	assert.True(t, st.Draft.LineItems[0].Amount.Equal(dec("500")))
	assert.Equal(t, "item-1", st.Draft.LineItems[2].ID)
	assert.True(t, st.Subtotal.Equal(dec("710")))
	assertTotalsConsistent(t, b)

	// the caller's draft is not shared with the builder
	d.LineItems[1].Rate = dec("1")
	assert.True(t, b.State().Draft.LineItems[1].Rate.Equal(dec("200")))
}

func TestNew_MinLineItemsSeedsBlankItems(t *testing.T) {
	b := New(WithMinLineItems(1), WithIDGenerator(seqIDs()))
	st := b.State()

	require.Len(t, st.Draft.LineItems, 1)
	item := st.Draft.LineItems[0]
	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, "", item.Description)
	assert.True(t, item.Quantity.Equal(dec("1")))
	assert.True(t, item.Rate.IsZero())
	assert.True(t, item.Amount.IsZero())
}

func TestScenario_TwoItemsThenQuantityChange(t *testing.T) {
	b := New(WithInitialDraft(sampleDraft()), WithTaxRate(decimal.Zero))

	st := b.State()
	assert.True(t, st.Subtotal.Equal(dec("700")))
	assert.True(t, st.Total.Equal(dec("700")))

	require.NoError(t, b.UpdateLineItem("1", ItemQuantity, "2"))

	st = b.State()
	assert.True(t, st.Subtotal.Equal(dec("900")))
	assert.True(t, st.Total.Equal(dec("900")))
	assertTotalsConsistent(t, b)
}

func TestScenario_DefaultTaxRate(t *testing.T) {
	b := New(WithInitialDraft(sampleDraft()))

	st := b.State()
	assert.True(t, st.Subtotal.Equal(dec("700")))
	assert.True(t, st.Tax.Equal(dec("70")))
	assert.True(t, st.Total.Equal(dec("770")))
}

func TestUpdateLineItem_NumericInput(t *testing.T) {
	tests := []struct {
		name       string
		field      ItemField
		value      string
		wantQty    string
		wantRate   string
		wantAmount string
	}{
		{name: "valid rate", field: ItemRate, value: "125.50", wantQty: "1", wantRate: "125.5", wantAmount: "125.5"},
		{name: "unparseable rate", field: ItemRate, value: "abc", wantQty: "1", wantRate: "0", wantAmount: "0"},
		{name: "empty rate", field: ItemRate, value: "", wantQty: "1", wantRate: "0", wantAmount: "0"},
		{name: "padded quantity", field: ItemQuantity, value: " 3 ", wantQty: "3", wantRate: "500", wantAmount: "1500"},
		{name: "unparseable quantity", field: ItemQuantity, value: "two", wantQty: "0", wantRate: "500", wantAmount: "0"},
		{name: "trailing unit", field: ItemQuantity, value: "2x", wantQty: "2", wantRate: "500", wantAmount: "1000"},
		{name: "thousands separator", field: ItemRate, value: "1,000", wantQty: "1", wantRate: "1", wantAmount: "1"},
		{name: "leading dot", field: ItemQuantity, value: ".5", wantQty: "0.5", wantRate: "500", wantAmount: "250"},
		{name: "negative accepted", field: ItemQuantity, value: "-1", wantQty: "-1", wantRate: "500", wantAmount: "-500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(WithInitialDraft(sampleDraft()), WithTaxRate(decimal.Zero))

			err := b.UpdateLineItem("1", tt.field, tt.value)
			require.NoError(t, err)

			item := b.State().Draft.LineItems[0]
			assert.True(t, item.Quantity.Equal(dec(tt.wantQty)), "quantity %s", item.Quantity)
			assert.True(t, item.Rate.Equal(dec(tt.wantRate)), "rate %s", item.Rate)
			assert.True(t, item.Amount.Equal(dec(tt.wantAmount)), "amount %s", item.Amount)
			assertTotalsConsistent(t, b)
		})
	}
}

func TestUpdateLineItem_AmountIsNotSettable(t *testing.T) {
	b := New(WithInitialDraft(sampleDraft()))

	require.NoError(t, b.UpdateLineItem("2", ItemAmount, "5"))

	item := b.State().Draft.LineItems[1]
	assert.True(t, item.Amount.Equal(dec("200")))
	assertTotalsConsistent(t, b)
}

func TestUpdateLineItem_DescriptionVerbatim(t *testing.T) {
	b := New(WithInitialDraft(sampleDraft()))

	require.NoError(t, b.UpdateLineItem("2", ItemDescription, "  Brand kit  "))
	assert.Equal(t, "  Brand kit  ", b.State().Draft.LineItems[1].Description)
}

func TestUpdateLineItem_UnknownIDAndField(t *testing.T) {
	b := New(WithInitialDraft(sampleDraft()))
	before := b.State()

	require.NoError(t, b.UpdateLineItem("missing", ItemRate, "10"))
	assert.Equal(t, before.Draft, b.State().Draft)

	err := b.UpdateLineItem("1", ItemField("discount"), "10")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestUpdateLineItem_InvariantHoldsAcrossSequence(t *testing.T) {
	b := New(WithTaxRate(dec("0.0825")), WithIDGenerator(seqIDs()))
	a := b.AddLineItem()
	c := b.AddLineItem()

	edits := []struct {
		id    string
		field ItemField
		value string
	}{
		{a, ItemQuantity, "3"},
		{a, ItemRate, "19.99"},
		{c, ItemRate, "0.333"},
		{c, ItemQuantity, "7"},
		{a, ItemRate, "oops"},
		{c, ItemQuantity, "1.5"},
		{a, ItemRate, "42"},
	}
	for _, e := range edits {
		require.NoError(t, b.UpdateLineItem(e.id, e.field, e.value))
		assertTotalsConsistent(t, b)
	}

	st := b.State()
	assert.True(t, st.Subtotal.Equal(dec("126.4995")), "subtotal %s", st.Subtotal)
}

func TestAddLineItem_Defaults(t *testing.T) {
	var events []Event
	b := New(
		WithInitialDraft(sampleDraft()),
		WithIDGenerator(seqIDs()),
		WithNotifier(NotifierFunc(func(e Event) { events = append(events, e) })),
	)
	before := b.Totals()

	id := b.AddLineItem()

	st := b.State()
	require.Len(t, st.Draft.LineItems, 3)
	last := st.Draft.LineItems[2]
	assert.Equal(t, id, last.ID)
	assert.Equal(t, "", last.Description)
	assert.True(t, last.Quantity.Equal(dec("1")))
	assert.True(t, last.Rate.IsZero())
	assert.True(t, last.Amount.IsZero())
	assert.True(t, st.Subtotal.Equal(before.Subtotal))
	require.Len(t, events, 1)
	assert.Equal(t, Event{Kind: EventItemAdded, Step: 1, ItemID: id}, events[0])
}

func TestAddLineItem_IDsAreUniqueWhenGeneratorCollides(t *testing.T) {
	b := New(WithInitialDraft(sampleDraft()), WithIDGenerator(func() string { return "1" }))

	first := b.AddLineItem()
	second := b.AddLineItem()

	assert.Equal(t, "1-2", first)
	assert.Equal(t, "1-3", second)
}

func TestAddRemove_RoundTrip(t *testing.T) {
	b := New(WithInitialDraft(sampleDraft()))
	before := b.State()

	id := b.AddLineItem()
	assert.True(t, b.RemoveLineItem(id))

	after := b.State()
	assert.Equal(t, before.Draft.LineItems, after.Draft.LineItems)
	assert.True(t, before.Total.Equal(after.Total))
}

func TestRemoveLineItem(t *testing.T) {
	t.Run("removes and recomputes", func(t *testing.T) {
		b := New(WithInitialDraft(sampleDraft()), WithTaxRate(decimal.Zero))

		assert.True(t, b.RemoveLineItem("1"))

		st := b.State()
		require.Len(t, st.Draft.LineItems, 1)
		assert.Equal(t, "2", st.Draft.LineItems[0].ID)
		assert.True(t, st.Total.Equal(dec("200")))
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		b := New(WithInitialDraft(sampleDraft()))
		assert.False(t, b.RemoveLineItem("nope"))
		assert.Len(t, b.State().Draft.LineItems, 2)
	})

	t.Run("may empty the collection by default", func(t *testing.T) {
		b := New(WithInitialDraft(sampleDraft()))
		assert.True(t, b.RemoveLineItem("1"))
		assert.True(t, b.RemoveLineItem("2"))

		st := b.State()
		assert.Empty(t, st.Draft.LineItems)
		assert.True(t, st.Subtotal.IsZero())
		assert.True(t, st.Tax.IsZero())
		assert.True(t, st.Total.IsZero())
	})

	t.Run("minimum of one is enforced", func(t *testing.T) {
		b := New(WithInitialDraft(sampleDraft()), WithMinLineItems(1))
		assert.True(t, b.RemoveLineItem("1"))
		assert.False(t, b.RemoveLineItem("2"))
		assert.Len(t, b.State().Draft.LineItems, 1)
	})
}

func TestAdvance_ThroughStepsThenFinalize(t *testing.T) {
	var saved []Snapshot
	b := New(
		WithInitialDraft(sampleDraft()),
		WithClock(fixedClock),
		WithOnSave(func(s Snapshot) { saved = append(saved, s) }),
	)

	for step := 2; step <= DefaultStepCount; step++ {
		assert.Equal(t, TransitionStep, b.Advance())
		assert.Equal(t, step, b.CurrentStep())
		assert.False(t, b.PreviewMode())
	}
	assert.Empty(t, saved)

	assert.Equal(t, TransitionFinalized, b.Advance())
	assert.Equal(t, DefaultStepCount, b.CurrentStep())
	assert.True(t, b.PreviewMode())
	require.Len(t, saved, 1)
	assert.Equal(t, "INV-001", saved[0].InvoiceNumber)
	assert.True(t, saved[0].Total.Equal(dec("770")))
	assert.Equal(t, fixedClock(), saved[0].FinalizedAt)

	// advancing again in preview changes nothing and does not re-save
	assert.Equal(t, TransitionNone, b.Advance())
	assert.Equal(t, DefaultStepCount, b.CurrentStep())
	assert.Len(t, saved, 1)
}

func TestAdvance_CustomStepCount(t *testing.T) {
	saves := 0
	b := New(WithStepCount(2), WithOnSave(func(Snapshot) { saves++ }))

	assert.Equal(t, TransitionStep, b.Advance())
	assert.Equal(t, TransitionFinalized, b.Advance())
	assert.Equal(t, 2, b.CurrentStep())
	assert.Equal(t, 1, saves)
}

func TestRetreat(t *testing.T) {
	t.Run("step 1 cancels", func(t *testing.T) {
		closed := 0
		b := New(WithOnClose(func() { closed++ }))

		assert.Equal(t, TransitionCancelled, b.Retreat())
		assert.Equal(t, 1, b.CurrentStep())
		assert.Equal(t, 1, closed)

		assert.Equal(t, TransitionCancelled, b.Retreat())
		assert.Equal(t, 1, b.CurrentStep())
		assert.Equal(t, 2, closed)
	})

	t.Run("decrements from later steps", func(t *testing.T) {
		closed := 0
		b := New(WithOnClose(func() { closed++ }))
		b.Advance()
		b.Advance()

		assert.Equal(t, TransitionStep, b.Retreat())
		assert.Equal(t, 2, b.CurrentStep())
		assert.Equal(t, 0, closed)
	})

	t.Run("no-op in preview", func(t *testing.T) {
		b := New()
		b.Advance()
		b.TogglePreview()

		assert.Equal(t, TransitionNone, b.Retreat())
		assert.Equal(t, 2, b.CurrentStep())
	})
}

func TestTogglePreview_IndependentOfStep(t *testing.T) {
	b := New()
	b.Advance()

	b.TogglePreview()
	assert.True(t, b.PreviewMode())
	assert.Equal(t, 2, b.CurrentStep())

	b.TogglePreview()
	assert.False(t, b.PreviewMode())
	assert.Equal(t, TransitionStep, b.Advance())
	assert.Equal(t, 3, b.CurrentStep())
}

func TestEditField(t *testing.T) {
	b := New()

	fields := map[Field]string{
		FieldInvoiceNumber: "INV-2026-007",
		FieldClientName:    "Acme Corp",
		FieldClientEmail:   "not-an-email",
		FieldIssueDate:     "yesterday",
		FieldDueDate:       "2026-13-45",
		FieldNotes:         "Net 30",
	}
	for f, v := range fields {
		require.NoError(t, b.EditField(f, v))
	}

	d := b.State().Draft
	assert.Equal(t, "INV-2026-007", d.InvoiceNumber)
	assert.Equal(t, "Acme Corp", d.ClientName)
	assert.Equal(t, "not-an-email", d.ClientEmail)
	assert.Equal(t, "yesterday", d.IssueDate)
	assert.Equal(t, "2026-13-45", d.DueDate)
	assert.Equal(t, "Net 30", d.Notes)

	assert.ErrorIs(t, b.EditField(Field("total"), "1"), ErrUnknownField)
}

func TestToggles_EmitAssetRequests(t *testing.T) {
	var events []Event
	b := New(WithNotifier(NotifierFunc(func(e Event) { events = append(events, e) })))
	require.True(t, b.State().Draft.IncludeLogo)

	b.ToggleLogo()
	assert.False(t, b.State().Draft.IncludeLogo)
	assert.Empty(t, events)

	b.ToggleLogo()
	assert.True(t, b.State().Draft.IncludeLogo)
	require.Len(t, events, 1)
	assert.Equal(t, AssetLogo, events[0].Asset)

	b.ToggleSignature()
	b.ToggleSignature()
	require.Len(t, events, 2)
	assert.Equal(t, EventAssetRequested, events[1].Kind)
	assert.Equal(t, AssetSignature, events[1].Asset)
}

func TestSelectTemplate(t *testing.T) {
	b := New()
	b.SelectTemplate(TemplateCreative)

	snap := b.Finalize()
	assert.Equal(t, TemplateCreative, snap.TemplateID)
	assert.Equal(t, "#8b5cf6", snap.Template.Color)

	b.SelectTemplate("neon")
	snap = b.Finalize()
	assert.Equal(t, "neon", snap.TemplateID)
	assert.Equal(t, TemplateProfessional, snap.Template.ID)
}

func TestFinalize_SnapshotIsFrozen(t *testing.T) {
	b := New(WithInitialDraft(sampleDraft()), WithTaxRate(decimal.Zero))

	snap := b.Finalize()

	require.NoError(t, b.UpdateLineItem("1", ItemRate, "1000"))
	require.NoError(t, b.EditField(FieldClientName, "Someone Else"))
	b.RemoveLineItem("2")
	b.AddLineItem()

	assert.Equal(t, "John Doe", snap.ClientName)
	require.Len(t, snap.LineItems, 2)
	assert.True(t, snap.LineItems[0].Rate.Equal(dec("500")))
	assert.Equal(t, "2", snap.LineItems[1].ID)
	assert.True(t, snap.Total.Equal(dec("700")))
}

func TestSend(t *testing.T) {
	var sent []Snapshot
	var kinds []EventKind
	b := New(
		WithInitialDraft(sampleDraft()),
		WithOnSend(func(s Snapshot) { sent = append(sent, s) }),
		WithNotifier(NotifierFunc(func(e Event) { kinds = append(kinds, e.Kind) })),
	)

	snap := b.Send()

	require.Len(t, sent, 1)
	assert.Equal(t, snap.InvoiceNumber, sent[0].InvoiceNumber)
	assert.Equal(t, []EventKind{EventFinalized, EventSent}, kinds)
}

func TestParseNumber(t *testing.T) {
	assert.True(t, ParseNumber("12.5").Equal(dec("12.5")))
	assert.True(t, ParseNumber("  7 ").Equal(dec("7")))
	assert.True(t, ParseNumber("abc").IsZero())
	assert.True(t, ParseNumber("NaN").IsZero())
	assert.True(t, ParseNumber("").IsZero())

	tests := []struct {
		in   string
		want string
	}{
		{in: "12abc", want: "12"},
		{in: "1,000", want: "1"},
		{in: "2.5kg", want: "2.5"},
		{in: ".5", want: "0.5"},
		{in: "-3.", want: "-3"},
		{in: "+4", want: "4"},
		{in: "1e3 units", want: "1000"},
		{in: "7e", want: "7"},
		{in: "$5", want: "0"},
		{in: "-", want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseNumber(tt.in)
			assert.True(t, got.Equal(dec(tt.want)), "ParseNumber(%q) = %s", tt.in, got)
		})
	}
}

func TestAdvance_LogsSave(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	b := New(
		WithInitialDraft(sampleDraft()),
		WithIDGenerator(seqIDs()),
		WithLogger(zap.New(core)),
	)

	for i := 0; i < b.StepCount(); i++ {
		b.Advance()
	}

	entries := logs.FilterMessage("invoice saved from builder").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "INV-001", fields["invoice_number"])
	assert.Equal(t, "770.00", fields["total"])
}
