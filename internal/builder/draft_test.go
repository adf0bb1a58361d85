package builder

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftCheck(t *testing.T) {
	tests := []struct {
		name    string
		issue   string
		due     string
		wantErr []error
	}{
		{name: "valid", issue: "2026-03-01", due: "2026-03-31"},
		{name: "same day", issue: "2026-03-01", due: "2026-03-01"},
		{name: "due before issue", issue: "2026-03-10", due: "2026-03-01", wantErr: []error{ErrDueBeforeIssue}},
		{name: "bad issue", issue: "03/01/2026", due: "2026-03-01", wantErr: []error{ErrInvalidDate}},
		{name: "both bad", issue: "", due: "soon", wantErr: []error{ErrInvalidDate}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Draft{IssueDate: tt.issue, DueDate: tt.due}.Check()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestComputeTotals(t *testing.T) {
	items := []LineItem{
		{Quantity: dec("2"), Rate: dec("10.25")},
		{Quantity: dec("0.5"), Rate: dec("80")},
	}
	for i := range items {
		items[i].recompute()
	}

	got := ComputeTotals(items, dec("0.10"))
	assert.True(t, got.Subtotal.Equal(dec("60.5")))
	assert.True(t, got.Tax.Equal(dec("6.05")))
	assert.True(t, got.Total.Equal(dec("66.55")))

	empty := ComputeTotals(nil, dec("0.10"))
	assert.True(t, empty.Total.IsZero())
}

func TestComputeTotals_UsesStoredAmounts(t *testing.T) {
	items := []LineItem{{Quantity: dec("3"), Rate: dec("3"), Amount: dec("1")}}
	got := ComputeTotals(items, decimal.Zero)
	assert.True(t, got.Subtotal.Equal(dec("1")))
}

func TestDraftClone(t *testing.T) {
	d := sampleDraft()
	c := d.Clone()
	c.LineItems[0].Description = "changed"
	c.LineItems = append(c.LineItems, LineItem{ID: "3"})

	assert.Equal(t, "Web Design Services", d.LineItems[0].Description)
	assert.Len(t, d.LineItems, 2)
}

func TestBlankDraft(t *testing.T) {
	now := time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC)
	d := BlankDraft(now, 30)

	assert.Equal(t, "2026-12-15", d.IssueDate)
	assert.Equal(t, "2027-01-14", d.DueDate)
	assert.Equal(t, TemplateProfessional, d.TemplateID)
	assert.NotNil(t, d.LineItems)
	assert.True(t, d.IncludeLogo)
	assert.True(t, d.IncludeSignature)
}

func TestSnapshotDates(t *testing.T) {
	s := Snapshot{Draft: Draft{IssueDate: "2026-03-01", DueDate: "bad"}}
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), s.ParseIssueDate())
	assert.True(t, s.ParseDueDate().IsZero())
}

func TestLookupTemplate(t *testing.T) {
	tmpl, ok := LookupTemplate(TemplateMinimal)
	assert.True(t, ok)
	assert.Equal(t, "#0ea5e9", tmpl.Color)

	tmpl, ok = LookupTemplate("unknown")
	assert.False(t, ok)
	assert.Equal(t, DefaultTemplateID, tmpl.ID)

	list := Templates()
	require.Len(t, list, 3)
	list[0].Name = "mutated"
	assert.Equal(t, "Professional", Templates()[0].Name)
}

func TestStepName(t *testing.T) {
	assert.Equal(t, "Template", StepName(StepTemplate))
	assert.Equal(t, "Preview", StepName(StepPreview))
	assert.Equal(t, "Step 7", StepName(7))
}
