// Package builder implements the multi-step invoice wizard: a state machine
// that owns one draft invoice, keeps its line items and totals consistent,
// and hands frozen snapshots to save/send collaborators.
package builder

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reference wizard steps
const (
	StepTemplate = iota + 1
	StepDetails
	StepLineItems
	StepCustomize
	StepPreview
)

const (
	DefaultStepCount = 5
	DefaultDueDays   = 30
)

// DefaultTaxRate is the flat rate applied when none is configured
var DefaultTaxRate = decimal.RequireFromString("0.10")

var ErrUnknownField = errors.New("unknown field")

// StepName returns the display name of a reference step
func StepName(step int) string {
	switch step {
	case StepTemplate:
		return "Template"
	case StepDetails:
		return "Details"
	case StepLineItems:
		return "Line Items"
	case StepCustomize:
		return "Customize"
	case StepPreview:
		return "Preview"
	default:
		return fmt.Sprintf("Step %d", step)
	}
}

// Field names a scalar draft field editable through EditField
type Field string

const (
	FieldInvoiceNumber Field = "invoiceNumber"
	FieldClientName    Field = "clientName"
	FieldClientEmail   Field = "clientEmail"
	FieldIssueDate     Field = "issueDate"
	FieldDueDate       Field = "dueDate"
	FieldNotes         Field = "notes"
)

// ItemField names a line item field editable through UpdateLineItem
type ItemField string

const (
	ItemDescription ItemField = "description"
	ItemQuantity    ItemField = "quantity"
	ItemRate        ItemField = "rate"
	ItemAmount      ItemField = "amount" // derived; writes are ignored
)

// Transition reports what Advance or Retreat did
type Transition int

const (
	TransitionNone Transition = iota
	TransitionStep
	TransitionFinalized
	TransitionCancelled
)

// State is the read-only view of a builder used for rendering
type State struct {
	CurrentStep int
	StepCount   int
	PreviewMode bool
	Draft       Draft
	TaxRate     decimal.Decimal
	Totals
}

// Builder is the invoice wizard. It is owned by a single session and is not
// safe for concurrent use.
type Builder struct {
	draft       Draft
	totals      Totals
	taxRate     decimal.Decimal
	stepCount   int
	minItems    int
	dueDays     int
	currentStep int
	previewMode bool

	initial  *Draft
	onSave   func(Snapshot)
	onSend   func(Snapshot)
	onClose  func()
	notifier Notifier
	newID    func() string
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithInitialDraft opens the builder on existing data (edit flow)
func WithInitialDraft(d Draft) Option {
	return func(b *Builder) {
		c := d.Clone()
		b.initial = &c
	}
}

// WithTaxRate sets the flat tax rate (0.10 = 10%)
func WithTaxRate(rate decimal.Decimal) Option {
	return func(b *Builder) { b.taxRate = rate }
}

// WithStepCount sets the number of content steps; values below 1 are ignored
func WithStepCount(n int) Option {
	return func(b *Builder) {
		if n >= 1 {
			b.stepCount = n
		}
	}
}

// WithMinLineItems refuses removals that would leave fewer than n items and
// seeds blank items up to n when the builder opens
func WithMinLineItems(n int) Option {
	return func(b *Builder) {
		if n >= 0 {
			b.minItems = n
		}
	}
}

// WithDueDays sets the due date offset for blank drafts
func WithDueDays(days int) Option {
	return func(b *Builder) { b.dueDays = days }
}

func WithOnSave(fn func(Snapshot)) Option {
	return func(b *Builder) { b.onSave = fn }
}

func WithOnSend(fn func(Snapshot)) Option {
	return func(b *Builder) { b.onSend = fn }
}

func WithOnClose(fn func()) Option {
	return func(b *Builder) { b.onClose = fn }
}

func WithNotifier(n Notifier) Option {
	return func(b *Builder) {
		if n != nil {
			b.notifier = n
		}
	}
}

// WithIDGenerator overrides uuid-based line item IDs
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

func WithClock(fn func() time.Time) Option {
	return func(b *Builder) {
		if fn != nil {
			b.now = fn
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// New opens a builder at step 1 with preview off
func New(opts ...Option) *Builder {
	b := &Builder{
		taxRate:     DefaultTaxRate,
		stepCount:   DefaultStepCount,
		dueDays:     DefaultDueDays,
		currentStep: 1,
		onSave:      func(Snapshot) {},
		onSend:      func(Snapshot) {},
		onClose:     func() {},
		notifier:    nopNotifier{},
		newID:       uuid.NewString,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.initial != nil {
		b.draft = *b.initial
		b.initial = nil
	} else {
		b.draft = BlankDraft(b.now(), b.dueDays)
	}
	if b.draft.TemplateID == "" {
		b.draft.TemplateID = DefaultTemplateID
	}
	if b.draft.LineItems == nil {
		b.draft.LineItems = make([]LineItem, 0)
	}
	for i := range b.draft.LineItems {
		if b.draft.LineItems[i].ID == "" {
			b.draft.LineItems[i].ID = b.uniqueID()
		}
		b.draft.LineItems[i].recompute()
	}
	for len(b.draft.LineItems) < b.minItems {
		b.draft.LineItems = append(b.draft.LineItems, b.blankItem())
	}
	b.recalculate()

	b.logger.Debug("invoice builder opened",
		zap.String("invoice_number", b.draft.InvoiceNumber),
		zap.Int("line_items", len(b.draft.LineItems)),
		zap.Int("step_count", b.stepCount),
		zap.String("tax_rate", b.taxRate.String()))

	return b
}

// State returns a copy of the current wizard state
func (b *Builder) State() State {
	return State{
		CurrentStep: b.currentStep,
		StepCount:   b.stepCount,
		PreviewMode: b.previewMode,
		Draft:       b.draft.Clone(),
		TaxRate:     b.taxRate,
		Totals:      b.totals,
	}
}

func (b *Builder) CurrentStep() int  { return b.currentStep }
func (b *Builder) StepCount() int    { return b.stepCount }
func (b *Builder) PreviewMode() bool { return b.previewMode }
func (b *Builder) Totals() Totals    { return b.totals }

// Advance moves to the next step. At the last step it finalizes, hands the
// snapshot to the save callback and enters preview. In preview it does nothing.
func (b *Builder) Advance() Transition {
	if b.previewMode {
		return TransitionNone
	}

	if b.currentStep < b.stepCount {
		b.currentStep++
		b.notifier.Notify(Event{Kind: EventStepChanged, Step: b.currentStep})
		return TransitionStep
	}

	snap := b.Finalize()
	b.onSave(snap)
	b.previewMode = true
	b.notifier.Notify(Event{Kind: EventPreviewToggled, Step: b.currentStep})
	b.logger.Info("invoice saved from builder",
		zap.String("invoice_number", snap.InvoiceNumber),
		zap.String("total", snap.Total.StringFixed(2)))
	return TransitionFinalized
}

// Retreat moves to the previous step. At step 1 it signals cancel to the host.
// In preview it does nothing; use TogglePreview to return to editing.
func (b *Builder) Retreat() Transition {
	if b.previewMode {
		return TransitionNone
	}

	if b.currentStep > 1 {
		b.currentStep--
		b.notifier.Notify(Event{Kind: EventStepChanged, Step: b.currentStep})
		return TransitionStep
	}

	b.notifier.Notify(Event{Kind: EventCancelled, Step: b.currentStep})
	b.logger.Debug("invoice builder cancelled")
	b.onClose()
	return TransitionCancelled
}

// TogglePreview flips preview mode from any step
func (b *Builder) TogglePreview() {
	b.previewMode = !b.previewMode
	b.notifier.Notify(Event{Kind: EventPreviewToggled, Step: b.currentStep})
}

// Close signals the host that the wizard is done; the draft is discarded by
// the caller
func (b *Builder) Close() {
	b.onClose()
}

// SelectTemplate sets the visual template. Unknown IDs are stored as given;
// renderers fall back to the default template.
func (b *Builder) SelectTemplate(id string) {
	b.draft.TemplateID = id
	b.notifier.Notify(Event{Kind: EventTemplateSelected, Step: b.currentStep})
}

// EditField stores a scalar field verbatim. Content is never validated here.
func (b *Builder) EditField(name Field, value string) error {
	switch name {
	case FieldInvoiceNumber:
		b.draft.InvoiceNumber = value
	case FieldClientName:
		b.draft.ClientName = value
	case FieldClientEmail:
		b.draft.ClientEmail = value
	case FieldIssueDate:
		b.draft.IssueDate = value
	case FieldDueDate:
		b.draft.DueDate = value
	case FieldNotes:
		b.draft.Notes = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// ToggleLogo flips the logo block. Turning it on asks the host for an asset.
func (b *Builder) ToggleLogo() {
	b.draft.IncludeLogo = !b.draft.IncludeLogo
	if b.draft.IncludeLogo {
		b.notifier.Notify(Event{Kind: EventAssetRequested, Step: b.currentStep, Asset: AssetLogo})
	}
}

// ToggleSignature flips the signature block. Turning it on asks the host for
// an asset.
func (b *Builder) ToggleSignature() {
	b.draft.IncludeSignature = !b.draft.IncludeSignature
	if b.draft.IncludeSignature {
		b.notifier.Notify(Event{Kind: EventAssetRequested, Step: b.currentStep, Asset: AssetSignature})
	}
}

// AddLineItem appends a blank item (quantity 1, rate 0) and returns its ID
func (b *Builder) AddLineItem() string {
	item := b.blankItem()
	b.draft.LineItems = append(b.draft.LineItems, item)
	b.recalculate()
	b.notifier.Notify(Event{Kind: EventItemAdded, Step: b.currentStep, ItemID: item.ID})
	return item.ID
}

// RemoveLineItem deletes the item with the given ID. Unknown IDs and removals
// below the configured minimum are ignored; the return value reports whether
// an item was removed.
func (b *Builder) RemoveLineItem(id string) bool {
	idx := b.draft.indexOf(id)
	if idx < 0 {
		return false
	}
	if len(b.draft.LineItems) <= b.minItems {
		b.logger.Debug("line item removal refused",
			zap.String("item_id", id),
			zap.Int("min_line_items", b.minItems))
		return false
	}

	b.draft.LineItems = append(b.draft.LineItems[:idx], b.draft.LineItems[idx+1:]...)
	b.recalculate()
	b.notifier.Notify(Event{Kind: EventItemRemoved, Step: b.currentStep, ItemID: id})
	return true
}

// UpdateLineItem edits one field of a line item. Quantity and rate are parsed
// as numbers and fall back to zero when unparseable. Writes to amount are
// ignored. Unknown item IDs are a no-op.
func (b *Builder) UpdateLineItem(id string, field ItemField, value string) error {
	idx := b.draft.indexOf(id)

	switch field {
	case ItemDescription, ItemQuantity, ItemRate, ItemAmount:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if idx < 0 {
		return nil
	}

	item := &b.draft.LineItems[idx]
	switch field {
	case ItemDescription:
		item.Description = value
	case ItemQuantity:
		item.Quantity = ParseNumber(value)
	case ItemRate:
		item.Rate = ParseNumber(value)
	}
	item.recompute()
	b.recalculate()
	b.notifier.Notify(Event{Kind: EventItemUpdated, Step: b.currentStep, ItemID: id})
	return nil
}

// Finalize freezes the current draft and totals into a snapshot. Later edits
// to the builder do not affect a returned snapshot.
func (b *Builder) Finalize() Snapshot {
	template, _ := LookupTemplate(b.draft.TemplateID)
	snap := Snapshot{
		Draft:       b.draft.Clone(),
		Totals:      b.totals,
		TaxRate:     b.taxRate,
		Template:    template,
		FinalizedAt: b.now(),
	}
	b.notifier.Notify(Event{Kind: EventFinalized, Step: b.currentStep})
	return snap
}

// Send finalizes the draft and hands the snapshot to the send callback
func (b *Builder) Send() Snapshot {
	snap := b.Finalize()
	b.onSend(snap)
	b.notifier.Notify(Event{Kind: EventSent, Step: b.currentStep})
	b.logger.Info("invoice sent from builder",
		zap.String("invoice_number", snap.InvoiceNumber),
		zap.String("client_email", snap.ClientEmail))
	return snap
}

func (b *Builder) recalculate() {
	b.totals = ComputeTotals(b.draft.LineItems, b.taxRate)
}

func (b *Builder) blankItem() LineItem {
	item := LineItem{
		ID:       b.uniqueID(),
		Quantity: decimal.NewFromInt(1),
		Rate:     decimal.Zero,
	}
	item.recompute()
	return item
}

// uniqueID draws an ID from the generator that does not collide with an
// existing line item
func (b *Builder) uniqueID() string {
	id := b.newID()
	if b.draft.indexOf(id) < 0 {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if b.draft.indexOf(candidate) < 0 {
			return candidate
		}
	}
}

var leadingNumber = regexp.MustCompile(`^([+-]?)(\d+(?:\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads the leading number of user input as a decimal, so
// "2.5kg" is 2.5 and "1,000" is 1. Input without a leading number is zero.
func ParseNumber(s string) decimal.Decimal {
	m := leadingNumber.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return decimal.Zero
	}
	mantissa := strings.TrimSuffix(m[2], ".")
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	}
	d, err := decimal.NewFromString(m[1] + mantissa + m[3])
	if err != nil {
		return decimal.Zero
	}
	return d
}
