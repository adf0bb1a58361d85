package builder

// EventKind identifies a side-channel notification emitted by the builder.
// Presentation layers use these for animation or haptic feedback; they carry
// no state-machine semantics.
type EventKind string

const (
	EventStepChanged      EventKind = "step_changed"
	EventPreviewToggled   EventKind = "preview_toggled"
	EventTemplateSelected EventKind = "template_selected"
	EventItemAdded        EventKind = "item_added"
	EventItemRemoved      EventKind = "item_removed"
	EventItemUpdated      EventKind = "item_updated"
	EventAssetRequested   EventKind = "asset_requested"
	EventFinalized        EventKind = "finalized"
	EventSent             EventKind = "sent"
	EventCancelled        EventKind = "cancelled"
)

// Asset names carried by EventAssetRequested
const (
	AssetLogo      = "logo"
	AssetSignature = "signature"
)

type Event struct {
	Kind   EventKind
	Step   int
	ItemID string
	Asset  string
}

// Notifier receives builder events
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
