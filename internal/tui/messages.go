package tui

import "github.com/andy/billbook/internal/builder"

// SwitchScreenMsg requests a screen change
type SwitchScreenMsg struct {
	Screen Screen
}

// RefreshDataMsg requests data refresh
type RefreshDataMsg struct{}

// ErrorMsg carries error information
type ErrorMsg struct {
	Err error
}

// OpenNewClientFormMsg tells the clients screen to open the new client form
type OpenNewClientFormMsg struct{}

// OpenBuilderMsg opens the invoice wizard. A nil Draft starts a new invoice.
type OpenBuilderMsg struct {
	Draft *builder.Draft
}

// BuilderClosedMsg returns from the wizard to the invoices screen
type BuilderClosedMsg struct {
	Status string
}

// firstRunCheckMsg reports whether the database has any clients
type firstRunCheckMsg struct {
	hasClients bool
}
