package domain

import (
	"errors"
	"strings"
	"time"
)

// DefaultPaymentTermsDays is used for new clients
const DefaultPaymentTermsDays = 30

type Client struct {
	ID               int64
	Name             string
	Email            string
	Phone            string
	Address          string
	Notes            string
	PaymentTermsDays int
	SendReminders    bool
	IsArchived       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewClient creates a new client with required fields
func NewClient(name, email string) *Client {
	now := time.Now()
	return &Client{
		Name:             strings.TrimSpace(name),
		Email:            strings.TrimSpace(email),
		PaymentTermsDays: DefaultPaymentTermsDays,
		SendReminders:    true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate returns an error if the client is invalid
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("client name is required")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return errors.New("client email must contain @")
	}
	if c.PaymentTermsDays < 0 {
		return errors.New("payment terms cannot be negative")
	}
	return nil
}

// DueDateFrom returns the due date for an invoice issued on the given day
func (c *Client) DueDateFrom(issued time.Time) time.Time {
	return issued.AddDate(0, 0, c.PaymentTermsDays)
}
