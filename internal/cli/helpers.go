package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/billbook/internal/builder"
	"github.com/andy/billbook/internal/domain"
	"github.com/andy/billbook/internal/repository"
	"github.com/shopspring/decimal"
)

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func isNumeric(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID: %w", what, err)
	}
	return id, nil
}

// parseDate accepts YYYY-MM-DD, "today" or "yesterday"
func parseDate(s string) (time.Time, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	default:
		t, err := time.Parse(builder.DateLayout, strings.TrimSpace(s))
		if err != nil {
			return time.Time{}, fmt.Errorf("expected format: YYYY-MM-DD, 'today', or 'yesterday'")
		}
		return t, nil
	}
}

// resolveClient finds a client by ID or, failing that, by name
func resolveClient(ctx context.Context, idOrName string) (*domain.Client, error) {
	if id, err := strconv.ParseInt(idOrName, 10, 64); err == nil {
		client, err := appInstance.ClientRepo.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("client with ID %d not found", id)
		}
		return client, err
	}

	client, err := appInstance.ClientRepo.GetByName(ctx, idOrName)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("client named '%s' not found", idOrName)
	}
	return client, err
}

// itemSpec is one --item flag value: "description;quantity;rate"
type itemSpec struct {
	Description string
	Quantity    string
	Rate        string
}

func parseItemSpec(s string) (itemSpec, error) {
	parts := strings.Split(s, ";")
	if len(parts) != 3 {
		return itemSpec{}, fmt.Errorf("item %q: expected \"description;quantity;rate\"", s)
	}
	spec := itemSpec{
		Description: strings.TrimSpace(parts[0]),
		Quantity:    strings.TrimSpace(parts[1]),
		Rate:        strings.TrimSpace(parts[2]),
	}
	for _, n := range []string{spec.Quantity, spec.Rate} {
		if _, err := decimal.NewFromString(n); err != nil {
			return itemSpec{}, fmt.Errorf("item %q: %q is not a number", s, n)
		}
	}
	return spec, nil
}

// applyItems appends one builder line item per --item flag
func applyItems(b *builder.Builder, specs []itemSpec) error {
	for _, spec := range specs {
		id := b.AddLineItem()
		if err := b.UpdateLineItem(id, builder.ItemDescription, spec.Description); err != nil {
			return err
		}
		if err := b.UpdateLineItem(id, builder.ItemQuantity, spec.Quantity); err != nil {
			return err
		}
		if err := b.UpdateLineItem(id, builder.ItemRate, spec.Rate); err != nil {
			return err
		}
	}
	return nil
}
