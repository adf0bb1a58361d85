package cli

import (
	"context"
	"fmt"

	"github.com/andy/billbook/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the terminal UI",
	Long:  `Launch the interactive terminal user interface for billbook.`,
	RunE:  launchTUI,
}

func launchTUI(cmd *cobra.Command, args []string) error {
	if err := appInstance.CheckOverdue(context.Background()); err != nil {
		return fmt.Errorf("failed to check overdue invoices: %w", err)
	}
	return tui.Run(appInstance)
}
