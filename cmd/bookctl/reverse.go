package main

import (
	"context"
	"fmt"
	"slices"

	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var reverseCmd = &cobra.Command{
	Use:   "reverse <ledger-entry-id>",
	Short: "Reverse a ledger entry and undo its effect on invoices and stock",
	Long: `Reverse deletes a mutasi entry. For a PAYMENT the whole batch is removed and
the invoices get their amount paid back; for a RETURN the returned quantities
go back onto the invoice and out of stock again.`,
	Example: `  bookctl reverse 7c9e6679-7425-40de-944b-e07fc1f90ae7 --as owner@toko.id`,
	Args:    cobra.ExactArgs(1),
	RunE:    runReverse,
}

func init() {
	rootCmd.AddCommand(reverseCmd)
	reverseCmd.Flags().String("as", "", "Email of the user recorded as deleting the entry")
	reverseCmd.MarkFlagRequired("as")
}

func runReverse(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid ledger entry id: %w", err)
	}
	email, _ := cmd.Flags().GetString("as")

	user, err := deps.Store.Users.FindByEmail(email)
	if err != nil {
		return fmt.Errorf("user %s: %w", email, service.ErrUserNotFound)
	}
	if !slices.Contains(user.Privileges(), model.PrivLedgerReverse) {
		return fmt.Errorf("%s (%s) may not reverse ledger entries", user.Email, user.Role)
	}

	actor := service.Actor{ID: user.ID.String(), Name: user.FullName, Email: user.Email}
	res, err := deps.Services.Reconciliation.Reverse(context.Background(), id, actor)
	if err != nil {
		return err
	}

	fmt.Printf("Reversed %s entry, %d ledger row(s) removed.\n", res.Category, len(res.DeletedEntries))
	for _, inv := range res.Invoices {
		fmt.Printf("  %s  total %s  paid %s  %s\n", inv.Number, inv.TotalDue.StringFixed(2), inv.AmountPaid.StringFixed(2), inv.Status)
	}
	for _, id := range res.SkippedInvoices {
		fmt.Printf("  invoice %s no longer exists, skipped\n", id)
	}
	return nil
}
