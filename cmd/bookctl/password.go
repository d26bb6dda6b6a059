package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetPasswordCmd = &cobra.Command{
	Use:     "reset-password",
	Short:   "Set a new password for a user and end their sessions",
	Example: `  bookctl reset-password --email kasir@toko.id --password 'baru-rahasia'`,
	RunE:    runResetPassword,
}

func init() {
	rootCmd.AddCommand(resetPasswordCmd)
	resetPasswordCmd.Flags().String("email", "", "User email")
	resetPasswordCmd.Flags().String("password", "", "New password (min 8 characters)")
	resetPasswordCmd.MarkFlagRequired("email")
	resetPasswordCmd.MarkFlagRequired("password")
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	if err := deps.Services.Auth.ResetPassword(email, password); err != nil {
		return err
	}
	fmt.Printf("Password for %s updated.\n", email)
	return nil
}
