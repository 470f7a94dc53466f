package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userPassword string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage catalog users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userPassword == "" {
			return fmt.Errorf("a password is required")
		}
		ctx := commandContext(cmd)
		s, err := openService(ctx)
		if err != nil {
			return err
		}
		defer s.Close(ctx)
		id, err := s.AddUser(ctx, args[0], userPassword)
		if err != nil {
			return err
		}
		return printOutput(map[string]any{"id": id, "username": args[0]})
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		s, err := openService(ctx)
		if err != nil {
			return err
		}
		defer s.Close(ctx)
		users, err := s.GetUsers(ctx)
		if err != nil {
			return err
		}
		return printOutput(users)
	},
}

var userCheckCmd = &cobra.Command{
	Use:   "check <username>",
	Short: "Check a user's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		s, err := openService(ctx)
		if err != nil {
			return err
		}
		defer s.Close(ctx)
		u, err := s.Authenticate(ctx, args[0], userPassword)
		if err != nil {
			return err
		}
		return printOutput(map[string]any{"id": u.ID, "username": u.Username, "authenticated": true})
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd, userListCmd, userCheckCmd)

	userAddCmd.Flags().StringVarP(&userPassword, "password", "p", "", "Password of the new user")
	userCheckCmd.Flags().StringVarP(&userPassword, "password", "p", "", "Password to check")
}
