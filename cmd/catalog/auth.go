package main

import (
	"github.com/spf13/cobra"

	"github.com/coderz/catalog-client/internal/core/domain"
)

func newAuthCommand(s *session) *cobra.Command {
	authCmd := &cobra.Command{
		Use:           "auth",
		Short:         "Sign in and manage the stored credential",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	loginCmd := &cobra.Command{
		Use:           "login",
		Short:         "Sign in and store the bearer token",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			res := a.auth.Login(cmd.Context(), domain.LoginInput{Email: email, Password: password})
			return printResult(newOutputFormatter(cmd), res, printSession)
		},
	}
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password")

	registerCmd := &cobra.Command{
		Use:           "register",
		Short:         "Create an account",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")
			res := a.auth.Register(cmd.Context(), domain.RegisterInput{Email: email, Password: password, Role: role})
			return printResult(newOutputFormatter(cmd), res, printSession)
		},
	}
	registerCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("password", "", "Account password (at least 6 characters)")
	registerCmd.Flags().String("role", "", "Requested role; the server decides")

	logoutCmd := &cobra.Command{
		Use:           "logout",
		Short:         "Forget the stored credential",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			return printResult(newOutputFormatter(cmd), a.auth.Logout(cmd.Context()), nil)
		},
	}

	whoamiCmd := &cobra.Command{
		Use:           "whoami",
		Short:         "Show the stored credential",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			return printResult(newOutputFormatter(cmd), a.auth.Current(cmd.Context()), printSession)
		},
	}

	authCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
	return authCmd
}
