package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/aidtrace/internal/domain"
)

func (a *app) loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("AIDTRACE_PASSWORD")
			}
			if username == "" || password == "" {
				return errors.New("--username and --password (or AIDTRACE_PASSWORD) are required")
			}
			resp, err := a.client.Login(cmd.Context(), domain.Credentials{Username: username, Password: password})
			if err != nil {
				return err
			}
			dashboard, _ := resp.User.Role.Dashboard()
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s), dashboard %s\n",
				resp.User.DisplayName(), resp.User.Role.Label(), dashboard)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and their dashboard route",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.client.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			dashboard, err := user.Role.Dashboard()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s\n", user.Username, user.Role, dashboard)
			return nil
		},
	}
}

func (a *app) fieldOfficersCmd() *cobra.Command {
	parent := &cobra.Command{Use: "field-officers", Short: "Manage field officers"}
	var reg domain.Registration
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a field officer under your organisation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := a.client.CreateFieldOfficer(cmd.Context(), reg)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
	f := create.Flags()
	f.StringVar(&reg.Username, "username", "", "username")
	f.StringVar(&reg.Email, "email", "", "email")
	f.StringVar(&reg.Password, "password", "", "password")
	f.StringVar(&reg.FirstName, "first-name", "", "first name")
	f.StringVar(&reg.LastName, "last-name", "", "last name")
	f.StringVar(&reg.Phone, "phone", "", "phone")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")
	parent.AddCommand(create)
	return parent
}
