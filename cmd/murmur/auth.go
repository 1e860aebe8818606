package main

import (
	"errors"

	"murmur/internal/viewmodel"

	"github.com/spf13/cobra"
)

func newSignupCommand(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			vm := viewmodel.NewAuthViewModel(cmd.Context(), a.rt.Auth, a.rt.Users)
			defer vm.Close()
			if !vm.SignUp(email, password) {
				return authFailure(vm.State())
			}
			a.printf("Welcome! Set up your profile with `murmur profile setup --name ... --handle ...`.\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (min 6 characters)")
	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to an existing account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			vm := viewmodel.NewAuthViewModel(cmd.Context(), a.rt.Auth, a.rt.Users)
			defer vm.Close()
			if !vm.Login(email, password) {
				return authFailure(vm.State())
			}
			if vm.State().Destination == viewmodel.DestinationProfileSetup {
				a.printf("Logged in. Your profile is not set up yet: run `murmur profile setup`.\n")
				return nil
			}
			a.printf("Logged in.\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			vm := viewmodel.NewAuthViewModel(cmd.Context(), a.rt.Auth, a.rt.Users)
			defer vm.Close()
			if err := vm.Logout(); err != nil {
				return err
			}
			a.printf("Logged out.\n")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, ok := a.rt.AuthRepo.CurrentUser()
			if !ok {
				a.printf("Not logged in.\n")
				return nil
			}
			a.printf("%s (%s)\n", user.Email, user.UID)
			vm := viewmodel.NewProfileViewModel(cmd.Context(), a.rt.Users)
			defer vm.Close()
			if err := vm.Load(""); err == nil {
				renderProfile(a.out, vm.State().Profile, a.palette())
			}
			return nil
		},
	}
}

func authFailure(st viewmodel.AuthState) error {
	for _, msg := range []string{st.EmailError, st.PasswordError, st.Error} {
		if msg != "" {
			return errors.New(msg)
		}
	}
	return errors.New("authentication failed")
}
