package main

import (
	"errors"

	"murmur/internal/viewmodel"

	"github.com/spf13/cobra"
)

func newProfileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or set up a profile",
	}
	cmd.AddCommand(newProfileSetupCommand(a), newProfileShowCommand(a))
	return cmd
}

func newProfileSetupCommand(a *app) *cobra.Command {
	var name, handle, avatar string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create or edit your display name, handle and avatar",
		RunE: func(cmd *cobra.Command, _ []string) error {
			img, err := readImage(avatar)
			if err != nil {
				return err
			}
			vm := viewmodel.NewProfileViewModel(cmd.Context(), a.rt.Users)
			defer vm.Close()
			if !vm.Save(name, handle, img) {
				st := vm.State()
				for _, msg := range []string{st.DisplayNameError, st.HandleError, st.Error} {
					if msg != "" {
						return errors.New(msg)
					}
				}
				return errors.New("profile not saved")
			}
			renderProfile(a.out, vm.State().Profile, a.palette())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&handle, "handle", "", "handle, 3-20 of a-z 0-9 _ .")
	cmd.Flags().StringVar(&avatar, "avatar", "", "path to an avatar image")
	return cmd
}

func newProfileShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [uid]",
		Short: "Show a profile, yours by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid := ""
			if len(args) == 1 {
				uid = args[0]
			}
			vm := viewmodel.NewProfileViewModel(cmd.Context(), a.rt.Users)
			defer vm.Close()
			if err := vm.Load(uid); err != nil {
				return errors.New(vm.State().Error)
			}
			renderProfile(a.out, vm.State().Profile, a.palette())
			return nil
		},
	}
}
