package main

import (
	"fmt"

	"murmur/internal/viewmodel"

	"github.com/spf13/cobra"
)

func newSettingsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Device-local preferences",
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "dark-mode [on|off]",
		Short:     "Show or set dark mode",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			vm := viewmodel.NewSettingsViewModel(cmd.Context(), a.rt.Settings)
			defer vm.Close()
			if len(args) == 1 {
				switch args[0] {
				case "on", "off":
					if err := vm.SetDarkMode(args[0] == "on"); err != nil {
						return err
					}
				default:
					return fmt.Errorf("expected on or off, got %q", args[0])
				}
			}
			state := "off"
			if vm.State().DarkMode {
				state = "on"
			}
			a.printf("dark mode: %s\n", state)
			return nil
		},
	})
	return cmd
}
