package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"murmur/internal/bootstrap"
	"murmur/internal/config"
	"murmur/internal/observability"
	"murmur/internal/viewmodel"

	"github.com/spf13/cobra"
)

// app is the state shared by every command of one invocation.
type app struct {
	out     io.Writer
	verbose bool
	rt      *bootstrap.Runtime
	dark    bool
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "murmur",
		Short:         "Post, like and follow a live timeline from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := observability.WithCorrelationID(cmd.Context(), observability.GenerateCorrelationID())
			cmd.SetContext(ctx)
			return a.open(ctx)
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "write structured logs to stderr")

	root.AddCommand(
		newSignupCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newProfileCommand(a),
		newPostCommand(a),
		newEditCommand(a),
		newDeleteCommand(a),
		newLikeCommand(a, true),
		newLikeCommand(a, false),
		newTimelineCommand(a),
		newSettingsCommand(a),
		newSeedCommand(a),
	)
	return root
}

func (a *app) open(ctx context.Context) error {
	if a.rt != nil {
		return nil
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	opts := bootstrap.Options{}
	if a.verbose {
		opts.LogWriter = os.Stderr
		opts.TraceWriter = os.Stderr
	}
	rt, err := bootstrap.InitRuntime(ctx, cfg, opts)
	if err != nil {
		return err
	}
	a.rt = rt

	settings := viewmodel.NewSettingsViewModel(ctx, rt.Settings)
	a.dark = settings.State().DarkMode
	settings.Close()
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.rt == nil {
		return nil
	}
	err := a.rt.Close(ctx)
	a.rt = nil
	return err
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// readImage loads an optional image file.
func readImage(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
