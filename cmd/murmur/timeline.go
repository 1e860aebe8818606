package main

import (
	"fmt"

	"murmur/internal/handlers"
	"murmur/internal/observability"
	"murmur/internal/server"
	"murmur/internal/viewmodel"

	"github.com/spf13/cobra"
)

func newTimelineCommand(a *app) *cobra.Command {
	var (
		follow      bool
		user        string
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show the timeline, or follow it live",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var conn viewmodel.Connectivity
			if follow {
				conn = a.rt.Connectivity
			}
			vm := viewmodel.NewFeedViewModel(ctx, a.rt.Posts, conn, user)
			defer vm.Close()

			if !follow {
				st, err := awaitLoaded(ctx, vm)
				if err != nil {
					return err
				}
				renderTimeline(a.out, st.Posts, a.palette())
				return nil
			}

			if metricsAddr != "" {
				h := &handlers.Handlers{Connectivity: a.rt.Connectivity}
				go func() {
					if err := server.Run(ctx, metricsAddr, h); err != nil {
						observability.LogAsyncOperationError(ctx, "diagnostics_server", err,
							map[string]interface{}{"addr": metricsAddr})
					}
				}()
			}

			pal := a.palette()
			for st := range vm.Subscribe(ctx) {
				if st.Loading {
					continue
				}
				fmt.Fprint(a.out, "\033[H\033[2J")
				if st.Offline {
					a.printf("%s[offline] showing the last known timeline%s\n\n", pal.dim, pal.reset)
				}
				if st.Error != "" {
					a.printf("error: %s\n\n", st.Error)
				}
				renderTimeline(a.out, st.Posts, pal)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep running and redraw on every change")
	cmd.Flags().StringVar(&user, "user", "", "only posts by this user id")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "with --follow, serve /health and /metrics on this address")
	return cmd
}
