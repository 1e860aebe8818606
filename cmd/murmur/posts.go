package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"murmur/internal/models"
	"murmur/internal/viewmodel"

	"github.com/spf13/cobra"
)

const loadTimeout = 15 * time.Second

func newPostCommand(a *app) *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "post [text...]",
		Short: "Publish a post with optional image",
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImage(image)
			if err != nil {
				return err
			}
			vm := viewmodel.NewComposeViewModel(cmd.Context(), a.rt.Posts)
			defer vm.Close()
			post, err := vm.Submit(strings.Join(args, " "), img)
			if err != nil {
				return errors.New(vm.State().Error)
			}
			renderPost(a.out, *post, a.palette())
			return nil
		},
	}
	cmd.Flags().StringVar(&image, "image", "", "path to an image to attach")
	return cmd
}

func newEditCommand(a *app) *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "edit <post-id> [text...]",
		Short: "Rewrite one of your posts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImage(image)
			if err != nil {
				return err
			}
			vm := viewmodel.NewComposeViewModel(cmd.Context(), a.rt.Posts)
			defer vm.Close()
			post, err := vm.SubmitEdit(args[0], strings.Join(args[1:], " "), img)
			if err != nil {
				return errors.New(vm.State().Error)
			}
			renderPost(a.out, *post, a.palette())
			return nil
		},
	}
	cmd.Flags().StringVar(&image, "image", "", "path to a replacement image")
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete one of your posts and its image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.rt.Posts.DeletePost(cmd.Context(), args[0]); err != nil {
				return errors.New(models.UserMessage(err))
			}
			a.printf("Deleted %s.\n", args[0])
			return nil
		},
	}
}

// newLikeCommand builds `like` or `unlike`. Both go through the feed's
// optimistic toggle, so the post must be on the timeline.
func newLikeCommand(a *app, like bool) *cobra.Command {
	use, short := "unlike <post-id>", "Remove your like from a post"
	if like {
		use, short = "like <post-id>", "Like a post"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.rt.Auth.IsLoggedIn() {
				return errors.New("log in first")
			}
			vm := viewmodel.NewFeedViewModel(cmd.Context(), a.rt.Posts, nil, "")
			defer vm.Close()
			st, err := awaitLoaded(cmd.Context(), vm)
			if err != nil {
				return err
			}
			postID := args[0]
			for _, p := range st.Posts {
				if p.ID != postID {
					continue
				}
				if p.IsLiked == like {
					a.printf("Nothing to do.\n")
					return nil
				}
				if err := vm.ToggleLike(postID); err != nil {
					return errors.New(vm.State().Error)
				}
				for _, q := range vm.State().Posts {
					if q.ID == postID {
						renderPost(a.out, q, a.palette())
					}
				}
				return nil
			}
			return fmt.Errorf("post %s is not on the timeline", postID)
		},
	}
}

// awaitLoaded waits for the feed's first settled state.
func awaitLoaded(ctx context.Context, vm *viewmodel.FeedViewModel) (viewmodel.FeedState, error) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	for st := range vm.Subscribe(ctx) {
		if st.Loading {
			continue
		}
		if st.Error != "" {
			return st, errors.New(st.Error)
		}
		return st, nil
	}
	return viewmodel.FeedState{}, fmt.Errorf("timeline did not load: %w", ctx.Err())
}
