package main

import (
	"murmur/internal/seed"

	"github.com/spf13/cobra"
)

func newSeedCommand(a *app) *cobra.Command {
	var opts seed.Options
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the store with demo users, posts and likes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Secret = a.rt.Config.JWTSecret
			res, err := seed.NewSeeder(a.rt.Store, opts).Run(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("Seeded %d users, %d posts, %d likes.\n", len(res.Users), len(res.Posts), res.Likes)
			a.printf("Every account uses the password %q, e.g. %s\n", seed.DefaultPassword, res.Users[0].Email)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.NumUsers, "users", 10, "number of users to create")
	cmd.Flags().IntVar(&opts.NumPosts, "posts", 40, "number of posts to create")
	cmd.Flags().BoolVar(&opts.ShouldClean, "clean", false, "delete existing posts, profiles and accounts first")
	cmd.Flags().IntVar(&opts.LikeChance, "like-chance", 25, "percent chance a user likes a post")
	return cmd
}
