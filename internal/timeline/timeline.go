// Package timeline combines the live post stream with the viewer's live
// liked-set into the per-viewer timeline.
package timeline

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/stream"
)

// Annotate returns a copy of posts with IsLiked set from liked. The input
// slice is not modified.
func Annotate(posts []models.Post, liked models.LikedSet) []models.Post {
	out := make([]models.Post, len(posts))
	for i, p := range posts {
		p.IsLiked = liked.Contains(p.ID)
		out[i] = p
	}
	return out
}

// Merge is combine-latest over a posts stream and a liked-set stream.
//
// Each emission from either input recomputes Annotate from the latest value of
// both. Nothing is emitted until the first posts value arrives; until the
// liked-set stream speaks the set is empty. A liked-set failure substitutes the
// empty set. A posts failure is emitted as a failed event and the last liked
// set is kept. If the liked stream closes its last value stays in effect. The
// output closes when ctx is done or the posts stream closes.
func Merge(ctx context.Context, posts <-chan stream.Event[[]models.Post], liked <-chan stream.Event[models.LikedSet]) <-chan stream.Event[[]models.Post] {
	return merge(ctx, posts, liked, func() {})
}

// MergeScoped is Merge over sources opened under a scope that belongs to the
// merge. release is called once, after the output closes.
func MergeScoped(ctx context.Context, release context.CancelFunc, posts <-chan stream.Event[[]models.Post], liked <-chan stream.Event[models.LikedSet]) <-chan stream.Event[[]models.Post] {
	return merge(ctx, posts, liked, release)
}

func merge(ctx context.Context, posts <-chan stream.Event[[]models.Post], liked <-chan stream.Event[models.LikedSet], release func()) <-chan stream.Event[[]models.Post] {
	out := make(chan stream.Event[[]models.Post])

	go func() {
		defer release()
		defer close(out)

		var (
			latestPosts []models.Post
			havePosts   bool
			latestLiked = models.LikedSet{}
		)

		for {
			var next stream.Event[[]models.Post]
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-posts:
				if !ok {
					return
				}
				if ev.Err != nil {
					observability.TimelineEmissions.WithLabelValues("error").Inc()
					next = stream.Failure[[]models.Post](ev.Err)
					break
				}
				latestPosts, havePosts = ev.Value, true
				next = stream.Value(Annotate(latestPosts, latestLiked))

			case ev, ok := <-liked:
				if !ok {
					liked = nil
					continue
				}
				if ev.Err != nil {
					observability.GlobalLogger.WarnContext(ctx, "liked-set stream failed; using empty set",
						"error", ev.Err.Error())
					latestLiked = models.LikedSet{}
				} else if ev.Value == nil {
					latestLiked = models.LikedSet{}
				} else {
					latestLiked = ev.Value
				}
				if !havePosts {
					continue
				}
				next = stream.Value(Annotate(latestPosts, latestLiked))
			}

			if next.Err == nil {
				observability.TimelineEmissions.WithLabelValues("ok").Inc()
			}
			select {
			case out <- next:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
