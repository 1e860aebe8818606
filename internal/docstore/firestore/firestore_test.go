package firestore

import (
	"errors"
	"testing"

	"murmur/internal/docstore"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToValue_MapsTransforms(t *testing.T) {
	assert.Equal(t, firestore.Increment(int64(1)), toValue(docstore.Increment(1)))
	assert.Equal(t, firestore.ArrayUnion("p1"), toValue(docstore.ArrayUnion("p1")))
	assert.Equal(t, firestore.ArrayRemove("p1", "p2"), toValue(docstore.ArrayRemove("p1", "p2")))
	assert.Equal(t, "plain", toValue("plain"))
}

func TestToUpdates_KeepsFieldPaths(t *testing.T) {
	ups := toUpdates([]docstore.Update{
		docstore.Set("content", "hi"),
		docstore.Set("likeCount", docstore.Increment(-1)),
	})
	assert.Len(t, ups, 2)
	assert.Equal(t, "content", ups[0].Path)
	assert.Equal(t, "likeCount", ups[1].Path)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(status.Error(codes.NotFound, "no document")), docstore.ErrNotFound)

	other := status.Error(codes.PermissionDenied, "denied")
	assert.False(t, errors.Is(mapError(other), docstore.ErrNotFound))
	assert.Equal(t, other, mapError(other))
}
