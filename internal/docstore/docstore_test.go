package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyUpdates_Transforms(t *testing.T) {
	data := map[string]any{
		"likeCount":  int64(5),
		"likedPosts": []string{"a", "b"},
	}

	require.NoError(t, ApplyUpdates(data, []Update{
		Set("likeCount", Increment(1)),
		Set("likedPosts", ArrayUnion("b", "c")),
		Set("content", "hello"),
	}))
	assert.Equal(t, int64(6), data["likeCount"])
	assert.Equal(t, []any{"a", "b", "c"}, data["likedPosts"])
	assert.Equal(t, "hello", data["content"])

	require.NoError(t, ApplyUpdates(data, []Update{
		Set("likeCount", Increment(-1)),
		Set("likedPosts", ArrayRemove("a", "zzz")),
	}))
	assert.Equal(t, int64(5), data["likeCount"])
	assert.Equal(t, []any{"b", "c"}, data["likedPosts"])
}

func TestApplyUpdates_IncrementMissingField(t *testing.T) {
	data := map[string]any{}
	require.NoError(t, ApplyUpdates(data, []Update{Set("likeCount", Increment(-1))}))
	assert.Equal(t, int64(-1), data["likeCount"])
}

func TestApplyUpdates_IncrementNonNumeric(t *testing.T) {
	data := map[string]any{"likeCount": "five"}
	assert.Error(t, ApplyUpdates(data, []Update{Set("likeCount", Increment(1))}))
}

func TestMatchesAndSort(t *testing.T) {
	docs := []Document{
		{ID: "p1", Data: map[string]any{"authorUid": "u1", "timestamp": int64(100)}},
		{ID: "p2", Data: map[string]any{"authorUid": "u2", "timestamp": int64(300)}},
		{ID: "p3", Data: map[string]any{"authorUid": "u1", "timestamp": 200.0}},
	}

	q := NewQuery(CollectionPosts).Where("authorUid", "u1").Order("timestamp", Desc)
	var matched []Document
	for _, d := range docs {
		if Matches(q, d.Data) {
			matched = append(matched, d)
		}
	}
	matched = SortAndLimit(q, matched)
	require.Len(t, matched, 2)
	assert.Equal(t, "p3", matched[0].ID)
	assert.Equal(t, "p1", matched[1].ID)

	all := SortAndLimit(NewQuery(CollectionPosts).Order("timestamp", Asc).Take(2), append([]Document(nil), docs...))
	require.Len(t, all, 2)
	assert.Equal(t, "p1", all[0].ID)
	assert.Equal(t, "p3", all[1].ID)
}

func TestQuery_WhereDoesNotAlias(t *testing.T) {
	base := NewQuery(CollectionPosts).Where("a", 1)
	q1 := base.Where("b", 2)
	q2 := base.Where("c", 3)
	assert.Equal(t, "b", q1.Filters[1].Field)
	assert.Equal(t, "c", q2.Filters[1].Field)
}

func TestCopyData_IsDeep(t *testing.T) {
	src := map[string]any{"likedPosts": []any{"a"}, "nested": map[string]any{"k": "v"}}
	cp := CopyData(src)
	cp["likedPosts"].([]any)[0] = "changed"
	cp["nested"].(map[string]any)["k"] = "changed"
	assert.Equal(t, "a", src["likedPosts"].([]any)[0])
	assert.Equal(t, "v", src["nested"].(map[string]any)["k"])
}

type decodeTarget struct {
	ID        string   `mapstructure:"id"`
	Count     int64    `mapstructure:"count"`
	Tags      []string `mapstructure:"tags"`
	CreatedAt int64    `mapstructure:"createdAt"`
}

func TestDecode_WeakTypes(t *testing.T) {
	created := time.Unix(1700000000, 0)
	out, err := DecodeDocument[decodeTarget](Document{ID: "x", Data: map[string]any{
		"id":        "x",
		"count":     float64(3),
		"tags":      []any{"a", "b"},
		"createdAt": created,
		"extra":     true,
	}})
	require.NoError(t, err)
	assert.Equal(t, "x", out.ID)
	assert.Equal(t, int64(3), out.Count)
	assert.Equal(t, []string{"a", "b"}, out.Tags)
	assert.Equal(t, int64(1700000000), out.CreatedAt)
}

func TestBatch_Builds(t *testing.T) {
	b := NewBatch().
		Update(CollectionPosts, "p1", Set("likeCount", Increment(1))).
		Update(CollectionUsers, "u1", Set("likedPosts", ArrayUnion("p1"))).
		Delete(CollectionPosts, "p2")
	require.Len(t, b.Writes, 3)
	assert.Equal(t, WriteUpdate, b.Writes[0].Kind)
	assert.Equal(t, WriteDelete, b.Writes[2].Kind)
}
