package feedcore_test

import (
	"context"
	"testing"

	"github.com/arllen133/feedcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postIDs(posts []feedcore.Post) []int64 {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestFeedContents(t *testing.T) {
	_, session := setupTestDB(t)
	users := newUserStore(session)
	posts := feedcore.NewPostStore(session)
	graph := feedcore.NewFollowGraph(session)
	feed := feedcore.NewFeedComposer(session)
	ctx := context.Background()

	alice := mustCreateUser(t, users, "Alice", "alice@example.com")
	bob := mustCreateUser(t, users, "Bob", "bob@example.com")
	carol := mustCreateUser(t, users, "Carol", "carol@example.com")

	require.NoError(t, graph.Follow(ctx, alice.ID, bob.ID))

	own1 := mustCreatePost(t, posts, alice.ID, "Alice's first")
	own2 := mustCreatePost(t, posts, alice.ID, "Alice's second")
	followed := mustCreatePost(t, posts, bob.ID, "Bob's post")
	unfollowed := mustCreatePost(t, posts, carol.ID, "Carol's post")

	got, err := feed.Feed(ctx, alice.ID)
	require.NoError(t, err)

	ids := postIDs(got)
	assert.Contains(t, ids, own1.ID)
	assert.Contains(t, ids, own2.ID)
	assert.Contains(t, ids, followed.ID)
	assert.NotContains(t, ids, unfollowed.ID)
	assert.Len(t, got, 3)
}

func TestFeedWithoutFollowees(t *testing.T) {
	_, session := setupTestDB(t)
	users := newUserStore(session)
	posts := feedcore.NewPostStore(session)
	feed := feedcore.NewFeedComposer(session)
	ctx := context.Background()

	carol := mustCreateUser(t, users, "Carol", "carol@example.com")
	other := mustCreateUser(t, users, "Other", "other@example.com")

	own := mustCreatePost(t, posts, carol.ID, "Carol's post")
	mustCreatePost(t, posts, other.ID, "Not in feed")

	got, err := feed.Feed(ctx, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{own.ID}, postIDs(got))
}

func TestFeedNewestFirst(t *testing.T) {
	_, session := setupTestDB(t)
	users := newUserStore(session)
	posts := feedcore.NewPostStore(session)
	feed := feedcore.NewFeedComposer(session)
	ctx := context.Background()

	alice := mustCreateUser(t, users, "Alice", "alice@example.com")

	first := mustCreatePost(t, posts, alice.ID, "oldest")
	second := mustCreatePost(t, posts, alice.ID, "middle")
	third := mustCreatePost(t, posts, alice.ID, "newest")

	got, err := feed.Feed(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, postIDs(got))
}

func TestFeedEmptyForUnknownUser(t *testing.T) {
	_, session := setupTestDB(t)
	feed := feedcore.NewFeedComposer(session)

	got, err := feed.Feed(context.Background(), 9999)
	require.NoError(t, err)
	assert.Empty(t, got)
}
