package feedcore

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

// FeedComposer produces the post set visible to a user: their own posts
// plus the posts of everyone they follow.
type FeedComposer struct {
	session *Session
}

// NewFeedComposer creates a FeedComposer on the given session.
func NewFeedComposer(session *Session) *FeedComposer {
	return &FeedComposer{session: session}
}

// Feed returns the posts owned by userID or by any user they follow,
// newest first. The followee set is resolved inside the query, so the
// whole feed is one relational pass regardless of how many users are
// followed.
func (f *FeedComposer) Feed(ctx context.Context, userID int64) ([]Post, error) {
	query, args, err := sq.Select(postColumns...).
		From("posts").
		Where(sq.Or{
			sq.Expr("user_id IN (SELECT followed_id FROM follows WHERE follower_id = ?)", userID),
			sq.Eq{"user_id": userID},
		}).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(f.session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return nil, err
	}

	var posts []Post
	if err := f.session.Select(ctx, &posts, query, args...); err != nil {
		return nil, err
	}
	return posts, nil
}
