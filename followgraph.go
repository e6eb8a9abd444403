// This file implements FollowGraph, the follower relation between users.
//
// The relation is a plain edge table with a composite primary key on
// (follower_id, followed_id); there is no join model or hidden indirection.
// Follow is idempotent: inserting an edge that already exists is a success,
// enforced by the dialect's conflict-ignoring insert rather than a
// read-then-write.
package feedcore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var followEdgeColumns = []string{"follower_id", "followed_id"}

// FollowGraph manages directed follow edges between users.
type FollowGraph struct {
	session *Session
}

// NewFollowGraph creates a FollowGraph on the given session.
func NewFollowGraph(session *Session) *FollowGraph {
	return &FollowGraph{session: session}
}

// Follow records that follower follows followed. Re-following is a no-op.
// A user may follow themselves; the feed already contains their own posts,
// so a self-edge changes nothing observable there.
func (g *FollowGraph) Follow(ctx context.Context, followerID, followedID int64) error {
	query, args, err := sq.Insert("follows").
		Columns("follower_id", "followed_id", "created_at").
		Values(followerID, followedID, nowUTC()).
		Suffix(g.session.dialect.InsertIgnoreClause(followEdgeColumns)).
		PlaceholderFormat(g.session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := g.session.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("follow %d -> %d: %w", followerID, followedID, err)
	}
	return nil
}

// Unfollow removes the edge if present; absent edges are a no-op.
func (g *FollowGraph) Unfollow(ctx context.Context, followerID, followedID int64) error {
	query, args, err := sq.Delete("follows").
		Where(sq.Eq{"follower_id": followerID, "followed_id": followedID}).
		PlaceholderFormat(g.session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := g.session.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("unfollow %d -> %d: %w", followerID, followedID, err)
	}
	return nil
}

// IsFollowing reports whether the edge follower -> followed exists.
// The composite primary key makes this an index point lookup.
func (g *FollowGraph) IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error) {
	n, err := countRows(ctx, g.session, "follows",
		sq.Eq{"follower_id": followerID, "followed_id": followedID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Followers returns the users following the given user. Order is
// unspecified.
func (g *FollowGraph) Followers(ctx context.Context, userID int64) ([]User, error) {
	return g.edgeUsers(ctx, "follows.follower_id = users.id", sq.Eq{"follows.followed_id": userID})
}

// Following returns the users the given user follows. Order is unspecified.
func (g *FollowGraph) Following(ctx context.Context, userID int64) ([]User, error) {
	return g.edgeUsers(ctx, "follows.followed_id = users.id", sq.Eq{"follows.follower_id": userID})
}

func (g *FollowGraph) edgeUsers(ctx context.Context, joinOn string, cond sq.Eq) ([]User, error) {
	cols := make([]string, len(userColumns))
	for i, c := range userColumns {
		cols[i] = "users." + c
	}

	query, args, err := sq.Select(cols...).
		From("users").
		Join("follows ON " + joinOn).
		Where(cond).
		PlaceholderFormat(g.session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return nil, err
	}

	var users []User
	if err := g.session.Select(ctx, &users, query, args...); err != nil {
		return nil, err
	}
	return users, nil
}

// CountFollowers returns how many users follow the given user.
func (g *FollowGraph) CountFollowers(ctx context.Context, userID int64) (int64, error) {
	return countRows(ctx, g.session, "follows", sq.Eq{"followed_id": userID})
}

// CountFollowing returns how many users the given user follows.
func (g *FollowGraph) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	return countRows(ctx, g.session, "follows", sq.Eq{"follower_id": userID})
}
