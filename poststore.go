package feedcore

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var postColumns = []string{"id", "user_id", "content", "created_at"}

// PostStore manages post records. It never deletes posts on its own
// initiative; the cascade on user destruction belongs to UserStore.
type PostStore struct {
	session *Session
}

// NewPostStore creates a PostStore on the given session.
func NewPostStore(session *Session) *PostStore {
	return &PostStore{session: session}
}

// Create validates the content and inserts a post owned by ownerID.
// A missing owner is a validation failure, not a driver error: every post
// must reference an existing user at the time of creation.
func (s *PostStore) Create(ctx context.Context, ownerID int64, content string) (*Post, error) {
	content = strings.TrimSpace(content)

	verr := &ValidationError{}
	validateContent(content, verr)

	n, err := countRows(ctx, s.session, "users", sq.Eq{"id": ownerID})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		verr.Add("user", "must exist")
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}

	post := &Post{
		UserID:    ownerID,
		Content:   content,
		CreatedAt: nowUTC(),
	}

	query, args, err := sq.Insert("posts").
		Columns("user_id", "content", "created_at").
		Values(post.UserID, post.Content, post.CreatedAt).
		PlaceholderFormat(s.session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return nil, err
	}

	result, err := s.session.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		post.ID = id
	}
	return post, nil
}

// FindByOwner returns the owner's posts, newest first.
func (s *PostStore) FindByOwner(ctx context.Context, ownerID int64) ([]Post, error) {
	query, args, err := sq.Select(postColumns...).
		From("posts").
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(s.session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return nil, err
	}

	var posts []Post
	if err := s.session.Select(ctx, &posts, query, args...); err != nil {
		return nil, err
	}
	return posts, nil
}

// DeleteAllByOwner removes every post owned by ownerID and returns how many
// were deleted.
func (s *PostStore) DeleteAllByOwner(ctx context.Context, ownerID int64) (int64, error) {
	query, args, err := sq.Delete("posts").
		Where(sq.Eq{"user_id": ownerID}).
		PlaceholderFormat(s.session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := s.session.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete posts of user %d: %w", ownerID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Count returns the total number of post records.
func (s *PostStore) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, s.session, "posts", nil)
}
