// This file implements UserStore, the validated write path and lookup
// surface for user records.
//
// Uniqueness is enforced twice on purpose: the application-level check lets
// a duplicate email report alongside the other field errors, and the unique
// index on the normalized email column closes the race between concurrent
// create attempts. A constraint violation surfacing from the index is
// translated back into the same ValidationError shape.
package feedcore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var userColumns = []string{"id", "name", "email", "password_digest", "created_at", "updated_at"}

const emailTakenMessage = "has already been taken"

// UserStore manages user records: validated create/update, lookups, and the
// transactional destroy cascade.
type UserStore struct {
	session  *Session
	verifier CredentialVerifier
}

// UserStoreOption configures a UserStore.
type UserStoreOption func(*UserStore)

// WithCredentialVerifier replaces the default bcrypt verifier.
func WithCredentialVerifier(v CredentialVerifier) UserStoreOption {
	return func(s *UserStore) {
		s.verifier = v
	}
}

// NewUserStore creates a UserStore on the given session.
func NewUserStore(session *Session, opts ...UserStoreOption) *UserStore {
	s := &UserStore{
		session:  session,
		verifier: BcryptVerifier{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the candidate, derives the password credential, and
// inserts the record. The email is persisted normalized (trimmed,
// lower-cased) regardless of input casing. On any rule violation the
// returned error is a *ValidationError listing every failure.
func (s *UserStore) Create(ctx context.Context, name, email, password, confirmation string) (*User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	verr := &ValidationError{}
	validateName(name, verr)
	validateEmail(email, verr)
	validatePassword(password, confirmation, verr)

	// Advisory duplicate check; the unique index remains the authority.
	if !verr.Has("email") {
		taken, err := s.emailTaken(ctx, email, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("email", emailTakenMessage)
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}

	digest, err := s.verifier.Hash(strings.TrimSpace(password))
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := nowUTC()
	user := &User{
		Name:           name,
		Email:          email,
		PasswordDigest: digest,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	builder := sq.Insert("users").
		Columns("name", "email", "password_digest", "created_at", "updated_at").
		Values(user.Name, user.Email, user.PasswordDigest, user.CreatedAt, user.UpdatedAt).
		PlaceholderFormat(s.session.dialect.PlaceholderFormat())

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	result, err := s.session.Exec(ctx, query, args...)
	if err != nil {
		if s.session.dialect.IsUniqueViolation(err) {
			// Lost the race against a concurrent create with the same email.
			verr.Add("email", emailTakenMessage)
			return nil, verr
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		user.ID = id
	}
	return user, nil
}

// Update revalidates and persists the user's name and email through the
// same rules as Create. The struct's fields are normalized in place. The
// uniqueness check excludes the user itself.
func (s *UserStore) Update(ctx context.Context, user *User) error {
	user.Name = strings.TrimSpace(user.Name)
	user.Email = NormalizeEmail(user.Email)

	verr := &ValidationError{}
	validateName(user.Name, verr)
	validateEmail(user.Email, verr)

	if !verr.Has("email") {
		taken, err := s.emailTaken(ctx, user.Email, user.ID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("email", emailTakenMessage)
		}
	}

	if err := verr.orNil(); err != nil {
		return err
	}

	user.UpdatedAt = nowUTC()

	builder := sq.Update("users").
		Set("name", user.Name).
		Set("email", user.Email).
		Set("updated_at", user.UpdatedAt).
		Where(sq.Eq{"id": user.ID}).
		PlaceholderFormat(s.session.dialect.PlaceholderFormat())

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	result, err := s.session.Exec(ctx, query, args...)
	if err != nil {
		if s.session.dialect.IsUniqueViolation(err) {
			verr.Add("email", emailTakenMessage)
			return verr
		}
		return fmt.Errorf("update user: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return notFound("user", user.ID)
	}
	return nil
}

// UpdatePassword validates the new password/confirmation pair and replaces
// the stored credential.
func (s *UserStore) UpdatePassword(ctx context.Context, id int64, password, confirmation string) error {
	verr := &ValidationError{}
	validatePassword(password, confirmation, verr)
	if err := verr.orNil(); err != nil {
		return err
	}

	digest, err := s.verifier.Hash(strings.TrimSpace(password))
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	builder := sq.Update("users").
		Set("password_digest", digest).
		Set("updated_at", nowUTC()).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(s.session.dialect.PlaceholderFormat())

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	result, err := s.session.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return notFound("user", id)
	}
	return nil
}

// Destroy removes the user together with everything that hangs off it:
// all posts the user owns and every follow edge where the user appears on
// either side. The cascade runs in a single transaction so a failure part
// way through leaves no orphan posts or dangling edges.
func (s *UserStore) Destroy(ctx context.Context, id int64) error {
	return s.session.Transaction(ctx, func(tx *Session) error {
		steps := []sq.DeleteBuilder{
			sq.Delete("posts").Where(sq.Eq{"user_id": id}),
			sq.Delete("follows").Where(sq.Or{
				sq.Eq{"follower_id": id},
				sq.Eq{"followed_id": id},
			}),
		}
		for _, step := range steps {
			query, args, err := step.
				PlaceholderFormat(tx.dialect.PlaceholderFormat()).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("destroy user %d: %w", id, err)
			}
		}

		query, args, err := sq.Delete("users").
			Where(sq.Eq{"id": id}).
			PlaceholderFormat(tx.dialect.PlaceholderFormat()).
			ToSql()
		if err != nil {
			return err
		}
		result, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("destroy user %d: %w", id, err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return notFound("user", id)
		}
		return nil
	})
}

// FindByID returns the user with the given identifier.
func (s *UserStore) FindByID(ctx context.Context, id int64) (*User, error) {
	return s.findOne(ctx, sq.Eq{"id": id}, "user", id)
}

// FindByEmail normalizes the address before the lookup, so mixed-case or
// padded input finds the stored record.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	return s.findOne(ctx, sq.Eq{"email": email}, "user email", email)
}

func (s *UserStore) findOne(ctx context.Context, cond sq.Eq, what string, key any) (*User, error) {
	query, args, err := sq.Select(userColumns...).
		From("users").
		Where(cond).
		PlaceholderFormat(s.session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	if err := s.session.Get(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(what, key)
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate returns the user when the email exists and the password
// matches the stored credential, and ErrNotFound otherwise. The password is
// trimmed the same way Create trims it before hashing.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !s.verifier.Verify(strings.TrimSpace(password), user.PasswordDigest) {
		return nil, notFound("user email", NormalizeEmail(email))
	}
	return user, nil
}

// Count returns the total number of user records.
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, s.session, "users", nil)
}

// emailTaken reports whether another user (excluding excludeID) already
// holds the normalized email.
func (s *UserStore) emailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	cond := sq.And{sq.Eq{"email": email}}
	if excludeID != 0 {
		cond = append(cond, sq.NotEq{"id": excludeID})
	}
	n, err := countRows(ctx, s.session, "users", cond)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// countRows runs SELECT COUNT(*) on table with an optional condition.
func countRows(ctx context.Context, session *Session, table string, cond sq.Sqlizer) (int64, error) {
	builder := sq.Select("COUNT(*)").From(table)
	if cond != nil {
		builder = builder.Where(cond)
	}
	query, args, err := builder.
		PlaceholderFormat(session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := session.Get(ctx, &n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}
