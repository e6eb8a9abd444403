package feedcore

import (
	"time"
	"unicode/utf8"
)

// MaxPostLength is the longest accepted post content, in characters.
const MaxPostLength = 140

// Post is a short piece of content owned by exactly one user. Posts live
// and die with their owner: UserStore.Destroy removes them in the same
// transaction that removes the user.
type Post struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

func validateContent(content string, verr *ValidationError) {
	if content == "" {
		verr.Add("content", "can't be blank")
		return
	}
	if utf8.RuneCountInString(content) > MaxPostLength {
		verr.Add("content", "is too long (maximum is 140 characters)")
	}
}
