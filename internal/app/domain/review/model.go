// Package review defines user reviews and their moderation state.
package review

import (
	"time"

	"github.com/Vukotije/audiotheca/internal/app/domain/user"
)

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether a rating is within bounds.
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// Review is a rating and comment left by a user on a musical work. A review
// is hidden from the public until a moderator approves it.
type Review struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	MusicalWorkID string    `json:"musical_work_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	IsApproved    bool      `json:"is_approved"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// User is the review author, attached by the service layer for listings.
	User *user.User `json:"user,omitempty"`
}
