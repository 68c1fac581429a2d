// Package authz centralizes the access-control policy. Services consult it
// before every protected operation so the rules live in one place.
package authz

import (
	"github.com/Vukotije/audiotheca/internal/app/domain/review"
	"github.com/Vukotije/audiotheca/internal/app/domain/user"
	"github.com/Vukotije/audiotheca/internal/errors"
)

// Action is a protected operation class.
type Action int

const (
	// ActionReadCatalog and ActionSearch are public.
	ActionReadCatalog Action = iota
	ActionSearch

	// ActionWriteCatalog covers genre, artist and work mutations.
	ActionWriteCatalog

	// ActionListPendingReviews and ActionModerateReview cover the
	// moderation queue.
	ActionListPendingReviews
	ActionModerateReview

	// ActionCreateReview and ActionListOwnReviews are open to any active
	// authenticated user.
	ActionCreateReview
	ActionListOwnReviews

	// ActionManageUsers covers the admin account surface.
	ActionManageUsers
)

// Require checks that the actor may perform the action. A nil actor is an
// anonymous caller.
func Require(actor *user.User, action Action) error {
	if action == ActionReadCatalog || action == ActionSearch {
		return nil
	}
	if actor == nil {
		return errors.Unauthorized("Authentication required")
	}
	if !actor.IsActive {
		return errors.Forbidden("Account is deactivated")
	}

	switch action {
	case ActionCreateReview, ActionListOwnReviews:
		return nil
	case ActionWriteCatalog, ActionListPendingReviews, ActionModerateReview:
		if !actor.Role.CanModerate() {
			return errors.Forbidden("Producer or admin access required")
		}
		return nil
	case ActionManageUsers:
		if actor.Role != user.RoleAdmin {
			return errors.Forbidden("Admin access required")
		}
		return nil
	}
	return errors.Forbidden("Access denied")
}

// RequireReviewOwner checks that the actor owns the review.
func RequireReviewOwner(actor *user.User, rev *review.Review) error {
	if actor == nil {
		return errors.Unauthorized("Authentication required")
	}
	if rev.UserID != actor.ID {
		return errors.Forbidden("You may only access your own reviews")
	}
	return nil
}

// RequireCanBan checks the ban and unban guards. Admins cannot touch their
// own account or another admin's.
func RequireCanBan(actor, target *user.User) error {
	if err := Require(actor, ActionManageUsers); err != nil {
		return err
	}
	if actor.ID == target.ID {
		return errors.Forbidden("Cannot ban yourself")
	}
	if target.Role == user.RoleAdmin {
		return errors.Forbidden("Cannot ban another admin")
	}
	return nil
}

// RequireCanChangeRole checks the role-change guard. Admins cannot change
// their own role.
func RequireCanChangeRole(actor, target *user.User) error {
	if err := Require(actor, ActionManageUsers); err != nil {
		return err
	}
	if actor.ID == target.ID {
		return errors.Forbidden("Cannot change your own role")
	}
	return nil
}

// CanSeeUnapproved reports whether the actor may see pending reviews.
func CanSeeUnapproved(actor *user.User) bool {
	return actor != nil && actor.IsActive && actor.Role.CanModerate()
}
