// Package reviews implements review submission, ownership edits and the
// moderation workflow. New and edited reviews always re-enter the pending
// queue; only approved reviews are publicly visible.
package reviews

import (
	"context"
	stderrors "errors"

	"github.com/Vukotije/audiotheca/internal/app/authz"
	"github.com/Vukotije/audiotheca/internal/app/domain/review"
	"github.com/Vukotije/audiotheca/internal/app/domain/user"
	"github.com/Vukotije/audiotheca/internal/app/storage"
	"github.com/Vukotije/audiotheca/internal/errors"
	"github.com/Vukotije/audiotheca/internal/logging"
)

// Service provides review use-cases.
type Service struct {
	reviews storage.ReviewStore
	works   storage.WorkStore
	users   storage.UserStore
	log     *logging.Logger
}

// New constructs a reviews service.
func New(reviews storage.ReviewStore, works storage.WorkStore, users storage.UserStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("reviews")
	}
	return &Service{reviews: reviews, works: works, users: users, log: log}
}

// Create submits a new review for a work. One review per user per work; the
// review starts unapproved.
func (s *Service) Create(ctx context.Context, actor *user.User, workID string, rating int, comment string) (review.Review, error) {
	if err := authz.Require(actor, authz.ActionCreateReview); err != nil {
		return review.Review{}, err
	}
	if workID == "" {
		return review.Review{}, errors.Validation("musical_work_id is required")
	}
	if !review.ValidRating(rating) {
		return review.Review{}, errors.Validation("Rating must be between 1 and 5")
	}

	if _, err := s.works.GetWork(ctx, workID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return review.Review{}, errors.NotFound("Musical work not found")
		}
		return review.Review{}, errors.Internal("get work", err)
	}

	if _, err := s.reviews.GetReviewByUserAndWork(ctx, actor.ID, workID); err == nil {
		return review.Review{}, errors.Conflict("You have already reviewed this work")
	} else if !stderrors.Is(err, storage.ErrNotFound) {
		return review.Review{}, errors.Internal("lookup review", err)
	}

	created, err := s.reviews.CreateReview(ctx, review.Review{
		UserID:        actor.ID,
		MusicalWorkID: workID,
		Rating:        rating,
		Comment:       comment,
		IsApproved:    false,
	})
	if err != nil {
		switch {
		case stderrors.Is(err, storage.ErrDuplicate):
			return review.Review{}, errors.Conflict("You have already reviewed this work")
		case stderrors.Is(err, storage.ErrNotFound):
			return review.Review{}, errors.NotFound("Musical work not found")
		}
		return review.Review{}, errors.Internal("create review", err)
	}

	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"review_id": created.ID,
		"work_id":   workID,
	}).Info("review submitted")
	return created, nil
}

// Get returns a single review to its owner or a moderator.
func (s *Service) Get(ctx context.Context, actor *user.User, id string) (review.Review, error) {
	if err := authz.Require(actor, authz.ActionListOwnReviews); err != nil {
		return review.Review{}, err
	}

	rev, err := s.get(ctx, id)
	if err != nil {
		return review.Review{}, err
	}
	if !authz.CanSeeUnapproved(actor) {
		if err := authz.RequireReviewOwner(actor, &rev); err != nil {
			return review.Review{}, err
		}
	}
	return rev, nil
}

// Update lets the owner change rating or comment. Any edit sends the review
// back to the pending queue for re-moderation.
func (s *Service) Update(ctx context.Context, actor *user.User, id string, rating *int, comment *string) (review.Review, error) {
	if err := authz.Require(actor, authz.ActionListOwnReviews); err != nil {
		return review.Review{}, err
	}

	rev, err := s.get(ctx, id)
	if err != nil {
		return review.Review{}, err
	}
	if err := authz.RequireReviewOwner(actor, &rev); err != nil {
		return review.Review{}, err
	}

	if rating != nil {
		if !review.ValidRating(*rating) {
			return review.Review{}, errors.Validation("Rating must be between 1 and 5")
		}
		rev.Rating = *rating
	}
	if comment != nil {
		rev.Comment = *comment
	}
	rev.IsApproved = false

	updated, err := s.reviews.UpdateReview(ctx, rev)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return review.Review{}, errors.NotFound("Review not found")
		}
		return review.Review{}, errors.Internal("update review", err)
	}
	return updated, nil
}

// Delete removes a review. Owners may delete their own; moderators may delete
// any.
func (s *Service) Delete(ctx context.Context, actor *user.User, id string) error {
	if err := authz.Require(actor, authz.ActionListOwnReviews); err != nil {
		return err
	}

	rev, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanSeeUnapproved(actor) {
		if err := authz.RequireReviewOwner(actor, &rev); err != nil {
			return err
		}
	}

	if err := s.reviews.DeleteReview(ctx, id); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("Review not found")
		}
		return errors.Internal("delete review", err)
	}
	return nil
}

// ListOwn returns the actor's reviews, approved or not.
func (s *Service) ListOwn(ctx context.Context, actor *user.User) ([]review.Review, error) {
	if err := authz.Require(actor, authz.ActionListOwnReviews); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListReviewsByUser(ctx, actor.ID)
	if err != nil {
		return nil, errors.Internal("list reviews", err)
	}
	return reviews, nil
}

// ListForWork returns a work's reviews with their authors. Moderators see
// pending reviews too; everyone else sees approved ones only.
func (s *Service) ListForWork(ctx context.Context, actor *user.User, workID string) ([]review.Review, error) {
	if _, err := s.works.GetWork(ctx, workID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("Musical work not found")
		}
		return nil, errors.Internal("get work", err)
	}

	approvedOnly := !authz.CanSeeUnapproved(actor)
	reviews, err := s.reviews.ListReviewsByWork(ctx, workID, approvedOnly)
	if err != nil {
		return nil, errors.Internal("list reviews", err)
	}
	return s.attachAuthors(ctx, reviews)
}

// ListPending returns the moderation queue with authors attached.
func (s *Service) ListPending(ctx context.Context, actor *user.User) ([]review.Review, error) {
	if err := authz.Require(actor, authz.ActionListPendingReviews); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListPendingReviews(ctx)
	if err != nil {
		return nil, errors.Internal("list pending reviews", err)
	}
	return s.attachAuthors(ctx, reviews)
}

// Approve marks a review as publicly visible. Approving an already approved
// review is a no-op.
func (s *Service) Approve(ctx context.Context, actor *user.User, id string) (review.Review, error) {
	if err := authz.Require(actor, authz.ActionModerateReview); err != nil {
		return review.Review{}, err
	}

	rev, err := s.get(ctx, id)
	if err != nil {
		return review.Review{}, err
	}
	if rev.IsApproved {
		return rev, nil
	}

	rev.IsApproved = true
	updated, err := s.reviews.UpdateReview(ctx, rev)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return review.Review{}, errors.NotFound("Review not found")
		}
		return review.Review{}, errors.Internal("approve review", err)
	}

	s.log.WithContext(ctx).WithField("review_id", id).Info("review approved")
	return updated, nil
}

// Reject removes a review from the queue permanently.
func (s *Service) Reject(ctx context.Context, actor *user.User, id string) error {
	if err := authz.Require(actor, authz.ActionModerateReview); err != nil {
		return err
	}

	if err := s.reviews.DeleteReview(ctx, id); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("Review not found")
		}
		return errors.Internal("reject review", err)
	}

	s.log.WithContext(ctx).WithField("review_id", id).Info("review rejected")
	return nil
}

func (s *Service) get(ctx context.Context, id string) (review.Review, error) {
	rev, err := s.reviews.GetReview(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return review.Review{}, errors.NotFound("Review not found")
		}
		return review.Review{}, errors.Internal("get review", err)
	}
	return rev, nil
}

func (s *Service) attachAuthors(ctx context.Context, reviews []review.Review) ([]review.Review, error) {
	for i := range reviews {
		u, err := s.users.GetUser(ctx, reviews[i].UserID)
		if err != nil {
			if stderrors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, errors.Internal("load review author", err)
		}
		reviews[i].User = &u
	}
	return reviews, nil
}
