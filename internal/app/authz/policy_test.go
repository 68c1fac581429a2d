package authz

import (
	"net/http"
	"testing"

	"github.com/Vukotije/audiotheca/internal/app/domain/review"
	"github.com/Vukotije/audiotheca/internal/app/domain/user"
	"github.com/Vukotije/audiotheca/internal/errors"
)

func actorWithRole(role user.Role) *user.User {
	return &user.User{ID: "actor-1", Username: "actor", Role: role, IsActive: true}
}

func TestRequire(t *testing.T) {
	banned := actorWithRole(user.RoleProducer)
	banned.IsActive = false

	tests := []struct {
		name       string
		actor      *user.User
		action     Action
		wantStatus int
	}{
		{"anonymous read catalog", nil, ActionReadCatalog, 0},
		{"anonymous search", nil, ActionSearch, 0},
		{"anonymous write catalog", nil, ActionWriteCatalog, http.StatusUnauthorized},
		{"anonymous create review", nil, ActionCreateReview, http.StatusUnauthorized},
		{"banned producer write catalog", banned, ActionWriteCatalog, http.StatusForbidden},
		{"user write catalog", actorWithRole(user.RoleUser), ActionWriteCatalog, http.StatusForbidden},
		{"producer write catalog", actorWithRole(user.RoleProducer), ActionWriteCatalog, 0},
		{"admin write catalog", actorWithRole(user.RoleAdmin), ActionWriteCatalog, 0},
		{"user create review", actorWithRole(user.RoleUser), ActionCreateReview, 0},
		{"user list pending", actorWithRole(user.RoleUser), ActionListPendingReviews, http.StatusForbidden},
		{"producer moderate", actorWithRole(user.RoleProducer), ActionModerateReview, 0},
		{"producer manage users", actorWithRole(user.RoleProducer), ActionManageUsers, http.StatusForbidden},
		{"admin manage users", actorWithRole(user.RoleAdmin), ActionManageUsers, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Require(tt.actor, tt.action)
			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("expected allow, got %v", err)
				}
				return
			}
			svcErr := errors.GetServiceError(err)
			if svcErr == nil {
				t.Fatalf("expected service error, got %v", err)
			}
			if svcErr.HTTPStatus != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, svcErr.HTTPStatus)
			}
		})
	}
}

func TestRequireReviewOwner(t *testing.T) {
	owner := actorWithRole(user.RoleUser)
	rev := &review.Review{ID: "r1", UserID: owner.ID}

	if err := RequireReviewOwner(owner, rev); err != nil {
		t.Fatalf("owner should access own review: %v", err)
	}

	other := &user.User{ID: "other", Role: user.RoleUser, IsActive: true}
	err := RequireReviewOwner(other, rev)
	if svcErr := errors.GetServiceError(err); svcErr == nil || svcErr.HTTPStatus != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRequireCanBan(t *testing.T) {
	admin := actorWithRole(user.RoleAdmin)

	if err := RequireCanBan(admin, admin); err == nil {
		t.Fatal("expected self-ban to be rejected")
	}

	otherAdmin := &user.User{ID: "admin-2", Role: user.RoleAdmin, IsActive: true}
	if err := RequireCanBan(admin, otherAdmin); err == nil {
		t.Fatal("expected admin-on-admin ban to be rejected")
	}

	target := &user.User{ID: "u1", Role: user.RoleUser, IsActive: true}
	if err := RequireCanBan(admin, target); err != nil {
		t.Fatalf("expected ban to be allowed: %v", err)
	}
}

func TestRequireCanChangeRole(t *testing.T) {
	admin := actorWithRole(user.RoleAdmin)

	if err := RequireCanChangeRole(admin, admin); err == nil {
		t.Fatal("expected self role change to be rejected")
	}

	target := &user.User{ID: "u1", Role: user.RoleUser, IsActive: true}
	if err := RequireCanChangeRole(admin, target); err != nil {
		t.Fatalf("expected role change to be allowed: %v", err)
	}
}

func TestCanSeeUnapproved(t *testing.T) {
	if CanSeeUnapproved(nil) {
		t.Fatal("anonymous must not see unapproved reviews")
	}
	if CanSeeUnapproved(actorWithRole(user.RoleUser)) {
		t.Fatal("regular user must not see unapproved reviews")
	}
	if !CanSeeUnapproved(actorWithRole(user.RoleProducer)) {
		t.Fatal("producer should see unapproved reviews")
	}
	if !CanSeeUnapproved(actorWithRole(user.RoleAdmin)) {
		t.Fatal("admin should see unapproved reviews")
	}
}
