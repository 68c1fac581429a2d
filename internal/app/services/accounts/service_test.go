package accounts

import (
	"context"
	"net/http"
	"testing"

	"github.com/Vukotije/audiotheca/internal/app/domain/user"
	"github.com/Vukotije/audiotheca/internal/app/storage/memory"
	"github.com/Vukotije/audiotheca/internal/errors"
)

func newService() *Service {
	return New(memory.New(), nil)
}

func mustRegister(t *testing.T, svc *Service, username, email, password string) user.User {
	t.Helper()
	u, err := svc.Register(context.Background(), username, email, password)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func statusOf(err error) int {
	if svcErr := errors.GetServiceError(err); svcErr != nil {
		return svcErr.HTTPStatus
	}
	return 0
}

func TestRegisterForcesUserRole(t *testing.T) {
	svc := newService()
	u := mustRegister(t, svc, "alice", "alice@example.com", "secret123")

	if u.Role != user.RoleUser {
		t.Fatalf("expected role user, got %s", u.Role)
	}
	if !u.IsActive {
		t.Fatal("new accounts should be active")
	}
	if u.PasswordHash == "secret123" {
		t.Fatal("password must not be stored in plain text")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := newService()
	mustRegister(t, svc, "alice", "alice@example.com", "secret123")

	if _, err := svc.Register(context.Background(), "alice", "other@example.com", "secret123"); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate username, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob", "alice@example.com", "secret123"); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %v", err)
	}
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	svc := newService()
	if _, err := svc.Register(context.Background(), "", "a@b.c", "pw"); statusOf(err) != http.StatusBadRequest {
		t.Fatal("expected 400 for missing username")
	}
	if _, err := svc.Register(context.Background(), "a", "a@b.c", ""); statusOf(err) != http.StatusBadRequest {
		t.Fatal("expected 400 for missing password")
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newService()
	mustRegister(t, svc, "alice", "alice@example.com", "secret123")

	if _, err := svc.Authenticate(context.Background(), "alice", "secret123"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "alice", "wrong"); statusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody", "secret123"); statusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown username, got %v", err)
	}
}

func TestAuthenticateRejectsBannedAccount(t *testing.T) {
	svc := newService()
	u := mustRegister(t, svc, "alice", "alice@example.com", "secret123")

	admin := seedAdmin(t, svc)
	if _, err := svc.Ban(context.Background(), admin, u.ID); err != nil {
		t.Fatalf("ban: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "alice", "secret123"); statusOf(err) != http.StatusForbidden {
		t.Fatal("expected 403 for deactivated account")
	}
}

func TestChangePasswordRejectsBannedAccount(t *testing.T) {
	svc := newService()
	u := mustRegister(t, svc, "alice", "alice@example.com", "secret123")

	admin := seedAdmin(t, svc)
	if _, err := svc.Ban(context.Background(), admin, u.ID); err != nil {
		t.Fatalf("ban: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), u.ID, "secret123", "newpass456"); statusOf(err) != http.StatusForbidden {
		t.Fatalf("expected 403 for deactivated account, got %v", err)
	}

	// The password is unchanged after reactivation.
	if _, err := svc.Unban(context.Background(), admin, u.ID); err != nil {
		t.Fatalf("unban: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "alice", "secret123"); err != nil {
		t.Fatalf("original password should still work: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newService()
	u := mustRegister(t, svc, "alice", "alice@example.com", "secret123")

	if err := svc.ChangePassword(context.Background(), u.ID, "wrong", "newpass"); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong old password, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), u.ID, "secret123", "newpass"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "alice", "newpass"); err != nil {
		t.Fatalf("authenticate with new password: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "alice", "secret123"); err == nil {
		t.Fatal("old password should no longer work")
	}
}

func TestBanGuards(t *testing.T) {
	svc := newService()
	admin := seedAdmin(t, svc)

	if _, err := svc.Ban(context.Background(), admin, admin.ID); statusOf(err) != http.StatusForbidden {
		t.Fatal("expected self-ban to be forbidden")
	}

	regular := mustRegister(t, svc, "bob", "bob@example.com", "secret123")
	if _, err := svc.Ban(context.Background(), &regular, admin.ID); statusOf(err) != http.StatusForbidden {
		t.Fatal("expected non-admin ban to be forbidden")
	}

	banned, err := svc.Ban(context.Background(), admin, regular.ID)
	if err != nil {
		t.Fatalf("ban: %v", err)
	}
	if banned.IsActive {
		t.Fatal("expected banned account to be inactive")
	}

	unbanned, err := svc.Unban(context.Background(), admin, regular.ID)
	if err != nil {
		t.Fatalf("unban: %v", err)
	}
	if !unbanned.IsActive {
		t.Fatal("expected unbanned account to be active")
	}
}

func TestChangeRole(t *testing.T) {
	svc := newService()
	admin := seedAdmin(t, svc)
	regular := mustRegister(t, svc, "bob", "bob@example.com", "secret123")

	if _, err := svc.ChangeRole(context.Background(), admin, regular.ID, "superuser"); statusOf(err) != http.StatusBadRequest {
		t.Fatal("expected 400 for unknown role")
	}
	if _, err := svc.ChangeRole(context.Background(), admin, regular.ID, ""); statusOf(err) != http.StatusBadRequest {
		t.Fatal("expected 400 for empty role")
	}
	if _, err := svc.ChangeRole(context.Background(), admin, admin.ID, "user"); statusOf(err) != http.StatusForbidden {
		t.Fatal("expected self role change to be forbidden")
	}

	promoted, err := svc.ChangeRole(context.Background(), admin, regular.ID, "producer")
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if promoted.Role != user.RoleProducer {
		t.Fatalf("expected role producer, got %s", promoted.Role)
	}
}

func TestListRequiresAdmin(t *testing.T) {
	svc := newService()
	regular := mustRegister(t, svc, "bob", "bob@example.com", "secret123")

	if _, err := svc.List(context.Background(), &regular); statusOf(err) != http.StatusForbidden {
		t.Fatal("expected 403 for non-admin listing")
	}

	admin := seedAdmin(t, svc)
	users, err := svc.List(context.Background(), admin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestEnsureAdmin(t *testing.T) {
	svc := newService()

	if err := svc.EnsureAdmin(context.Background(), "root", "root@example.com", "rootpass"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	u, err := svc.Authenticate(context.Background(), "root", "rootpass")
	if err != nil {
		t.Fatalf("authenticate seeded admin: %v", err)
	}
	if u.Role != user.RoleAdmin {
		t.Fatalf("expected admin role, got %s", u.Role)
	}

	// A second call is a no-op once an admin exists.
	if err := svc.EnsureAdmin(context.Background(), "root2", "root2@example.com", "rootpass"); err != nil {
		t.Fatalf("ensure admin again: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "root2", "rootpass"); err == nil {
		t.Fatal("second admin should not have been seeded")
	}

	// Blank config disables seeding.
	if err := newService().EnsureAdmin(context.Background(), "", "", ""); err != nil {
		t.Fatalf("blank seed config: %v", err)
	}
}

func seedAdmin(t *testing.T, svc *Service) *user.User {
	t.Helper()
	if err := svc.EnsureAdmin(context.Background(), "root", "root@example.com", "rootpass"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	u, err := svc.Authenticate(context.Background(), "root", "rootpass")
	if err != nil {
		t.Fatalf("authenticate admin: %v", err)
	}
	return &u
}
