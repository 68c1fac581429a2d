package postgres

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/Vukotije/audiotheca/internal/app/domain/review"
	"github.com/Vukotije/audiotheca/internal/app/domain/user"
	"github.com/Vukotije/audiotheca/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := store.CreateUser(context.Background(), user.User{Username: "alice"})
	if !stderrors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, username, email, password_hash, role, is_active, created_at").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "is_active", "created_at"}))

	_, err := store.GetUser(context.Background(), "missing")
	if !stderrors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUserScansRow(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "is_active", "created_at"}).
		AddRow("u1", "alice", "alice@example.com", "hash", "producer", true, now)
	mock.ExpectQuery("SELECT id, username, email, password_hash, role, is_active, created_at").
		WithArgs("u1").
		WillReturnRows(rows)

	u, err := store.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Username != "alice" || u.Role != user.RoleProducer || !u.IsActive {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateUser(context.Background(), user.User{ID: "missing"})
	if !stderrors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM users").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.DeleteUser(context.Background(), "u1"); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	mock.ExpectExec("DELETE FROM users").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := store.DeleteUser(context.Background(), "missing"); !stderrors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteGenreMapsForeignKeyViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM genres").
		WithArgs("g1").
		WillReturnError(&pq.Error{Code: "23503"})

	err := store.DeleteGenre(context.Background(), "g1")
	if !stderrors.Is(err, storage.ErrReferenced) {
		t.Fatalf("expected ErrReferenced, got %v", err)
	}
}

func TestCreateReviewMapsConstraintViolations(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO reviews").
		WillReturnError(&pq.Error{Code: "23505"})
	_, err := store.CreateReview(context.Background(), review.Review{UserID: "u1", MusicalWorkID: "w1", Rating: 3})
	if !stderrors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	mock.ExpectExec("INSERT INTO reviews").
		WillReturnError(&pq.Error{Code: "23503"})
	_, err = store.CreateReview(context.Background(), review.Review{UserID: "u1", MusicalWorkID: "gone", Rating: 3})
	if !stderrors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateReviewAssignsIDAndTimestamps(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO reviews").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r, err := store.CreateReview(context.Background(), review.Review{UserID: "u1", MusicalWorkID: "w1", Rating: 3})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	if r.ID == "" {
		t.Fatal("expected generated id")
	}
	if r.CreatedAt.IsZero() || r.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestListPendingReviews(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "musical_work_id", "rating", "comment", "is_approved", "created_at", "updated_at"}).
		AddRow("r1", "u1", "w1", 3, "solid", false, now, now).
		AddRow("r2", "u2", "w1", 5, "great", false, now, now)
	mock.ExpectQuery("SELECT id, user_id, musical_work_id").
		WillReturnRows(rows)

	reviews, err := store.ListPendingReviews(context.Background())
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].ID != "r1" || reviews[0].IsApproved {
		t.Fatalf("unexpected review: %+v", reviews[0])
	}
}

func TestDeleteReviewNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM reviews").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteReview(context.Background(), "missing"); !stderrors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCountWorksByGenre(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := store.CountWorksByGenre(context.Background(), "g1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3, got %d", count)
	}
}
