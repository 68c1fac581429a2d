// Package httpapi exposes the application over HTTP.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Vukotije/audiotheca/internal/app"
	"github.com/Vukotije/audiotheca/internal/app/domain/user"
	"github.com/Vukotije/audiotheca/internal/errors"
	"github.com/Vukotije/audiotheca/internal/logging"
	"github.com/Vukotije/audiotheca/internal/middleware"
	"github.com/Vukotije/audiotheca/internal/tokens"
)

// Handler routes HTTP requests to application services.
type Handler struct {
	app    *app.Application
	issuer *tokens.Issuer
	log    *logging.Logger
}

// New constructs an HTTP handler.
func New(application *app.Application, issuer *tokens.Issuer, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewDefault("httpapi")
	}
	return &Handler{app: application, issuer: issuer, log: log}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	r.HandleFunc("/change-password", h.changePassword).Methods(http.MethodPost)
	r.HandleFunc("/me", h.me).Methods(http.MethodGet)

	r.HandleFunc("/genres", h.listGenres).Methods(http.MethodGet)
	r.HandleFunc("/genres", h.createGenre).Methods(http.MethodPost)
	r.HandleFunc("/genres/{id}", h.getGenre).Methods(http.MethodGet)
	r.HandleFunc("/genres/{id}", h.updateGenre).Methods(http.MethodPut)
	r.HandleFunc("/genres/{id}", h.deleteGenre).Methods(http.MethodDelete)

	r.HandleFunc("/artists", h.listArtists).Methods(http.MethodGet)
	r.HandleFunc("/artists", h.createArtist).Methods(http.MethodPost)
	r.HandleFunc("/artists/{id}", h.getArtist).Methods(http.MethodGet)
	r.HandleFunc("/artists/{id}", h.updateArtist).Methods(http.MethodPut)
	r.HandleFunc("/artists/{id}", h.deleteArtist).Methods(http.MethodDelete)

	r.HandleFunc("/musical-works", h.listWorks).Methods(http.MethodGet)
	r.HandleFunc("/musical-works", h.createWork).Methods(http.MethodPost)
	r.HandleFunc("/musical-works/{id}", h.getWork).Methods(http.MethodGet)
	r.HandleFunc("/musical-works/{id}", h.updateWork).Methods(http.MethodPut)
	r.HandleFunc("/musical-works/{id}", h.deleteWork).Methods(http.MethodDelete)
	r.HandleFunc("/musical-works/{id}/reviews", h.listWorkReviews).Methods(http.MethodGet)

	r.HandleFunc("/reviews", h.createReview).Methods(http.MethodPost)
	r.HandleFunc("/reviews", h.listOwnReviews).Methods(http.MethodGet)
	r.HandleFunc("/reviews/pending", h.listPendingReviews).Methods(http.MethodGet)
	r.HandleFunc("/reviews/{id}", h.getReview).Methods(http.MethodGet)
	r.HandleFunc("/reviews/{id}", h.updateReview).Methods(http.MethodPut)
	r.HandleFunc("/reviews/{id}", h.deleteReview).Methods(http.MethodDelete)
	r.HandleFunc("/reviews/{id}/approve", h.approveReview).Methods(http.MethodPost)
	r.HandleFunc("/reviews/{id}/reject", h.rejectReview).Methods(http.MethodPost)

	r.HandleFunc("/users", h.listUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.getUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/ban", h.banUser).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}/unban", h.unbanUser).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}/role", h.changeUserRole).Methods(http.MethodPut)

	r.HandleFunc("/search", h.search).Methods(http.MethodGet)
	r.HandleFunc("/search/artists", h.searchArtists).Methods(http.MethodGet)
	r.HandleFunc("/search/musical-works", h.searchWorks).Methods(http.MethodGet)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Auth -------------------------------------------------------------------

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("Invalid request body"))
		return
	}

	u, err := h.app.Accounts.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.issuer.Issue(u)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "User registered successfully",
		"access_token": token,
		"user":         u,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("Invalid request body"))
		return
	}

	u, err := h.app.Accounts.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.issuer.Issue(u)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Login successful",
		"access_token": token,
		"user":         u,
	})
}

// logout is stateless; clients discard the token. The endpoint exists so
// clients have a uniform call to end a session.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireActor(r); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("Invalid request body"))
		return
	}

	if err := h.app.Accounts.ChangePassword(r.Context(), actor.ID, payload.OldPassword, payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

// --- Genres -----------------------------------------------------------------

func (h *Handler) listGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.app.Catalog.ListGenres(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

func (h *Handler) getGenre(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.Catalog.GetGenre(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) createGenre(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("Invalid request body"))
		return
	}

	g, err := h.app.Catalog.CreateGenre(r.Context(), actor, payload.Name, payload.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *Handler) updateGenre(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("Invalid request body"))
		return
	}

	g, err := h.app.Catalog.UpdateGenre(r.Context(), actor, mux.Vars(r)["id"], payload.Name, payload.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) deleteGenre(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.app.Catalog.DeleteGenre(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Genre deleted successfully"})
}

// --- Artists ----------------------------------------------------------------

func (h *Handler) listArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.app.Catalog.ListArtists(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

func (h *Handler) getArtist(w http.ResponseWriter, r *http.Request) {
	a, err := h.app.Catalog.GetArtist(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) createArtist(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Name       string `json:"name"`
		Biography  string `json:"biography"`
		Multimedia string `json:"multimedia"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("Invalid request body"))
		return
	}

	a, err := h.app.Catalog.CreateArtist(r.Context(), actor, payload.Name, payload.Biography, payload.Multimedia)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) updateArtist(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Name       *string `json:"name"`
		Biography  *string `json:"biography"`
		Multimedia *string `json:"multimedia"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("Invalid request body"))
		return
	}

	a, err := h.app.Catalog.UpdateArtist(r.Context(), actor, mux.Vars(r)["id"], payload.Name, payload.Biography, payload.Multimedia)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) deleteArtist(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.app.Catalog.DeleteArtist(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Artist deleted successfully"})
}

// --- Musical works ----------------------------------------------------------

func (h *Handler) listWorks(w http.ResponseWriter, r *http.Request) {
	works, err := h.app.Catalog.ListWorks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, works)
}

func (h *Handler) getWork(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	details, err := h.app.Catalog.GetWork(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) createWork(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		GenreID     string `json:"genre_id"`
		ArtistID    string `json:"artist_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("Invalid request body"))
		return
	}

	details, err := h.app.Catalog.CreateWork(r.Context(), actor, payload.Title, payload.Description, payload.GenreID, payload.ArtistID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, details)
}

func (h *Handler) updateWork(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		GenreID     *string `json:"genre_id"`
		ArtistID    *string `json:"artist_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("Invalid request body"))
		return
	}

	details, err := h.app.Catalog.UpdateWork(r.Context(), actor, mux.Vars(r)["id"], payload.Title, payload.Description, payload.GenreID, payload.ArtistID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) deleteWork(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.app.Catalog.DeleteWork(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Musical work deleted successfully"})
}

func (h *Handler) listWorkReviews(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reviews, err := h.app.Reviews.ListForWork(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// --- Reviews ----------------------------------------------------------------

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		MusicalWorkID string `json:"musical_work_id"`
		Rating        int    `json:"rating"`
		Comment       string `json:"comment"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("Invalid request body"))
		return
	}

	rev, err := h.app.Reviews.Create(r.Context(), actor, payload.MusicalWorkID, payload.Rating, payload.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Review submitted and pending approval",
		"review":  rev,
	})
}

func (h *Handler) listOwnReviews(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reviews, err := h.app.Reviews.ListOwn(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *Handler) listPendingReviews(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reviews, err := h.app.Reviews.ListPending(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *Handler) getReview(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rev, err := h.app.Reviews.Get(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *Handler) updateReview(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Rating  *int    `json:"rating"`
		Comment *string `json:"comment"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("Invalid request body"))
		return
	}

	rev, err := h.app.Reviews.Update(r.Context(), actor, mux.Vars(r)["id"], payload.Rating, payload.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Review updated and pending approval",
		"review":  rev,
	})
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.app.Reviews.Delete(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Review deleted successfully"})
}

func (h *Handler) approveReview(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rev, err := h.app.Reviews.Approve(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Review approved",
		"review":  rev,
	})
}

func (h *Handler) rejectReview(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.app.Reviews.Reject(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Review rejected"})
}

// --- Users (admin) ----------------------------------------------------------

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	users, err := h.app.Accounts.List(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	u, err := h.app.Accounts.GetForAdmin(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) banUser(w http.ResponseWriter, r *http.Request) {
	h.setUserActive(w, r, false)
}

func (h *Handler) unbanUser(w http.ResponseWriter, r *http.Request) {
	h.setUserActive(w, r, true)
}

func (h *Handler) setUserActive(w http.ResponseWriter, r *http.Request, active bool) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var (
		u       user.User
		message string
	)
	if active {
		u, err = h.app.Accounts.Unban(r.Context(), actor, mux.Vars(r)["id"])
		message = "User unbanned successfully"
	} else {
		u, err = h.app.Accounts.Ban(r.Context(), actor, mux.Vars(r)["id"])
		message = "User banned successfully"
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"user":    u,
	})
}

func (h *Handler) changeUserRole(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("Invalid request body"))
		return
	}

	u, err := h.app.Accounts.ChangeRole(r.Context(), actor, mux.Vars(r)["id"], payload.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User role updated successfully",
		"user":    u,
	})
}

// --- Search -----------------------------------------------------------------

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	results, err := h.app.Catalog.Search(r.Context(), r.URL.Query().Get("q"), r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) searchArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.app.Catalog.SearchArtists(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

func (h *Handler) searchWorks(w http.ResponseWriter, r *http.Request) {
	works, err := h.app.Catalog.SearchWorks(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, works)
}

// --- Helpers ----------------------------------------------------------------

// currentUser resolves the authenticated user, or nil for anonymous requests.
// A token whose subject no longer exists is treated as invalid.
func (h *Handler) currentUser(r *http.Request) (*user.User, error) {
	id := middleware.GetUserID(r.Context())
	if id == "" {
		return nil, nil
	}

	u, err := h.app.Accounts.Get(r.Context(), id)
	if err != nil {
		if svcErr := errors.GetServiceError(err); svcErr != nil && svcErr.Code == errors.CodeNotFound {
			return nil, errors.InvalidToken(nil)
		}
		return nil, err
	}
	return &u, nil
}

// requireActor is currentUser for routes that never serve anonymous callers.
// Deactivated accounts are denied here so every authenticated route shares
// the rule, including ones with no service-level policy check.
func (h *Handler) requireActor(r *http.Request) (*user.User, error) {
	actor, err := h.currentUser(r)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, errors.Unauthorized("Authentication required")
	}
	if !actor.IsActive {
		return nil, errors.Forbidden("Account is deactivated")
	}
	return actor, nil
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	svcErr := errors.GetServiceError(err)
	if svcErr == nil {
		svcErr = errors.Internal("Internal server error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(svcErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": svcErr.Message})
}
