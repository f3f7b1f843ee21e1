package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/harikv/moviegate/internal/domain"
	mw "github.com/harikv/moviegate/internal/http/middleware"
	"github.com/harikv/moviegate/internal/http/response"
	"github.com/harikv/moviegate/internal/repo/mongodb"
	"github.com/harikv/moviegate/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gate is the access ledger surface the web handlers need.
type Gate interface {
	Enabled() bool
	CheckAccess(ctx context.Context, userID string) (domain.Decision, error)
	Challenge(ctx context.Context, userID string) (string, error)
	Redeem(ctx context.Context, userID, token string) error
}

// Home page sections, mirroring the catalog's browse surface.
var (
	homeLanguages = []string{"Tamil", "Hindi", "Telugu"}
	homeGenres    = []string{"Action", "Drama", "Comedy"}
)

type SiteHandler struct {
	movies       mongodb.MovieRepo
	gate         Gate
	tutorialLink string
}

func NewSiteHandler(movies mongodb.MovieRepo, gate Gate, tutorialLink string) *SiteHandler {
	return &SiteHandler{movies: movies, gate: gate, tutorialLink: tutorialLink}
}

func (h *SiteHandler) Routes(rateLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/api/movies", h.Home)
	r.Get("/api/movies/{id}", h.Movie)
	r.Get("/api/browse/language/{language}", h.BrowseLanguage)
	r.Get("/api/browse/genre/{genre}", h.BrowseGenre)
	if rateLimit != nil {
		r.With(rateLimit).Get("/api/search", h.Search)
		r.With(rateLimit).Get("/verified", h.Verified)
	} else {
		r.Get("/api/search", h.Search)
		r.Get("/verified", h.Verified)
	}
	return r
}

// checkGate runs the access check and, when the user is blocked,
// answers with the verification challenge. Returns false when the
// request has been fully handled.
func (h *SiteHandler) checkGate(w http.ResponseWriter, r *http.Request) bool {
	userID := mw.VisitorID(r)

	decision, err := h.gate.CheckAccess(r.Context(), userID)
	if err != nil {
		// Fail closed: storage trouble never grants free access.
		logger.ErrorContext(r.Context(), "access check failed", "error", err)
		response.ServiceUnavailable(w, "Temporary issue, please try again later")
		return false
	}
	if decision.Allowed {
		return true
	}

	verifyURL, err := h.gate.Challenge(r.Context(), userID)
	if err != nil {
		logger.ErrorContext(r.Context(), "challenge issue failed", "error", err)
		response.ServiceUnavailable(w, "Temporary issue, please try again later")
		return false
	}

	response.WriteJSON(w, http.StatusForbidden, map[string]interface{}{
		"error":        "Daily free limit reached. Complete verification to continue.",
		"code":         response.CodeQuotaExceeded,
		"count":        decision.Count,
		"limit":        decision.Limit,
		"verify_url":   verifyURL,
		"tutorial_url": h.tutorialLink,
	})
	return false
}

func (h *SiteHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	latest, err := h.movies.Latest(ctx, 10)
	if err != nil {
		response.InternalError(w, "Failed to load movies")
		return
	}
	trending, err := h.movies.Trending(ctx, 10)
	if err != nil {
		response.InternalError(w, "Failed to load movies")
		return
	}

	byLanguage := make(map[string][]domain.Movie, len(homeLanguages))
	for _, lang := range homeLanguages {
		movies, err := h.movies.ByLanguage(ctx, lang, 10)
		if err != nil {
			response.InternalError(w, "Failed to load movies")
			return
		}
		byLanguage[lang] = movies
	}

	byGenre := make(map[string][]domain.Movie, len(homeGenres))
	for _, genre := range homeGenres {
		movies, err := h.movies.ByGenre(ctx, genre, 10)
		if err != nil {
			response.InternalError(w, "Failed to load movies")
			return
		}
		byGenre[genre] = movies
	}

	total, err := h.movies.Count(ctx)
	if err != nil {
		response.InternalError(w, "Failed to load movies")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"latest":      latest,
		"trending":    trending,
		"by_language": byLanguage,
		"by_genre":    byGenre,
		"total":       total,
	})
}

func (h *SiteHandler) Movie(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid movie id")
		return
	}

	if !h.checkGate(w, r) {
		return
	}

	movie, err := h.movies.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrMovieNotFound) {
		response.NotFound(w, "Movie not found")
		return
	}
	if err != nil {
		response.InternalError(w, "Failed to load movie")
		return
	}

	if err := h.movies.IncrementViews(r.Context(), id); err != nil {
		logger.WarnContext(r.Context(), "view increment failed", "movie_id", id.Hex(), "error", err)
	}

	related, err := h.movies.Related(r.Context(), movie, 6)
	if err != nil {
		logger.WarnContext(r.Context(), "related lookup failed", "error", err)
		related = nil
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"movie":   movie,
		"related": related,
	})
}

func (h *SiteHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, "Query parameter q is required")
		return
	}

	if !h.checkGate(w, r) {
		return
	}

	movies, err := h.movies.SearchByTitle(r.Context(), query, 20)
	if err != nil {
		response.InternalError(w, "Search failed")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": movies,
		"count":   len(movies),
	})
}

func (h *SiteHandler) BrowseLanguage(w http.ResponseWriter, r *http.Request) {
	language := chi.URLParam(r, "language")
	movies, err := h.movies.ByLanguage(r.Context(), language, 100)
	if err != nil {
		response.InternalError(w, "Failed to load movies")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"filter_type":  "language",
		"filter_value": language,
		"movies":       movies,
		"count":        len(movies),
	})
}

func (h *SiteHandler) BrowseGenre(w http.ResponseWriter, r *http.Request) {
	genre := chi.URLParam(r, "genre")
	movies, err := h.movies.ByGenre(r.Context(), genre, 100)
	if err != nil {
		response.InternalError(w, "Failed to load movies")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"filter_type":  "genre",
		"filter_value": genre,
		"movies":       movies,
		"count":        len(movies),
	})
}

// Verified is the shortlink callback. A valid token opens the
// verified window and the browser is bound to the Telegram identity
// before being sent home.
func (h *SiteHandler) Verified(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	token := r.URL.Query().Get("token")
	if uid == "" || token == "" {
		response.BadRequest(w, "Verification failed, please try again")
		return
	}

	err := h.gate.Redeem(r.Context(), uid, token)
	if errors.Is(err, domain.ErrInvalidToken) {
		// Unknown and expired tokens are indistinguishable on purpose.
		response.WriteError(w, http.StatusBadRequest, "Verification expired or invalid, please verify again", response.CodeInvalidToken)
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "redeem failed", "error", err)
		response.ServiceUnavailable(w, "Temporary issue, please try again later")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     mw.TelegramUIDCookie,
		Value:    uid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}
