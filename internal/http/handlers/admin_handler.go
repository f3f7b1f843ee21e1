package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"
	"github.com/harikv/moviegate/internal/domain"
	mw "github.com/harikv/moviegate/internal/http/middleware"
	"github.com/harikv/moviegate/internal/http/response"
	"github.com/harikv/moviegate/internal/repo/mongodb"
	"github.com/harikv/moviegate/pkg/auth"
	"github.com/harikv/moviegate/pkg/config"
	"github.com/harikv/moviegate/pkg/events"
	"github.com/harikv/moviegate/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AdminHandler struct {
	movies mongodb.MovieRepo
	bus    events.Publisher
	cfg    config.AdminConfig
}

func NewAdminHandler(movies mongodb.MovieRepo, bus events.Publisher, cfg config.AdminConfig) *AdminHandler {
	return &AdminHandler{movies: movies, bus: bus, cfg: cfg}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAdmin(h.cfg.JWTSecret))
		r.Get("/stats", h.Stats)
		r.Get("/movies", h.ListMovies)
		r.Post("/movies", h.AddMovie)
		r.Delete("/movies/{id}", h.DeleteMovie)
	})
	return r
}

type loginIn struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	if h.cfg.PasswordHash == "" {
		response.Unauthorized(w, "Admin login is not configured")
		return
	}

	ok, err := argon2id.ComparePasswordAndHash(in.Password, h.cfg.PasswordHash)
	if err != nil || !ok || in.Username != h.cfg.Username {
		response.Unauthorized(w, "Invalid username or password")
		return
	}

	token, err := auth.NewAdminToken(in.Username, h.cfg.JWTSecret, h.cfg.SessionTTL)
	if err != nil {
		response.InternalError(w, "Failed to issue session")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_in": int64(h.cfg.SessionTTL.Seconds()),
	})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	total, err := h.movies.Count(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to load stats")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total_movies": total,
	})
}

func (h *AdminHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movies.Latest(r.Context(), 200)
	if err != nil {
		response.InternalError(w, "Failed to load movies")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"movies": movies,
		"count":  len(movies),
	})
}

type addMovieIn struct {
	Title        string   `json:"title"`
	Year         int      `json:"year"`
	Language     string   `json:"language"`
	Genres       []string `json:"genres"`
	Quality      string   `json:"quality"`
	Description  string   `json:"description"`
	PosterRef    string   `json:"poster_ref"`
	WatchLink    string   `json:"watch_link"`
	DownloadLink string   `json:"download_link"`
}

func (in *addMovieIn) validate() string {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return "title is required"
	case in.Year < 1900 || in.Year > 2030:
		return "year must be between 1900 and 2030"
	case !strings.HasPrefix(in.WatchLink, "http"):
		return "watch_link must be a URL"
	case !strings.HasPrefix(in.DownloadLink, "http"):
		return "download_link must be a URL"
	}
	return ""
}

func (h *AdminHandler) AddMovie(w http.ResponseWriter, r *http.Request) {
	var in addMovieIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if msg := in.validate(); msg != "" {
		response.BadRequest(w, msg)
		return
	}

	movie := &domain.Movie{
		Title:        strings.TrimSpace(in.Title),
		Year:         in.Year,
		Language:     in.Language,
		Genres:       in.Genres,
		Quality:      in.Quality,
		Description:  in.Description,
		PosterRef:    in.PosterRef,
		WatchLink:    in.WatchLink,
		DownloadLink: in.DownloadLink,
		CreatedAt:    time.Now().UTC(),
	}

	id, err := h.movies.Insert(r.Context(), movie)
	if err != nil {
		response.InternalError(w, "Failed to save movie")
		return
	}

	_ = h.bus.Publish(r.Context(), events.MovieAdded, events.MovieAddedEvent{
		MovieID: id.Hex(),
		Title:   movie.Title,
		Year:    movie.Year,
		AddedAt: movie.CreatedAt,
	})
	logger.InfoContext(r.Context(), "movie added", "movie_id", id.Hex(), "title", movie.Title)

	response.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id": id.Hex(),
	})
}

func (h *AdminHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid movie id")
		return
	}

	deleted, err := h.movies.Delete(r.Context(), id)
	if err != nil {
		response.InternalError(w, "Failed to delete movie")
		return
	}
	if !deleted {
		response.NotFound(w, "Movie not found")
		return
	}

	_ = h.bus.Publish(r.Context(), events.MovieDeleted, events.MovieDeletedEvent{
		MovieID:   id.Hex(),
		DeletedAt: time.Now().UTC(),
	})

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": true,
	})
}
