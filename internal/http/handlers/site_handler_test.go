package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harikv/moviegate/internal/domain"
	"github.com/harikv/moviegate/internal/http/handlers"
	mw "github.com/harikv/moviegate/internal/http/middleware"
)

// ---------- Mocks ----------

type mockMovieRepo struct {
	movies map[primitive.ObjectID]*domain.Movie
	views  map[primitive.ObjectID]int
	err    error
}

func newMockMovieRepo() *mockMovieRepo {
	return &mockMovieRepo{
		movies: make(map[primitive.ObjectID]*domain.Movie),
		views:  make(map[primitive.ObjectID]int),
	}
}

func (m *mockMovieRepo) add(title string, year int, language, genre string) primitive.ObjectID {
	id := primitive.NewObjectID()
	m.movies[id] = &domain.Movie{
		ID:           id,
		Title:        title,
		Year:         year,
		Language:     language,
		Genres:       []string{genre},
		Quality:      "1080p",
		WatchLink:    "https://stream.example/v/1",
		DownloadLink: "https://files.example/f/1",
	}
	return id
}

func (m *mockMovieRepo) all() []domain.Movie {
	out := make([]domain.Movie, 0, len(m.movies))
	for _, mv := range m.movies {
		out = append(out, *mv)
	}
	return out
}

func (m *mockMovieRepo) Insert(_ context.Context, movie *domain.Movie) (primitive.ObjectID, error) {
	if m.err != nil {
		return primitive.NilObjectID, m.err
	}
	id := primitive.NewObjectID()
	movie.ID = id
	m.movies[id] = movie
	return id, nil
}

func (m *mockMovieRepo) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.movies[id]; !ok {
		return false, nil
	}
	delete(m.movies, id)
	return true, nil
}

func (m *mockMovieRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Movie, error) {
	if m.err != nil {
		return nil, m.err
	}
	movie, ok := m.movies[id]
	if !ok {
		return nil, domain.ErrMovieNotFound
	}
	return movie, nil
}

func (m *mockMovieRepo) SearchByTitle(_ context.Context, query string, _ int64) ([]domain.Movie, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Movie
	for _, mv := range m.movies {
		if mv.Title == query {
			out = append(out, *mv)
		}
	}
	return out, nil
}

func (m *mockMovieRepo) Latest(_ context.Context, _ int64) ([]domain.Movie, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.all(), nil
}

func (m *mockMovieRepo) Trending(_ context.Context, _ int64) ([]domain.Movie, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.all(), nil
}

func (m *mockMovieRepo) ByLanguage(_ context.Context, language string, _ int64) ([]domain.Movie, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Movie
	for _, mv := range m.movies {
		if mv.Language == language {
			out = append(out, *mv)
		}
	}
	return out, nil
}

func (m *mockMovieRepo) ByGenre(_ context.Context, genre string, _ int64) ([]domain.Movie, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Movie
	for _, mv := range m.movies {
		for _, g := range mv.Genres {
			if g == genre {
				out = append(out, *mv)
			}
		}
	}
	return out, nil
}

func (m *mockMovieRepo) Related(_ context.Context, movie *domain.Movie, _ int64) ([]domain.Movie, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Movie
	for _, mv := range m.movies {
		if mv.ID != movie.ID && mv.Language == movie.Language {
			out = append(out, *mv)
		}
	}
	return out, nil
}

func (m *mockMovieRepo) Count(_ context.Context) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.movies)), nil
}

func (m *mockMovieRepo) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	if m.err != nil {
		return m.err
	}
	m.views[id]++
	return nil
}

type mockGate struct {
	decision     domain.Decision
	checkErr     error
	verifyURL    string
	challengeErr error
	redeemErr    error

	lastCheckedID  string
	lastRedeemedID string
	lastToken      string
}

func (g *mockGate) Enabled() bool { return true }

func (g *mockGate) CheckAccess(_ context.Context, userID string) (domain.Decision, error) {
	g.lastCheckedID = userID
	return g.decision, g.checkErr
}

func (g *mockGate) Challenge(_ context.Context, userID string) (string, error) {
	return g.verifyURL, g.challengeErr
}

func (g *mockGate) Redeem(_ context.Context, userID, token string) error {
	g.lastRedeemedID = userID
	g.lastToken = token
	return g.redeemErr
}

// ---------- Helpers ----------

func siteRouter(movies *mockMovieRepo, gate *mockGate) chi.Router {
	h := handlers.NewSiteHandler(movies, gate, "https://youtube.com/watch?v=tutorial")
	r := chi.NewRouter()
	r.Mount("/", h.Routes(nil))
	return r
}

func allowed() domain.Decision {
	return domain.Decision{Allowed: true, Count: 1, Limit: 3}
}

func blocked() domain.Decision {
	return domain.Decision{Allowed: false, NeedVerification: true, Count: 3, Limit: 3}
}

// ---------- Tests ----------

func TestSearchAllowed(t *testing.T) {
	movies := newMockMovieRepo()
	movies.add("Pushpa 2", 2024, "Telugu", "Action")
	gate := &mockGate{decision: allowed()}

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=Pushpa+2", nil)
	req.AddCookie(&http.Cookie{Name: mw.VisitorCookie, Value: "visitor-1"})
	rec := httptest.NewRecorder()
	siteRouter(movies, gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Query   string         `json:"query"`
		Results []domain.Movie `json:"results"`
		Count   int            `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Count != 1 || len(body.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", body.Count)
	}
	if gate.lastCheckedID != "visitor-1" {
		t.Fatalf("expected ledger keyed on visitor cookie, got %q", gate.lastCheckedID)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	gate := &mockGate{decision: allowed()}

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rec := httptest.NewRecorder()
	siteRouter(newMockMovieRepo(), gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if gate.lastCheckedID != "" {
		t.Fatal("empty query must not consume quota")
	}
}

func TestSearchQuotaExceeded(t *testing.T) {
	gate := &mockGate{
		decision:  blocked(),
		verifyURL: "https://short.example/abc",
	}

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=anything", nil)
	rec := httptest.NewRecorder()
	siteRouter(newMockMovieRepo(), gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body struct {
		Code        string `json:"code"`
		Count       int    `json:"count"`
		Limit       int    `json:"limit"`
		VerifyURL   string `json:"verify_url"`
		TutorialURL string `json:"tutorial_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Code != "QUOTA_EXCEEDED" {
		t.Fatalf("expected QUOTA_EXCEEDED, got %q", body.Code)
	}
	if body.VerifyURL != "https://short.example/abc" {
		t.Fatalf("expected challenge link, got %q", body.VerifyURL)
	}
	if body.Count != 3 || body.Limit != 3 {
		t.Fatalf("expected 3/3, got %d/%d", body.Count, body.Limit)
	}
	if body.TutorialURL == "" {
		t.Fatal("expected tutorial link in challenge payload")
	}
}

func TestSearchChallengeFailure(t *testing.T) {
	gate := &mockGate{
		decision:     blocked(),
		challengeErr: fmt.Errorf("%w: token create", domain.ErrStorage),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=anything", nil)
	rec := httptest.NewRecorder()
	siteRouter(newMockMovieRepo(), gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestSearchFailsClosedOnStorageError(t *testing.T) {
	gate := &mockGate{checkErr: fmt.Errorf("%w: find", domain.ErrStorage)}

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=anything", nil)
	rec := httptest.NewRecorder()
	siteRouter(newMockMovieRepo(), gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestMovieDetailGatedAndCountsView(t *testing.T) {
	movies := newMockMovieRepo()
	id := movies.add("Leo", 2023, "Tamil", "Action")
	movies.add("Vikram", 2022, "Tamil", "Action")
	gate := &mockGate{decision: allowed()}

	req := httptest.NewRequest(http.MethodGet, "/api/movies/"+id.Hex(), nil)
	rec := httptest.NewRecorder()
	siteRouter(movies, gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Movie   domain.Movie   `json:"movie"`
		Related []domain.Movie `json:"related"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Movie.Title != "Leo" {
		t.Fatalf("expected Leo, got %q", body.Movie.Title)
	}
	if len(body.Related) != 1 {
		t.Fatalf("expected 1 related movie, got %d", len(body.Related))
	}
	if movies.views[id] != 1 {
		t.Fatalf("expected view counted once, got %d", movies.views[id])
	}
}

func TestMovieDetailNotFound(t *testing.T) {
	gate := &mockGate{decision: allowed()}

	req := httptest.NewRequest(http.MethodGet, "/api/movies/"+primitive.NewObjectID().Hex(), nil)
	rec := httptest.NewRecorder()
	siteRouter(newMockMovieRepo(), gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMovieDetailInvalidID(t *testing.T) {
	gate := &mockGate{decision: allowed()}

	req := httptest.NewRequest(http.MethodGet, "/api/movies/not-an-oid", nil)
	rec := httptest.NewRecorder()
	siteRouter(newMockMovieRepo(), gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if gate.lastCheckedID != "" {
		t.Fatal("invalid id must not consume quota")
	}
}

func TestHomeIsUngated(t *testing.T) {
	movies := newMockMovieRepo()
	movies.add("Leo", 2023, "Tamil", "Action")
	movies.add("Jawan", 2023, "Hindi", "Action")
	gate := &mockGate{decision: blocked()}

	req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	rec := httptest.NewRecorder()
	siteRouter(movies, gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 even for blocked users, got %d", rec.Code)
	}
	var body struct {
		Total      int64                     `json:"total"`
		ByLanguage map[string][]domain.Movie `json:"by_language"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Total != 2 {
		t.Fatalf("expected total 2, got %d", body.Total)
	}
	if len(body.ByLanguage["Tamil"]) != 1 {
		t.Fatalf("expected 1 Tamil movie, got %d", len(body.ByLanguage["Tamil"]))
	}
}

func TestBrowseByGenre(t *testing.T) {
	movies := newMockMovieRepo()
	movies.add("Leo", 2023, "Tamil", "Action")
	movies.add("Hi Nanna", 2023, "Telugu", "Drama")
	gate := &mockGate{decision: blocked()}

	req := httptest.NewRequest(http.MethodGet, "/api/browse/genre/Drama", nil)
	rec := httptest.NewRecorder()
	siteRouter(movies, gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		FilterValue string         `json:"filter_value"`
		Movies      []domain.Movie `json:"movies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.FilterValue != "Drama" || len(body.Movies) != 1 {
		t.Fatalf("expected 1 Drama movie, got %d for %q", len(body.Movies), body.FilterValue)
	}
}

func TestVerifiedCallbackSuccess(t *testing.T) {
	gate := &mockGate{decision: allowed()}

	req := httptest.NewRequest(http.MethodGet, "/verified?uid=12345&token=abc123", nil)
	rec := httptest.NewRecorder()
	siteRouter(newMockMovieRepo(), gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	if gate.lastRedeemedID != "12345" || gate.lastToken != "abc123" {
		t.Fatalf("redeem got uid=%q token=%q", gate.lastRedeemedID, gate.lastToken)
	}

	var uidCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == mw.TelegramUIDCookie {
			uidCookie = c
		}
	}
	if uidCookie == nil || uidCookie.Value != "12345" {
		t.Fatalf("expected %s cookie bound to the Telegram id, got %v", mw.TelegramUIDCookie, uidCookie)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect home, got %q", loc)
	}
}

func TestVerifiedCallbackInvalidToken(t *testing.T) {
	gate := &mockGate{redeemErr: domain.ErrInvalidToken}

	req := httptest.NewRequest(http.MethodGet, "/verified?uid=12345&token=stale", nil)
	rec := httptest.NewRecorder()
	siteRouter(newMockMovieRepo(), gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Code != "INVALID_TOKEN" {
		t.Fatalf("expected INVALID_TOKEN, got %q", body.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == mw.TelegramUIDCookie {
			t.Fatal("failed redemption must not bind the browser")
		}
	}
}

func TestVerifiedCallbackMissingParams(t *testing.T) {
	gate := &mockGate{}

	req := httptest.NewRequest(http.MethodGet, "/verified?uid=12345", nil)
	rec := httptest.NewRecorder()
	siteRouter(newMockMovieRepo(), gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if gate.lastToken != "" {
		t.Fatal("redeem must not run without a token")
	}
}

func TestVerifiedCallbackStorageError(t *testing.T) {
	gate := &mockGate{redeemErr: errors.New("mongo down")}

	req := httptest.NewRequest(http.MethodGet, "/verified?uid=12345&token=abc", nil)
	rec := httptest.NewRecorder()
	siteRouter(newMockMovieRepo(), gate).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
