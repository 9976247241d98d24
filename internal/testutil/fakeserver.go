package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"zendo/internal/service"
)

// FakeServer is an httptest server speaking the remote task service's REST
// API, backed by an in-memory collection.
type FakeServer struct {
	*httptest.Server

	mu    sync.Mutex
	tasks []service.Task
	auth  []string // Authorization header of every /todos request

	// Token, when set, is required as a bearer token on /todos routes.
	Token string
	// Status, when non-zero, is returned by every /todos route instead of
	// serving the request.
	Status int
	// Malformed makes successful /todos responses carry an invalid body.
	Malformed bool
	// Users maps email to password for /auth/login.
	Users map[string]string
}

// NewFakeServer starts a FakeServer. It is closed when the test ends.
func NewFakeServer(t interface{ Cleanup(func()) }) *FakeServer {
	s := &FakeServer{Users: make(map[string]string)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register", s.handleRegister)

	r.Route("/todos", func(r chi.Router) {
		r.Use(s.gate)
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddTask seeds the collection.
func (s *FakeServer) AddTask(t service.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t.Clone())
}

// Tasks returns a copy of the collection.
func (s *FakeServer) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// AuthHeaders returns the Authorization header seen on each /todos request.
func (s *FakeServer) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.auth)
}

func (s *FakeServer) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.auth = append(s.auth, r.Header.Get("Authorization"))
		token, status := s.Token, s.Status
		s.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *FakeServer) reply(w http.ResponseWriter, status int, v any) {
	if s.Malformed {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"id": `))
		return
	}
	writeJSON(w, status, v)
}

func (s *FakeServer) handleList(w http.ResponseWriter, r *http.Request) {
	tasks := s.Tasks()
	if tasks == nil {
		tasks = []service.Task{}
	}
	s.reply(w, http.StatusOK, tasks)
}

func (s *FakeServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var t service.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if t.ID == "" {
		t.ID = service.NewTaskID()
	}
	s.AddTask(t)
	s.reply(w, http.StatusCreated, t)
}

func (s *FakeServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p service.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	i := slices.IndexFunc(s.tasks, func(t service.Task) bool { return t.ID == id })
	if i < 0 {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "todo not found"})
		return
	}
	s.tasks[i] = p.Apply(s.tasks[i])
	t := s.tasks[i].Clone()
	s.mu.Unlock()

	s.reply(w, http.StatusOK, t)
}

func (s *FakeServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	s.tasks = slices.DeleteFunc(s.tasks, func(t service.Task) bool { return t.ID == id })
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

type authRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *FakeServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	s.mu.Lock()
	pw, ok := s.Users[req.Email]
	token := s.Token
	s.mu.Unlock()
	if !ok || pw != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		return
	}
	if token == "" {
		token = "test-token"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  service.User{ID: "u1", Username: req.Email, Email: req.Email},
	})
}

func (s *FakeServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	s.mu.Lock()
	if _, exists := s.Users[req.Email]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Email already registered"})
		return
	}
	s.Users[req.Email] = req.Password
	token := s.Token
	s.mu.Unlock()
	if token == "" {
		token = "test-token"
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  service.User{ID: "u2", Username: req.Username, Email: req.Email},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
