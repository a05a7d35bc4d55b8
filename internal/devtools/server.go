package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"blindspot/internal/api"
)

// Demo credentials accepted by the fixture backend.
const (
	DemoEmail    = "demo@blindspot.dev"
	DemoPassword = "demo"
)

// Server is an in-process fixture backend for --demo mode. It serves the
// full endpoint surface the client speaks from canned data and keeps
// attempt mutations in memory so one practice loop plays end to end.
// It computes no analytics; everything it returns is scripted.
type Server struct {
	scenario Scenario

	mu         sync.Mutex
	access     map[string]bool
	refresh    map[string]bool
	tokenSeq   int
	attempts   map[string]*api.Attempt
	byRef      map[string]string
	attemptSeq int
	reflected  map[string]*api.Reflection

	srv *http.Server
	ln  net.Listener
}

func NewServer(scenario Scenario) *Server {
	s := &Server{
		scenario:  scenario,
		access:    map[string]bool{},
		refresh:   map[string]bool{},
		attempts:  map[string]*api.Attempt{},
		byRef:     map[string]string{},
		reflected: map[string]*api.Reflection{},
	}
	s.seed()
	return s
}

// Start binds to an ephemeral loopback port and serves in the background.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("listen: %w", err)
	}
	s.ln = ln
	s.srv = &http.Server{Handler: s.routes()}
	go func() { _ = s.srv.Serve(ln) }()
	return "http://" + ln.Addr().String(), nil
}

func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/v1/auth/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/api/v1/auth/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/api/v1/auth/refresh", s.handleRefresh).Methods("POST")
	r.HandleFunc("/api/v1/auth/logout", s.handleLogout).Methods("POST")

	r.HandleFunc("/api/v1/problems", s.authed(s.handleProblems)).Methods("GET")
	r.HandleFunc("/api/v1/problems/{id}", s.authed(s.handleProblem)).Methods("GET")
	r.HandleFunc("/api/v1/problems/{id}/analysis", s.authed(s.handleAnalysis)).Methods("GET")

	r.HandleFunc("/api/v1/patterns", s.authed(s.handlePatterns)).Methods("GET")
	r.HandleFunc("/api/v1/patterns/{id}/stats", s.authed(s.handlePatternStats)).Methods("GET")

	r.HandleFunc("/api/v1/attempts", s.authed(s.handleStartAttempt)).Methods("POST")
	r.HandleFunc("/api/v1/attempts", s.authed(s.handleListAttempts)).Methods("GET")
	r.HandleFunc("/api/v1/attempts/{id}", s.authed(s.handlePatchAttempt)).Methods("PATCH")
	r.HandleFunc("/api/v1/attempts/{id}/reflection", s.authed(s.handleGenerateReflection)).Methods("POST")
	r.HandleFunc("/api/v1/attempts/{id}/reflection", s.authed(s.handleSaveReflection)).Methods("PUT")

	r.HandleFunc("/api/v1/profile", s.authed(s.handleProfile)).Methods("GET")
	r.HandleFunc("/api/v1/analytics/blindspots", s.authed(s.handleBlindSpots)).Methods("GET")
	r.HandleFunc("/api/v1/leetcode/{slug}", s.authed(s.handleLeetCode)).Methods("GET")

	return r
}

func (s *Server) seed() {
	if s.scenario.SeedPhase == "" {
		return
	}
	problem := fixtureProblems[1]
	att := &api.Attempt{
		ID:        s.nextAttemptID(),
		ProblemID: problem.ID,
		Status:    "active",
		StartedAt: time.Now().UTC().Add(-10 * time.Minute),
	}
	if s.scenario.SeedPhase == "reported" {
		att.Status = "reported"
		att.CommittedPatternID = "sliding_window"
		att.Approach = "grow right edge, evict left past the duplicate"
		att.Confidence = 4
		att.Outcome = "solved"
		att.MinutesSpent = 18
	}
	s.attempts[att.ID] = att
}

func (s *Server) nextAttemptID() string {
	s.attemptSeq++
	return fmt.Sprintf("att-%04d", s.attemptSeq)
}

func (s *Server) newTokens() api.TokenPair {
	s.tokenSeq++
	pair := api.TokenPair{
		AccessToken:  fmt.Sprintf("demo-access-%04d", s.tokenSeq),
		RefreshToken: fmt.Sprintf("demo-refresh-%04d", s.tokenSeq),
	}
	s.access[pair.AccessToken] = true
	s.refresh[pair.RefreshToken] = true
	return pair
}

// authed wraps handlers behind a bearer-token check.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		ok := token != "" && s.access[token]
		s.mu.Unlock()
		if !ok {
			writeErr(w, http.StatusUnauthorized, "token_invalid", "access token missing or revoked")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in api.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		writeErr(w, http.StatusBadRequest, "invalid_request", "name, email and password are required")
		return
	}
	s.mu.Lock()
	pair := s.newTokens()
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, pair)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request", "malformed login body")
		return
	}
	if in.Email != DemoEmail || in.Password != DemoPassword {
		writeErr(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
		return
	}
	s.mu.Lock()
	pair := s.newTokens()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request", "malformed refresh body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.refresh[in.RefreshToken] {
		writeErr(w, http.StatusUnauthorized, "token_revoked", "refresh token is not valid")
		return
	}
	delete(s.refresh, in.RefreshToken)
	writeJSON(w, http.StatusOK, s.newTokens())
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	s.mu.Lock()
	delete(s.refresh, in.RefreshToken)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	difficulty := q.Get("difficulty")
	search := strings.ToLower(q.Get("search"))
	status := q.Get("status")

	s.mu.Lock()
	statusByProblem := map[string]string{}
	countByProblem := map[string]int{}
	for _, att := range s.attempts {
		countByProblem[att.ProblemID]++
		switch att.Status {
		case "active", "committed", "reported":
			statusByProblem[att.ProblemID] = "in_progress"
		case "completed":
			statusByProblem[att.ProblemID] = "completed"
		case "abandoned":
			if statusByProblem[att.ProblemID] == "" {
				statusByProblem[att.ProblemID] = "abandoned"
			}
		}
	}
	s.mu.Unlock()

	out := struct {
		Problems []api.ProblemSummary `json:"problems"`
	}{Problems: []api.ProblemSummary{}}
	for _, p := range fixtureProblems {
		st := statusByProblem[p.ID]
		if st == "" {
			st = "new"
		}
		if difficulty != "" && p.Difficulty != difficulty {
			continue
		}
		if status != "" && st != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		out.Problems = append(out.Problems, api.ProblemSummary{
			ID:           p.ID,
			Title:        p.Title,
			Difficulty:   p.Difficulty,
			Status:       st,
			AttemptCount: countByProblem[p.ID],
			LeetCodeSlug: p.LeetCodeSlug,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProblem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, p := range fixtureProblems {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeErr(w, http.StatusNotFound, "problem_not_found", "no such problem")
}

// handleAnalysis enforces the reveal gate: no analysis until this problem
// has a reported attempt. The verdict is a scripted lookup on the
// committed pattern, not a calibration computation.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	analysis, ok := fixtureAnalyses[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "problem_not_found", "no such problem")
		return
	}

	s.mu.Lock()
	var reported *api.Attempt
	for _, att := range s.attempts {
		if att.ProblemID != id {
			continue
		}
		if att.Status == "reported" || att.Status == "completed" {
			reported = att
		}
	}
	s.mu.Unlock()

	if reported == nil {
		writeErr(w, http.StatusForbidden, "analysis_locked", "report an outcome before viewing the analysis")
		return
	}

	match := "miss"
	for _, p := range analysis.Patterns {
		if p.ID != reported.CommittedPatternID {
			continue
		}
		if p.Primary {
			match = "exact"
		} else {
			match = "companion"
		}
	}
	note := map[string]string{
		"exact":     "Committed pattern matches the primary pattern.",
		"companion": "Committed pattern is a workable companion to the primary pattern.",
		"miss":      "Committed pattern does not appear in the analysis.",
	}[match]
	delta := map[string]float64{"exact": -0.2, "companion": 0.4, "miss": 1.1}[match]

	analysis.Verdict = &api.Verdict{
		AttemptID:        reported.ID,
		PatternMatch:     match,
		Confidence:       reported.Confidence,
		Outcome:          reported.Outcome,
		CalibrationDelta: delta,
		Note:             note,
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Patterns []api.PatternInfo `json:"patterns"`
	}{Patterns: fixturePatterns})
}

func (s *Server) handlePatternStats(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if stats, ok := fixturePatternStats[id]; ok {
		writeJSON(w, http.StatusOK, stats)
		return
	}
	for _, p := range fixturePatterns {
		if p.ID == id {
			writeJSON(w, http.StatusOK, api.PatternStats{PatternID: p.ID, Name: p.Name})
			return
		}
	}
	writeErr(w, http.StatusNotFound, "pattern_not_found", "no such pattern")
}

func (s *Server) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	var in api.StartAttemptInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.ProblemID == "" {
		writeErr(w, http.StatusBadRequest, "invalid_request", "problem_id is required")
		return
	}
	known := false
	for _, p := range fixtureProblems {
		if p.ID == in.ProblemID {
			known = true
			break
		}
	}
	if !known {
		writeErr(w, http.StatusNotFound, "problem_not_found", "no such problem")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if in.ClientRef != "" {
		if existing, ok := s.byRef[in.ClientRef]; ok {
			writeJSON(w, http.StatusOK, s.attempts[existing])
			return
		}
	}
	att := &api.Attempt{
		ID:        s.nextAttemptID(),
		ProblemID: in.ProblemID,
		ClientRef: in.ClientRef,
		Status:    "active",
		StartedAt: time.Now().UTC(),
	}
	s.attempts[att.ID] = att
	if in.ClientRef != "" {
		s.byRef[in.ClientRef] = att.ID
	}
	writeJSON(w, http.StatusCreated, att)
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	problemID := r.URL.Query().Get("problem_id")
	s.mu.Lock()
	out := struct {
		Attempts []api.Attempt `json:"attempts"`
	}{Attempts: []api.Attempt{}}
	for _, att := range s.attempts {
		if problemID != "" && att.ProblemID != problemID {
			continue
		}
		out.Attempts = append(out.Attempts, *att)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePatchAttempt(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch struct {
		Status             *string `json:"status"`
		AbandonedPhase     *string `json:"abandoned_phase"`
		CommittedPatternID *string `json:"committed_pattern_id"`
		Approach           *string `json:"approach"`
		Confidence         *int    `json:"confidence"`
		TimerExpired       *bool   `json:"timer_expired"`
		Outcome            *string `json:"outcome"`
		MinutesSpent       *int    `json:"minutes_spent"`
		UsedHelp           *bool   `json:"used_help"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request", "malformed patch body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	att, ok := s.attempts[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "attempt_not_found", "no such attempt")
		return
	}

	switch {
	case patch.Status != nil && *patch.Status == "abandoned":
		att.Status = "abandoned"
		now := time.Now().UTC()
		att.CompletedAt = &now
		att.Outcome = "abandoned"
	case patch.CommittedPatternID != nil:
		att.CommittedPatternID = *patch.CommittedPatternID
		if patch.Approach != nil {
			att.Approach = *patch.Approach
		}
		if patch.Confidence != nil {
			att.Confidence = *patch.Confidence
		}
		if patch.TimerExpired != nil {
			att.TimerExpired = *patch.TimerExpired
		}
		att.Status = "committed"
	case patch.Outcome != nil:
		if att.CommittedPatternID == "" {
			writeErr(w, http.StatusConflict, "commitment_required", "report requires a prior commitment")
			return
		}
		att.Outcome = *patch.Outcome
		if patch.MinutesSpent != nil {
			att.MinutesSpent = *patch.MinutesSpent
		}
		if patch.UsedHelp != nil {
			att.UsedHelp = *patch.UsedHelp
		}
		att.Status = "reported"
	default:
		writeErr(w, http.StatusBadRequest, "invalid_request", "patch carries no recognized fields")
		return
	}
	writeJSON(w, http.StatusOK, att)
}

func (s *Server) handleGenerateReflection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	att, ok := s.attempts[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "attempt_not_found", "no such attempt")
		return
	}
	if att.Status != "reported" && att.Status != "completed" {
		writeErr(w, http.StatusConflict, "report_required", "reflection prompts come after the report")
		return
	}
	ref := &api.Reflection{
		AttemptID: id,
		Prompts:   append([]string(nil), fixtureReflectionPrompts...),
		UpdatedAt: time.Now().UTC(),
	}
	s.reflected[id] = ref
	writeJSON(w, http.StatusOK, ref)
}

func (s *Server) handleSaveReflection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request", "malformed reflection body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	att, ok := s.attempts[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "attempt_not_found", "no such attempt")
		return
	}
	ref, ok := s.reflected[id]
	if !ok {
		ref = &api.Reflection{AttemptID: id}
		s.reflected[id] = ref
	}
	ref.Text = in.Text
	ref.UpdatedAt = time.Now().UTC()
	att.Status = "completed"
	now := time.Now().UTC()
	att.CompletedAt = &now
	writeJSON(w, http.StatusOK, ref)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tierProfile(s.scenario.Tier))
}

func (s *Server) handleBlindSpots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fixtureBlindSpots)
}

func (s *Server) handleLeetCode(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	if content, ok := fixtureLeetCode[slug]; ok {
		writeJSON(w, http.StatusOK, content)
		return
	}
	writeErr(w, http.StatusNotFound, "content_not_found", "no cached content for that slug")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
