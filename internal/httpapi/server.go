package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
	apimw "github.com/hamed0406/pingwatch/internal/httpapi/middleware"
	"github.com/hamed0406/pingwatch/internal/mail"
	"github.com/hamed0406/pingwatch/internal/monitor"
	"github.com/hamed0406/pingwatch/internal/repo"
)

// Monitor is the configuration surface of the running service.
type Monitor interface {
	Targets() []domain.Target
	AddTarget(ctx context.Context, name, ip string) (domain.Target, error)
	RemoveTarget(ctx context.Context, id domain.TargetID) error
	ReplaceTargets(ctx context.Context, targets []domain.Target) ([]domain.Target, error)
	Log(id *domain.TargetID) []domain.LogEntry
}

type Server struct {
	Logger  *zap.Logger
	Monitor Monitor
	SMTP    repo.SMTPStore
	Mailer  mail.Sender
	Stream  http.Handler // websocket result stream, optional
	Metrics http.Handler // optional

	TestEmailRPM   int
	TestEmailBurst int
}

func NewServer(l *zap.Logger, m Monitor, smtp repo.SMTPStore, sender mail.Sender) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Monitor: m, SMTP: smtp, Mailer: sender, TestEmailRPM: 6, TestEmailBurst: 2}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	if s.Stream != nil {
		r.Method(http.MethodGet, "/ws", s.Stream)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/targets", s.handleListTargets)
		r.Post("/targets", s.handleAddTarget)
		r.Put("/targets", s.handleReplaceTargets)
		r.Delete("/targets/{id}", s.handleRemoveTarget)

		r.Get("/log", s.handleLog)

		r.Get("/smtp", s.handleGetSMTP)
		r.Put("/smtp", s.handleSaveSMTP)
		r.With(apimw.RateLimit(s.TestEmailRPM, s.TestEmailBurst)).
			Post("/smtp/test", s.handleTestEmail)
	})
	return r
}

// ---- targets ----

type addPayload struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Monitor.Targets())
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	var p addPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if !isValidAddress(p.IP) {
		writeError(w, http.StatusBadRequest, "invalid ip or hostname")
		return
	}
	t, err := s.Monitor.AddTarget(r.Context(), p.Name, p.IP)
	if errors.Is(err, monitor.ErrInvalidTarget) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.Logger.Error("add_target_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not add")
		return
	}
	s.Logger.Info("added_target",
		zap.String("target_id", string(t.ID)),
		zap.String("name", t.Name),
		zap.String("ip", t.IP),
	)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleReplaceTargets(w http.ResponseWriter, r *http.Request) {
	var in []domain.Target
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	for _, t := range in {
		if !isValidAddress(t.IP) {
			writeError(w, http.StatusBadRequest, "invalid ip or hostname: "+t.IP)
			return
		}
	}
	out, err := s.Monitor.ReplaceTargets(r.Context(), in)
	if errors.Is(err, monitor.ErrInvalidTarget) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.Logger.Error("replace_targets_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not replace")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRemoveTarget(w http.ResponseWriter, r *http.Request) {
	id := domain.TargetID(chi.URLParam(r, "id"))
	err := s.Monitor.RemoveTarget(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no such target")
		return
	}
	if err != nil {
		s.Logger.Error("remove_target_failed", zap.String("target_id", string(id)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not remove")
		return
	}
	s.Logger.Info("removed_target", zap.String("target_id", string(id)))
	w.WriteHeader(http.StatusNoContent)
}

// ---- event log ----

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	var filter *domain.TargetID
	if v := r.URL.Query().Get("target"); v != "" {
		id := domain.TargetID(v)
		filter = &id
	}
	entries := s.Monitor.Log(filter)
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ---- smtp ----

type smtpView struct {
	domain.SMTPConfig
	Pass    string `json:"pass,omitempty"`
	HasPass bool   `json:"has_pass"`
}

func (s *Server) handleGetSMTP(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.SMTP.LoadSMTP(r.Context())
	if err != nil {
		s.Logger.Warn("smtp_load_failed", zap.Error(err))
	}
	if cfg == nil {
		cfg = &domain.SMTPConfig{}
	}
	writeJSON(w, http.StatusOK, smtpView{SMTPConfig: *cfg, HasPass: cfg.Pass != ""})
}

// handleSaveSMTP keeps the stored password when the payload leaves it empty.
func (s *Server) handleSaveSMTP(w http.ResponseWriter, r *http.Request) {
	var in domain.SMTPConfig
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if in.Pass == "" {
		if cur, err := s.SMTP.LoadSMTP(r.Context()); err == nil && cur != nil {
			in.Pass = cur.Pass
		}
	}
	if err := s.SMTP.SaveSMTP(r.Context(), in); err != nil {
		s.Logger.Error("smtp_save_failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, mail.Result{Error: "could not save smtp settings"})
		return
	}
	s.Logger.Info("smtp_saved", zap.String("host", in.Host), zap.Int("port", in.Port))
	writeJSON(w, http.StatusOK, mail.Result{Success: true})
}

// handleTestEmail sends a fixed message with the posted config, or with the
// stored one when the body is empty.
func (s *Server) handleTestEmail(w http.ResponseWriter, r *http.Request) {
	var cfg domain.SMTPConfig
	err := json.NewDecoder(r.Body).Decode(&cfg)
	switch {
	case errors.Is(err, io.EOF):
		stored, lerr := s.SMTP.LoadSMTP(r.Context())
		if lerr != nil || stored == nil {
			writeJSON(w, http.StatusOK, mail.Result{Error: mail.ErrNotConfigured.Error()})
			return
		}
		cfg = *stored
	case err != nil:
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	subject, body := mail.TestMessage()
	res := s.Mailer.Send(r.Context(), cfg, subject, body)
	s.Logger.Info("smtp_test_sent", zap.Bool("success", res.Success), zap.String("error", res.Error))
	writeJSON(w, http.StatusOK, res)
}

// ---- helpers ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// isValidAddress accepts anything ping can take as a host argument: no
// whitespace, no leading dash.
func isValidAddress(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n/\\;&|`$")
}
