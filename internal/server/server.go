// Package server wires the challenge engine, its HTTP handlers and the live
// event hub into one router.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dongibuyeo/dongibuyeo/internal/bank"
	"github.com/dongibuyeo/dongibuyeo/internal/challenge"
	"github.com/dongibuyeo/dongibuyeo/internal/config"
	"github.com/dongibuyeo/dongibuyeo/internal/handler"
	"github.com/dongibuyeo/dongibuyeo/internal/metrics"
	"github.com/dongibuyeo/dongibuyeo/internal/middleware"
	ws "github.com/dongibuyeo/dongibuyeo/internal/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	db       *sql.DB
	hub      *ws.Hub
	registry *prometheus.Registry

	scoring *challenge.Scoring
	refunds *challenge.Refunds

	challengeH  *handler.ChallengeHandler
	membershipH *handler.MembershipHandler
	scoreH      *handler.ScoreHandler
	memberH     *handler.MemberHandler
	quizH       *handler.QuizHandler
	refundH     *handler.RefundHandler

	metrics        *metrics.Metrics
	rateLimiter    *middleware.RateLimiter
	adminToken     string
	originPatterns []string
	logger         *slog.Logger
}

// New builds every engine component over db and ledger. Collectors are
// registered with reg, which also backs /metrics.
func New(db *sql.DB, ledger bank.Ledger, cfg config.Config, now challenge.Clock, reg *prometheus.Registry, logger *slog.Logger) *Server {
	m := metrics.New(reg)
	hub := ws.NewHub(logger)

	prov := challenge.Provisioning{
		Savings:       cfg.Savings,
		QuizDeposit:   cfg.Quiz.Deposit,
		QuizHeadCount: cfg.Quiz.HeadCount,
	}
	svc := challenge.NewService(db, ledger, now, prov, logger)
	refunds := challenge.NewRefunds(db, ledger, m, logger)
	membership := challenge.NewMembership(db, refunds, now, m, logger)
	scoring := challenge.NewScoring(db, ledger, now, m, logger)
	ranking := challenge.NewRanking(db, cfg.Rewards.DivisionRatio)
	quizzes := challenge.NewQuizzes(db, now, cfg.Quiz.Score, m, logger)

	httpLogger := logger.With("component", "http")

	return &Server{
		db:             db,
		hub:            hub,
		registry:       reg,
		scoring:        scoring,
		refunds:        refunds,
		challengeH:     handler.NewChallengeHandler(svc, hub, httpLogger),
		membershipH:    handler.NewMembershipHandler(membership, hub, httpLogger),
		scoreH:         handler.NewScoreHandler(scoring, ranking, hub, httpLogger),
		memberH:        handler.NewMemberHandler(svc, httpLogger),
		quizH:          handler.NewQuizHandler(quizzes, now, hub, httpLogger),
		refundH:        handler.NewRefundHandler(refunds, httpLogger),
		metrics:        m,
		rateLimiter:    middleware.NewRateLimiter(cfg.HTTP.RequestsPerSec, cfg.HTTP.Burst),
		adminToken:     cfg.AdminToken,
		originPatterns: cfg.AllowedOrigins,
		logger:         logger,
	}
}

// Hub returns the live event hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Scoring returns the scoring engine for the fever sweep scheduler.
func (s *Server) Scoring() *challenge.Scoring {
	return s.scoring
}

// Refunds returns the refund outbox for the retry worker.
func (s *Server) Refunds() *challenge.Refunds {
	return s.refunds
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.originPatterns))

	s.registerRoutes(mux)

	return middleware.RequestLogger(s.logger.With("component", "http"), s.metrics)(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status, code = "db unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// limited rate-limits a mutating route per client address.
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP)(h)
}

// admin guards an operator route with the admin token.
func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return middleware.RequireToken(s.adminToken)(h)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Challenges
	mux.HandleFunc("GET /api/challenges", s.challengeH.List)
	mux.Handle("POST /api/challenges", s.admin(s.challengeH.Create))
	mux.HandleFunc("GET /api/challenges/{id}", s.challengeH.Get)
	mux.Handle("PATCH /api/challenges/{id}", s.admin(s.challengeH.Update))
	mux.Handle("DELETE /api/challenges/{id}", s.admin(s.challengeH.Delete))

	// Membership
	mux.HandleFunc("GET /api/challenges/{id}/members", s.challengeH.Participants)
	mux.Handle("POST /api/challenges/{id}/members", s.limited(s.membershipH.Join))
	mux.HandleFunc("GET /api/challenges/{id}/members/{member_id}", s.challengeH.MemberChallenge)
	mux.Handle("DELETE /api/challenges/{id}/members/{member_id}", s.limited(s.membershipH.Cancel))
	mux.Handle("POST /api/challenges/{id}/members/{member_id}/withdraw", s.limited(s.membershipH.Withdraw))

	// Scores and ranking
	mux.HandleFunc("GET /api/challenges/{id}/members/{member_id}/scores", s.scoreH.Breakdown)
	mux.HandleFunc("GET /api/challenges/{id}/members/{member_id}/rank", s.scoreH.MemberRank)
	mux.HandleFunc("GET /api/challenges/{id}/rank", s.scoreH.ChallengeRank)
	mux.HandleFunc("GET /api/challenges/{id}/reward", s.scoreH.EstimatedReward)
	mux.Handle("POST /api/member-challenges/{id}/scores/{date}", s.admin(s.scoreH.GetOrCreateDaily))
	mux.Handle("POST /api/member-challenges/{id}/scores/{date}/details", s.admin(s.scoreH.UpdateDaily))

	// Members
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.Handle("POST /api/members", s.limited(s.memberH.Create))
	mux.HandleFunc("GET /api/members/{member_id}", s.memberH.Get)
	mux.Handle("PUT /api/members/{member_id}/challenge-account", s.limited(s.memberH.AssignAccount))
	mux.HandleFunc("GET /api/members/{member_id}/challenges", s.challengeH.ListByMember)
	mux.HandleFunc("GET /api/members/{member_id}/quiz-status", s.quizH.Status)
	mux.HandleFunc("GET /api/members/{member_id}/quiz-stats", s.quizH.MonthlyStats)

	// Quizzes
	mux.Handle("POST /api/quizzes", s.admin(s.quizH.Create))
	mux.HandleFunc("GET /api/quizzes/random", s.quizH.Random)
	mux.Handle("POST /api/quizzes/{id}/solve", s.limited(s.quizH.Solve))

	// Operator
	mux.Handle("POST /api/admin/sweeps/{type}", s.admin(s.scoreH.Sweep))
	mux.Handle("GET /api/admin/refunds", s.admin(s.refundH.Pending))
	mux.Handle("POST /api/admin/refunds/retry", s.admin(s.refundH.Retry))
}
