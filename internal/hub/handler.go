package hub

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/v3/sockjs"
	"go.uber.org/zap"
)

const (
	closeMissingSession = 4001
	closeInvalidSession = 4002
)

// conn is the part of a SockJS session the feed uses.
type conn interface {
	Request() *http.Request
	Recv() (string, error)
	Send(string) error
	Close(status uint32, reason string) error
}

type Server struct {
	hub      *Hub
	sessions store.SessionStore
	origins  map[string]struct{}
	logger   *zap.Logger
}

func NewServer(h *Hub, sessions store.SessionStore, allowedOrigins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			origins[strings.ToLower(origin)] = struct{}{}
		}
	}
	return &Server{hub: h, sessions: sessions, origins: origins, logger: logger}
}

// Handler serves the SockJS endpoint under prefix.
func (s *Server) Handler(prefix string) http.Handler {
	opts := sockjs.DefaultOptions
	opts.CheckOrigin = s.originAllowed
	sockjsHandler := sockjs.NewHandler(prefix, opts, func(session sockjs.Session) {
		s.serve(session)
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.originAllowed(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		sockjsHandler.ServeHTTP(w, r)
	})
}

// originAllowed accepts requests without an Origin header and, when no
// origins are configured, every origin.
func (s *Server) originAllowed(r *http.Request) bool {
	if len(s.origins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	_, ok := s.origins[strings.ToLower(parsed.Scheme+"://"+parsed.Host)]
	return ok
}

func (s *Server) serve(session conn) {
	req := session.Request()
	sessionID := sessionIDFromRequest(req)
	if sessionID == "" {
		_ = session.Close(closeMissingSession, "missing session")
		return
	}
	ctx := context.Background()
	if req != nil {
		ctx = req.Context()
	}
	authSession, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		_ = session.Close(closeInvalidSession, "invalid session")
		return
	}

	client := &Client{ID: uuid.NewString(), Email: authSession.Email, Send: make(chan []byte, 16)}
	s.hub.Register(client)
	defer s.hub.Unregister(client)
	s.logger.Info("realtime client connected", zap.String("client_id", client.ID), zap.String("email", client.Email))

	go func() {
		for msg := range client.Send {
			_ = session.Send(string(msg))
		}
	}()

	for {
		msg, err := session.Recv()
		if err != nil {
			return
		}
		parsed, ok := ParseSubscribe([]byte(msg))
		if !ok {
			continue
		}
		if parsed.Action == "unsubscribe" {
			s.hub.UpdateSubscription(client, Subscription{})
			continue
		}
		s.hub.UpdateSubscription(client, Subscription{Service: parsed.Service, Status: parsed.Status})
	}
}

func sessionIDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get("session_id"))
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
