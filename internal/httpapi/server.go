// Package httpapi wires ssocore.Validate and its collaborators into a
// go-chi router: a health check, an SP-initiated login redirect, the
// assertion consumer service endpoint, a JWKS endpoint for the session
// tokens this server mints, and an optional live trace WebSocket per
// validation run.
package httpapi

import (
	"encoding/json"
	"encoding/xml"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/saml2validator/ssoval/internal/crypto"
	"github.com/saml2validator/ssoval/internal/saml"
	"github.com/saml2validator/ssoval/internal/session"
	"github.com/saml2validator/ssoval/internal/ssocore"
	"github.com/saml2validator/ssoval/internal/trace"
)

// Options collects the collaborators the HTTP front end needs.
type Options struct {
	CORSOrigins []string
	Validation  *ssocore.ValidationConfig
	KeySet      *crypto.KeySet
	Issuer      *session.Issuer

	// SentRecorder and IdPSSOURL enable the SP-initiated /saml/login
	// endpoint; leave either unset to disable it.
	SentRecorder ssocore.SentMessageRecorder
	IdPSSOURL    string

	// TraceHub may be nil to disable the /ws/trace/{id} endpoint.
	TraceHub *trace.Hub
}

// Server is the assertion consumer service's HTTP front end.
type Server struct {
	opts   Options
	router chi.Router
}

// New builds a Server from opts.
func New(opts Options) *Server {
	s := &Server{opts: opts}
	s.setupRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(Recovery)
	r.Use(RequestLogger)
	r.Use(SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	rateLimiter := NewRateLimiter(100, time.Minute)
	r.Use(rateLimiter.Limit)

	r.Get("/health", s.handleHealth)

	r.Route("/saml", func(r chi.Router) {
		r.Post("/acs", s.handleACS)
		if s.opts.SentRecorder != nil && s.opts.IdPSSOURL != "" {
			r.Get("/login", s.handleLogin)
		}
	})

	r.Get("/.well-known/jwks.json", s.handleJWKS)

	if s.opts.TraceHub != nil {
		r.Get("/ws/trace/{runID}", s.handleTraceWS)
	}

	s.router = r
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// ACSResponse is returned on a successful assertion consumer service POST.
type ACSResponse struct {
	SessionToken string               `json:"session_token"`
	Subject      string               `json:"subject"`
	IssuerID     string               `json:"issuer_entity_id"`
	Warnings     []string             `json:"warnings,omitempty"`
	Trace        []ssocore.TraceEvent `json:"trace,omitempty"`
}

// handleLogin starts SP-initiated login: it issues a fresh AuthnRequest,
// records it for later InResponseTo binding, and redirects the browser to
// the IdP's SSO endpoint via the HTTP-Redirect binding.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req := saml.NewAuthnRequest(s.opts.Validation.SelfEntityID, s.opts.IdPSSOURL, s.opts.Validation.Endpoint.Location)
	if err := s.opts.SentRecorder.PutAuthnRequest(r.Context(), req); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record authentication request: "+err.Error())
		return
	}

	xmlData, err := saml.Marshal(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to serialize authentication request: "+err.Error())
		return
	}

	relayState := r.URL.Query().Get("RelayState")
	redirectURL, err := saml.NewRedirectBinding().RedirectURL(s.opts.IdPSSOURL, xmlData, relayState)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build redirect: "+err.Error())
		return
	}

	log.Printf("saml login: issued AuthnRequest %s", req.ID)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (s *Server) handleACS(w http.ResponseWriter, r *http.Request) {
	rawXML, _, _, err := saml.ParseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode SAML response: "+err.Error())
		return
	}

	var resp saml.Response
	if err := xml.Unmarshal(rawXML, &resp); err != nil {
		writeError(w, http.StatusBadRequest, "malformed SAMLResponse XML: "+err.Error())
		return
	}

	var run *trace.Run
	if s.opts.TraceHub != nil {
		runID := resp.ID
		if runID == "" {
			runID = resp.InResponseTo
		}
		run = s.opts.TraceHub.StartRun(runID)
	}

	cred, state, verr := ssocore.Validate(r.Context(), &resp, rawXML, s.opts.Validation)
	if run != nil {
		for _, evt := range state.Trace {
			run.Append(evt)
		}
		run.Finish()
	}

	if verr != nil {
		log.Printf("saml acs: rejected response %s: %v", resp.ID, verr)
		writeError(w, http.StatusForbidden, verr.Error())
		return
	}

	token, err := s.opts.Issuer.Issue(cred)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mint session token: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ACSResponse{
		SessionToken: token,
		Subject:      cred.NameID.Value,
		IssuerID:     cred.IssuerEntityID,
		Warnings:     state.Warnings,
		Trace:        state.Trace,
	})
}

func (s *Server) handleJWKS(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.KeySet.PublicJWKS())
}

func (s *Server) handleTraceWS(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	s.opts.TraceHub.ServeWebSocket(w, r, runID)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
