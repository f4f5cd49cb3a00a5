package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/assets"
	"github.com/woozymasta/mcstatus/internal/models"
	"github.com/woozymasta/mcstatus/internal/vars"
)

// maxHostLen is the longest DNS name accepted as hostname.
const maxHostLen = 253

// handleJava queries a Java edition server.
// Query params: ?hostname=mc.example.com&port=25565&version=763
func (s *Server) handleJava(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	host, port, ok := s.target(w, q)
	if !ok {
		return
	}

	version, err := parseUint(q.Get("version"), 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid version: "+err.Error())
		return
	}

	res, err := s.querier.QueryJava(r.Context(), host, port, uint32(version))
	if err != nil {
		s.recordFailure(models.Java, host, port, err)
		writeQueryError(w, r, err)
		return
	}

	s.enqueue(historyJob{Record: res.Record(host, port, now()), IP: res.Endpoint.Addr.Addr()})
	writeJSON(w, http.StatusOK, res)
}

// handleBedrock queries a Bedrock edition server.
// Query params: ?hostname=mc.example.com&port=19132
func (s *Server) handleBedrock(w http.ResponseWriter, r *http.Request) {
	host, port, ok := s.target(w, r.URL.Query())
	if !ok {
		return
	}

	res, err := s.querier.QueryBedrock(r.Context(), host, port)
	if err != nil {
		s.recordFailure(models.Bedrock, host, port, err)
		writeQueryError(w, r, err)
		return
	}

	s.enqueue(historyJob{Record: res.Record(host, port, now()), IP: res.Endpoint.Addr.Addr()})
	writeJSON(w, http.StatusOK, res)
}

// target validates the hostname and port parameters shared by both editions.
func (s *Server) target(w http.ResponseWriter, q url.Values) (string, uint16, bool) {
	host := q.Get("hostname")
	if host == "" {
		writeError(w, http.StatusBadRequest, "missing hostname")
		return "", 0, false
	}
	if len(host) > maxHostLen {
		writeError(w, http.StatusBadRequest, "hostname too long")
		return "", 0, false
	}

	port, err := parseUint(q.Get("port"), 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid port: "+err.Error())
		return "", 0, false
	}

	if s.isDenied(host) {
		log.Debug().Str("hostname", host).Msg("Denied hostname")
		writeError(w, http.StatusForbidden, "hostname is not allowed")
		return "", 0, false
	}

	return host, uint16(port), true
}

// handleVersion returns the build version.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, vars.Ver())
}

// handleIndex serves the landing page.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	content, err := assets.ReadFile("index.html")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "landing page missing")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(content)
}

// handleListServers returns a JSON list of all recorded servers.
// This endpoint is protected by AdminAuthMiddleware.
func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := s.storage.GetServers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch servers")
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if servers == nil {
		servers = []models.ServerRecord{}
	}

	writeJSON(w, http.StatusOK, servers)
}

// handleDeleteServer removes a specific server from the history.
// Query params: ?edition=java&hostname=mc.example.com&port=0
func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	edition := models.Edition(q.Get("edition"))
	hostname := models.NormalizeHost(q.Get("hostname"))

	if !edition.Valid() || hostname == "" {
		writeError(w, http.StatusBadRequest, "missing required params (edition, hostname)")
		return
	}

	port, err := parseUint(q.Get("port"), 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid port: "+err.Error())
		return
	}

	deleted, err := s.storage.DeleteServer(r.Context(), edition, hostname, int(port))
	if err != nil {
		log.Error().Err(err).
			Str("edition", string(edition)).
			Str("hostname", hostname).
			Uint64("port", port).
			Msg("Failed to delete server")

		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if !deleted {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}

	log.Info().
		Str("edition", string(edition)).
		Str("hostname", hostname).
		Uint64("port", port).
		Msg("Server deleted manually")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Server deleted"})
}

// parseUint parses an optional unsigned parameter; empty means zero.
func parseUint(s string, bits int) (uint64, error) {
	if s == "" {
		return 0, nil
	}

	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			return 0, fmt.Errorf("%q is not a %d-bit unsigned integer", s, bits)
		}
		return 0, err
	}

	return v, nil
}

// StatusFor maps a query error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDenied):
		return http.StatusForbidden
	case errors.Is(err, models.ErrResolution):
		return http.StatusNotFound
	case errors.Is(err, models.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)

	log.Debug().
		Err(err).
		Str("path", r.URL.Path).
		Str("request_id", RequestID(r.Context())).
		Int("status", status).
		Msg("Query failed")

	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
