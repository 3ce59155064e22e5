package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/redsettings-go/internal/device"
	"github.com/MJE43/redsettings-go/internal/service"
	"github.com/MJE43/redsettings-go/internal/store"
)

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GamesResponse{
		Games:         s.svc.Registry().List(),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	schema, err := s.svc.Registry().Schema(chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var caps device.StaticProvider
	if !s.decode(w, r, &caps) {
		return
	}
	prof := s.svc.RegisterDevice(r.Context(), &caps)
	s.writeJSON(w, http.StatusOK, DeviceResponse{Device: prof, EngineVersion: EngineVersion})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	prof, err := s.svc.Device(chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DeviceResponse{Device: prof, EngineVersion: EngineVersion})
}

func (s *Server) handleForgetDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ForgetDevice(chi.URLParam(r, "id")); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req service.GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Game) == "" {
		s.errorHandler.HandleValidationError(w, r, "game", "game is required")
		return
	}
	res, err := s.svc.Generate(r.Context(), req)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Game == "" {
		s.errorHandler.HandleValidationError(w, r, "game", "game is required")
		return
	}
	report, err := s.svc.Validate(req.Game, req.Values)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleGraphics(w http.ResponseWriter, r *http.Request) {
	var req service.GraphicsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Game == "" {
		s.errorHandler.HandleValidationError(w, r, "game", "game is required")
		return
	}
	settings, err := s.svc.Graphics(r.Context(), req)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleResetCache(w http.ResponseWriter, r *http.Request) {
	s.svc.ResetCache(r.Context(), chi.URLParam(r, "deviceId"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req store.SavedProfile
	if !s.decode(w, r, &req) {
		return
	}
	if req.Game == "" {
		s.errorHandler.HandleValidationError(w, r, "game", "game is required")
		return
	}
	if len(req.Values) == 0 {
		s.errorHandler.HandleValidationError(w, r, "values", "values are required")
		return
	}
	saved, err := s.svc.SaveProfile(r.Context(), req)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	q := store.ProfilesQuery{Game: r.URL.Query().Get("game")}
	var err error
	if q.Page, err = intParam(r, "page"); err != nil {
		s.errorHandler.HandleValidationError(w, r, "page", "page must be an integer")
		return
	}
	if q.PerPage, err = intParam(r, "per_page"); err != nil {
		s.errorHandler.HandleValidationError(w, r, "per_page", "per_page must be an integer")
		return
	}
	list, err := s.svc.ListProfiles(r.Context(), q)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleShareProfile(w http.ResponseWriter, r *http.Request) {
	text, err := s.svc.Share(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteProfile(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// intParam reads an optional integer query parameter; absent reads as 0.
func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
