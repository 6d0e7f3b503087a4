package server

import (
	"net/http"
	"strconv"

	"github.com/kilupskalvis/folio/internal/catalog"
	"github.com/kilupskalvis/folio/internal/models"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.ProjectFilter{Category: q.Get("category"), Query: q.Get("q")}
	var err error
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "offset must be a number")
		return
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "limit must be a number")
		return
	}

	page, err := s.ws.Catalog.Projects(filter)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.ws.Catalog.Project(r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleViewProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.ws.Catalog.ViewProject(r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ws.Catalog.Categories()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := s.ws.Catalog.Achievements(r.URL.Query().Get("category"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	list, err := s.ws.Catalog.FAQs()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddProject(w http.ResponseWriter, r *http.Request) {
	var p models.Project
	if err := readJSON(r, s.cfg.MaxRequestBody, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	added, err := s.ws.Catalog.AddProject(p)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Catalog.DeleteProject(r.PathValue("id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddAchievement(w http.ResponseWriter, r *http.Request) {
	var a models.Achievement
	if err := readJSON(r, s.cfg.MaxRequestBody, &a); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	added, err := s.ws.Catalog.AddAchievement(a)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleDeleteAchievement(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Catalog.DeleteAchievement(r.PathValue("id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddFAQ(w http.ResponseWriter, r *http.Request) {
	var f models.FAQ
	if err := readJSON(r, s.cfg.MaxRequestBody, &f); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	added, err := s.ws.Catalog.AddFAQ(f.Question, f.Answer)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Catalog.DeleteFAQ(r.PathValue("id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var m models.Message
	if err := readJSON(r, s.cfg.MaxRequestBody, &m); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	saved, err := s.ws.Catalog.SubmitMessage(m)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": saved.ID})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.ws.Catalog.Messages()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Catalog.MarkRead(r.PathValue("id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.ws.Catalog.Analytics()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := s.ws.Catalog.Preferences()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	var p models.Preferences
	if err := readJSON(r, s.cfg.MaxRequestBody, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := s.ws.Catalog.SetPreferences(p); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
