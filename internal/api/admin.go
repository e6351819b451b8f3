package api

import (
	"net/http"

	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
)

func (s *TasksApp) clearUsers(w http.ResponseWriter, r *http.Request) {
	results, err := s.manager.ClearUsers(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, results)
}

func (s *TasksApp) clearEntities(e entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := s.manager.ClearEntities(r.Context(), e.kind)
		if err != nil {
			s.internalError(w, err)
			return
		}

		s.writeJson(w, http.StatusOK, results)
	}
}

func (s *TasksApp) countConversations(w http.ResponseWriter, r *http.Request) {
	inv, err := s.manager.Inventory(r.Context(), database.KindConversation)
	if err != nil {
		s.internalError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, inv)
}
