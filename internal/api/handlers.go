package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mitchellh/mapstructure"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/form"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/types"
)

const maxBodyBytes = 1 << 20

type UpdateProfileRequest struct {
	Name string `mapstructure:"name"`
}

func (s *TasksApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("json encode")
	}
}

func (s *TasksApp) writeError(w http.ResponseWriter, errResp *ApiError) {
	s.writeJson(w, errResp.StatusCode, errResp)
}

func (s *TasksApp) internalError(w http.ResponseWriter, err error) {
	s.log.WithError(err).Error("request failed")
	s.writeError(w, NewInternalServerError(err))
}

// decodeForm reads the body in whatever encoding the client chose and
// copies the string fields into dst.
func (s *TasksApp) decodeForm(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", form.ErrInvalidBody, err)
	}

	fields, err := form.Decode(r.Header.Get("Content-Type"), body, isBase64Body(r.Context()))
	if err != nil {
		return err
	}

	if err := mapstructure.Decode(fields, dst); err != nil {
		return fmt.Errorf("%w: %v", form.ErrInvalidBody, err)
	}

	return nil
}

func (s *TasksApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.log.WithError(err).Error("health check failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func profileNotFound() *ApiError {
	return NewInvalidIDError("User was not found")
}

func (s *TasksApp) readProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	s.writeJson(w, http.StatusOK, types.ProfileItem(id.User))
}

func (s *TasksApp) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := s.decodeForm(w, r, &req); err != nil {
		s.writeError(w, NewBodyError(err))
		return
	}

	if req.Name == "" {
		s.writeError(w, NewInvalidFormDataError(`You have to pass "name" field.`))
		return
	}

	id, _ := IdentityFromContext(r.Context())
	err := s.db.UpdateName(r.Context(), database.UpdateNameParams{
		Email: id.Credentials.Email,
		UID:   id.Credentials.UID,
		Token: id.Credentials.Token,
		Name:  req.Name,
	})
	if err != nil {
		if errors.Is(err, database.ErrConditionFailed) || errors.Is(err, database.ErrNotFound) {
			s.writeError(w, NewInvalidIDError("User was not found. Check passed identificators."))
			return
		}
		s.internalError(w, fmt.Errorf("update name: %w", err))
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *TasksApp) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.db.ListUsers(r.Context())
	if err != nil {
		s.internalError(w, fmt.Errorf("list users: %w", err))
		return
	}

	s.writeJson(w, http.StatusOK, types.NewListResponse(types.UserItems(users)))
}
