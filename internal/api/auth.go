package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rolling-scopes/rsschool-tasks-backend/internal/auth"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/lifecycle"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/types"
	"github.com/sirupsen/logrus"
)

type RegisterRequest struct {
	Email    string `mapstructure:"email"`
	Name     string `mapstructure:"name"`
	Password string `mapstructure:"password"`
}

type LoginRequest struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

func (s *TasksApp) registration(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := s.decodeForm(w, r, &req); err != nil {
		s.writeError(w, NewBodyError(err))
		return
	}

	if req.Email == "" || req.Name == "" || req.Password == "" {
		s.writeError(w, NewInvalidFormDataError(`Parameters "email", "name" and "password" are required`))
		return
	}

	uid, err := s.generateID()
	if err != nil {
		s.internalError(w, fmt.Errorf("generate uid: %w", err))
		return
	}

	err = s.db.CreateUser(r.Context(), database.User{
		Email:        req.Email,
		UID:          uid,
		Name:         req.Name,
		PasswordHash: auth.HashPassword(req.Password),
		CreatedAt:    lifecycle.Timestamp(s.now()),
		IsVerified:   false,
	})
	if err != nil {
		if errors.Is(err, database.ErrConditionFailed) {
			s.writeError(w, NewPrimaryDuplicationError(req.Email))
			return
		}
		s.internalError(w, fmt.Errorf("create user: %w", err))
		return
	}

	s.log.WithField("uid", uid).Info("user registered")
	w.WriteHeader(http.StatusCreated)
}

func (s *TasksApp) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := s.decodeForm(w, r, &req); err != nil {
		s.writeError(w, NewBodyError(err))
		return
	}

	if req.Email == "" || req.Password == "" {
		s.writeError(w, NewInvalidFormDataError(`Parameters "email" and "password" are required.`))
		return
	}

	user, err := s.db.GetUser(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.writeError(w, NewNotFoundError())
			return
		}
		s.internalError(w, fmt.Errorf("get user: %w", err))
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.log.WithField("uid", user.UID).Debug("password mismatch")
		s.writeError(w, NewNotFoundError())
		return
	}

	token := s.generateToken()
	if err := s.db.SetToken(r.Context(), user.Email, token); err != nil {
		s.internalError(w, fmt.Errorf("set token: %w", err))
		return
	}

	s.log.WithField("uid", user.UID).Info("user logged in")
	s.writeJson(w, http.StatusOK, types.LoginResponse{Token: token, UID: user.UID})
}

func (s *TasksApp) logout(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	err := s.db.UpdateToken(r.Context(), database.UpdateTokenParams{
		Email:        id.Credentials.Email,
		UID:          id.Credentials.UID,
		CurrentToken: id.Credentials.Token,
		NewToken:     "",
	})
	if err != nil {
		if errors.Is(err, database.ErrConditionFailed) || errors.Is(err, database.ErrNotFound) {
			s.writeError(w, NewExpiredSessionError())
			return
		}
		s.internalError(w, fmt.Errorf("clear token: %w", err))
		return
	}

	s.log.WithFields(logrus.Fields{"uid": id.Credentials.UID}).Info("user logged out")
	w.WriteHeader(http.StatusOK)
}
