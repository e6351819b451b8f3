package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/lifecycle"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/types"
)

// entity describes how one kind of message container is addressed over
// HTTP.
type entity struct {
	kind    database.Kind
	path    string
	idParam string
	label   string
}

var (
	conversationEntity = entity{
		kind:    database.KindConversation,
		path:    "conversations",
		idParam: "conversationID",
		label:   "Conversation",
	}
	groupEntity = entity{
		kind:    database.KindGroup,
		path:    "groups",
		idParam: "groupID",
		label:   "Group",
	}
)

type CreateConversationRequest struct {
	Companion string `mapstructure:"companion"`
}

type CreateGroupRequest struct {
	Name string `mapstructure:"name"`
}

type AppendMessageRequest struct {
	ConversationID string `mapstructure:"conversationID"`
	GroupID        string `mapstructure:"groupID"`
	Message        string `mapstructure:"message"`
}

func (req AppendMessageRequest) id(kind database.Kind) string {
	if kind == database.KindGroup {
		return req.GroupID
	}
	return req.ConversationID
}

func (s *TasksApp) listConversations(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	convs, err := s.db.ListConversations(r.Context(), id.Credentials.UID)
	if err != nil {
		s.internalError(w, fmt.Errorf("list conversations: %w", err))
		return
	}

	s.writeJson(w, http.StatusOK, types.NewListResponse(types.ConversationItems(id.Credentials.UID, convs)))
}

func (s *TasksApp) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.db.ListGroups(r.Context())
	if err != nil {
		s.internalError(w, fmt.Errorf("list groups: %w", err))
		return
	}

	s.writeJson(w, http.StatusOK, types.NewListResponse(types.GroupItems(groups)))
}

func (s *TasksApp) createConversation(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if err := s.decodeForm(w, r, &req); err != nil {
		s.writeError(w, NewBodyError(err))
		return
	}

	if req.Companion == "" {
		s.writeError(w, NewInvalidFormDataError(`Parameter "companion" should be defined.`))
		return
	}

	caller, _ := IdentityFromContext(r.Context())
	id, err := s.manager.CreateConversation(r.Context(), caller.Credentials.UID, req.Companion)
	if err != nil {
		if errors.Is(err, lifecycle.ErrDuplicateConversation) {
			s.writeError(w, NewDuplicationNotAllowedError())
			return
		}
		s.internalError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, types.ConversationCreated{ConversationID: id})
}

func (s *TasksApp) createGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := s.decodeForm(w, r, &req); err != nil {
		s.writeError(w, NewBodyError(err))
		return
	}

	if req.Name == "" {
		s.writeError(w, NewInvalidFormDataError(`Parameter "name" should define conversation name.`))
		return
	}

	caller, _ := IdentityFromContext(r.Context())
	id, err := s.manager.CreateGroup(r.Context(), caller.Credentials.UID, req.Name)
	if err != nil {
		s.internalError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, types.GroupCreated{GroupID: id})
}

func (s *TasksApp) deleteEntity(e entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get(e.idParam)
		if id == "" {
			s.writeError(w, missingQueryParam(e))
			return
		}

		caller, _ := IdentityFromContext(r.Context())

		var err error
		if e.kind == database.KindGroup {
			err = s.manager.DeleteGroup(r.Context(), caller.Credentials.UID, id)
		} else {
			err = s.manager.DeleteConversation(r.Context(), caller.Credentials.UID, id)
		}
		if err != nil {
			if errors.Is(err, lifecycle.ErrInvalidID) {
				s.writeError(w, NewInvalidIDError(fmt.Sprintf(`%s with id "%s" does not exist or was removed before.`, e.label, id)))
				return
			}
			s.internalError(w, err)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func (s *TasksApp) readMessages(e entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		id := query.Get(e.idParam)
		if id == "" {
			s.writeError(w, missingQueryParam(e))
			return
		}

		msgs, err := s.manager.Read(r.Context(), e.kind, id, query.Get("since"))
		if err != nil {
			s.writeError(w, s.entityError(e, id, err))
			return
		}

		s.writeJson(w, http.StatusOK, types.NewListResponse(types.MessageItems(msgs)))
	}
}

func (s *TasksApp) appendMessage(e entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppendMessageRequest
		if err := s.decodeForm(w, r, &req); err != nil {
			s.writeError(w, NewBodyError(err))
			return
		}

		id := req.id(e.kind)
		if id == "" || req.Message == "" {
			s.writeError(w, NewInvalidFormDataError(fmt.Sprintf(`Post data should contain valid "%s", "message" parameters.`, e.idParam)))
			return
		}

		caller, _ := IdentityFromContext(r.Context())
		if err := s.manager.Append(r.Context(), e.kind, id, caller.Credentials.UID, req.Message); err != nil {
			s.writeError(w, s.entityError(e, id, err))
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}

func missingQueryParam(e entity) *ApiError {
	return NewInvalidFormDataError(fmt.Sprintf(`"%s" parameter should be in query list.`, e.idParam))
}

// entityError maps a read or append failure to its response. Anything
// unclassified is logged and surfaces as a 500.
func (s *TasksApp) entityError(e entity, id string, err error) *ApiError {
	switch {
	case errors.Is(err, lifecycle.ErrInvalidID):
		return NewInvalidIDError(fmt.Sprintf(`%s with id "%s" does not exist or was deleted before.`, e.label, id))
	case errors.Is(err, lifecycle.ErrRoomNotReady):
		return NewRoomReadyError(fmt.Sprintf(`%s with id "%s" seems not ready yet`, e.label, id))
	case errors.Is(err, database.ErrValidation):
		return NewInvalidFormDataError(fmt.Sprintf(`Validation of "%s" parameter failed`, e.idParam))
	default:
		s.log.WithError(err).WithField("kind", e.kind).Error("request failed")
		return NewInternalServerError(err)
	}
}
