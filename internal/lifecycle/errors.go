package lifecycle

import "errors"

var (
	ErrDuplicateConversation = errors.New("conversation already exists")
	ErrInvalidID             = errors.New("entity does not exist or was deleted")
	ErrRoomNotReady          = errors.New("entity is not ready yet")
)
