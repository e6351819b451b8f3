package database

import (
	"fmt"
	"regexp"
)

// Kind names the two entity types that own a companion message table.
type Kind string

const (
	KindConversation Kind = "conversation"
	KindGroup        Kind = "group"
)

// TableName is the companion message table of entity id.
func (k Kind) TableName(id string) string {
	return string(k) + "-" + id
}

// Table names follow DynamoDB naming rules so every backend rejects the same
// ids.
var tableNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,255}$`)

func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("table name %q: %w", name, ErrValidation)
	}
	return nil
}
