// Package types holds the JSON bodies the API returns. Store rows are
// rendered in DynamoDB attribute-value form, {"id": {"S": "..."}}, which is
// what existing clients parse.
package types

import "github.com/rolling-scopes/rsschool-tasks-backend/internal/database"

type Attr struct {
	S string `json:"S"`
}

type Item map[string]Attr

type ListResponse struct {
	Count        int    `json:"Count"`
	ScannedCount int    `json:"ScannedCount"`
	Items        []Item `json:"Items"`
}

func NewListResponse(items []Item) ListResponse {
	if items == nil {
		items = []Item{}
	}
	return ListResponse{Count: len(items), ScannedCount: len(items), Items: items}
}

type LoginResponse struct {
	Token string `json:"token"`
	UID   string `json:"uid"`
}

type ConversationCreated struct {
	ConversationID string `json:"conversationID"`
}

type GroupCreated struct {
	GroupID string `json:"groupID"`
}

func ProfileItem(u database.User) Item {
	return Item{
		"email":     {S: u.Email},
		"name":      {S: u.Name},
		"uid":       {S: u.UID},
		"createdAt": {S: u.CreatedAt},
	}
}

func UserItems(users []database.User) []Item {
	items := make([]Item, 0, len(users))
	for _, u := range users {
		items = append(items, Item{
			"uid":  {S: u.UID},
			"name": {S: u.Name},
		})
	}
	return items
}

// ConversationItems renders each conversation from uid's side: companionID
// is the other participant.
func ConversationItems(uid string, convs []database.Conversation) []Item {
	items := make([]Item, 0, len(convs))
	for _, c := range convs {
		companion := c.User1
		if uid == c.User1 {
			companion = c.User2
		}
		items = append(items, Item{
			"id":          {S: c.ID},
			"companionID": {S: companion},
		})
	}
	return items
}

func GroupItems(groups []database.Group) []Item {
	items := make([]Item, 0, len(groups))
	for _, g := range groups {
		items = append(items, Item{
			"id":        {S: g.ID},
			"name":      {S: g.Name},
			"createdAt": {S: g.CreatedAt},
			"createdBy": {S: g.CreatedBy},
		})
	}
	return items
}

func MessageItems(msgs []database.Message) []Item {
	items := make([]Item, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, Item{
			"authorID":  {S: m.AuthorID},
			"message":   {S: m.Message},
			"createdAt": {S: m.CreatedAt},
		})
	}
	return items
}
