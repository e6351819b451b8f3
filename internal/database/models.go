package database

type User struct {
	Email        string
	UID          string
	Name         string
	PasswordHash string
	Token        string
	CreatedAt    string
	IsVerified   bool
}

// EntityState is the lifecycle state stored on a registry row. A row that
// predates the attribute reads back as StateReady.
type EntityState string

const (
	StatePending EntityState = "pending"
	StateReady   EntityState = "ready"
)

type Conversation struct {
	ID        string
	User1     string
	User2     string
	CreatedAt string
	State     EntityState
}

type Group struct {
	ID        string
	Name      string
	CreatedBy string
	CreatedAt string
	State     EntityState
}

type Message struct {
	AuthorID  string
	Message   string
	CreatedAt string
}

// UserQuery selects the user row keyed by Email whose uid and token both
// match.
type UserQuery struct {
	Email string
	UID   string
	Token string
}

// UpdateTokenParams replaces a session token only while the stored uid and
// token still equal UID and CurrentToken.
type UpdateTokenParams struct {
	Email        string
	UID          string
	CurrentToken string
	NewToken     string
}

type UpdateNameParams struct {
	Email string
	UID   string
	Token string
	Name  string
}

func normalizeState(s EntityState) EntityState {
	if s == "" {
		return StateReady
	}
	return s
}
