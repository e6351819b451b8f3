package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockRepository) CreateUser(ctx context.Context, user User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockRepository) GetUser(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) QueryUsers(ctx context.Context, query UserQuery) ([]User, error) {
	args := m.Called(ctx, query)
	if users, ok := args.Get(0).([]User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) SetToken(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}
func (m *MockRepository) UpdateToken(ctx context.Context, params UpdateTokenParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
func (m *MockRepository) UpdateName(ctx context.Context, params UpdateNameParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
func (m *MockRepository) ListUsers(ctx context.Context) ([]User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockRepository) DeleteUser(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}
func (m *MockRepository) CountConversations(ctx context.Context, user1, user2 string) (int, error) {
	args := m.Called(ctx, user1, user2)
	return args.Int(0), args.Error(1)
}
func (m *MockRepository) ListConversations(ctx context.Context, uid string) ([]Conversation, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).([]Conversation), args.Error(1)
}
func (m *MockRepository) GetConversation(ctx context.Context, id string) (Conversation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockRepository) PutConversation(ctx context.Context, conv Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}
func (m *MockRepository) DeleteConversation(ctx context.Context, id, participant string) error {
	args := m.Called(ctx, id, participant)
	return args.Error(0)
}
func (m *MockRepository) ListGroups(ctx context.Context) ([]Group, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Group), args.Error(1)
}
func (m *MockRepository) GetGroup(ctx context.Context, id string) (Group, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Group), args.Error(1)
}
func (m *MockRepository) PutGroup(ctx context.Context, group Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}
func (m *MockRepository) DeleteGroup(ctx context.Context, id, owner string) error {
	args := m.Called(ctx, id, owner)
	return args.Error(0)
}
func (m *MockRepository) SetEntityState(ctx context.Context, kind Kind, id string, from, to EntityState) error {
	args := m.Called(ctx, kind, id, from, to)
	return args.Error(0)
}
func (m *MockRepository) CreateMessageTable(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
func (m *MockRepository) DeleteMessageTable(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
func (m *MockRepository) MessageTableReady(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) PutMessage(ctx context.Context, table string, msg Message) error {
	args := m.Called(ctx, table, msg)
	return args.Error(0)
}
func (m *MockRepository) ScanMessages(ctx context.Context, table, since string) ([]Message, error) {
	args := m.Called(ctx, table, since)
	if msgs, ok := args.Get(0).([]Message); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) ListTables(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}
