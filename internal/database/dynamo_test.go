package database

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo overrides the calls a test cares about. Anything else panics on
// the nil embedded interface.
type fakeDynamo struct {
	DynamoAPI

	getItem       func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItem       func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	deleteItem    func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	scan          func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
	createTable   func(*dynamodb.CreateTableInput) (*dynamodb.CreateTableOutput, error)
	describeTable func(*dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error)
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getItem(in)
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return f.putItem(in)
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return f.deleteItem(in)
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return f.scan(in)
}

func (f *fakeDynamo) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	return f.createTable(in)
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return f.describeTable(in)
}

func Test_mapDynamoError(t *testing.T) {
	other := errors.New("network down")

	tcases := []struct {
		name     string
		err      error
		expected error
	}{
		{
			name:     "conditional check",
			err:      &types.ConditionalCheckFailedException{Message: aws.String("failed")},
			expected: ErrConditionFailed,
		},
		{
			name:     "missing table",
			err:      &types.ResourceNotFoundException{Message: aws.String("no table")},
			expected: ErrTableNotFound,
		},
		{
			name:     "validation",
			err:      &smithy.GenericAPIError{Code: "ValidationException", Message: "bad name"},
			expected: ErrValidation,
		},
		{
			name:     "unrecognised",
			err:      other,
			expected: other,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, mapDynamoError(tc.err), tc.expected)
		})
	}

	assert.NoError(t, mapDynamoError(nil))
}

func TestDynamoRepository_GetUser(t *testing.T) {
	var gotKey map[string]types.AttributeValue
	client := &fakeDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			gotKey = in.Key
			if in.Key["email"].(*types.AttributeValueMemberS).Value == "missing@example.com" {
				return &dynamodb.GetItemOutput{}, nil
			}
			return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
				"email":      &types.AttributeValueMemberS{Value: "a@example.com"},
				"uid":        &types.AttributeValueMemberS{Value: "uid1"},
				"name":       &types.AttributeValueMemberS{Value: "Ann"},
				"password":   &types.AttributeValueMemberS{Value: "hash"},
				"token":      &types.AttributeValueMemberS{Value: ""},
				"createdAt":  &types.AttributeValueMemberS{Value: "100"},
				"isVerified": &types.AttributeValueMemberBOOL{Value: false},
			}}, nil
		},
	}
	repo := NewDynamoRepository(client, DefaultTableNames)

	user, err := repo.GetUser(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, User{Email: "a@example.com", UID: "uid1", Name: "Ann", PasswordHash: "hash", CreatedAt: "100"}, user)
	assert.Contains(t, gotKey, "email")

	_, err = repo.GetUser(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoRepository_PutConversation(t *testing.T) {
	var gotInput *dynamodb.PutItemInput
	client := &fakeDynamo{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			gotInput = in
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		},
	}
	repo := NewDynamoRepository(client, DefaultTableNames)

	err := repo.PutConversation(context.Background(), Conversation{
		ID: "c1", User1: "a", User2: "b", CreatedAt: "100", State: StatePending,
	})
	assert.ErrorIs(t, err, ErrConditionFailed)

	require.NotNil(t, gotInput)
	assert.Equal(t, DefaultTableNames.Conversations, aws.ToString(gotInput.TableName))
	assert.NotEmpty(t, aws.ToString(gotInput.ConditionExpression))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "pending"}, gotInput.Item["state"])
}

func TestDynamoRepository_DeleteGroupUnconditional(t *testing.T) {
	var gotInput *dynamodb.DeleteItemInput
	client := &fakeDynamo{
		deleteItem: func(in *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
			gotInput = in
			return &dynamodb.DeleteItemOutput{}, nil
		},
	}
	repo := NewDynamoRepository(client, DefaultTableNames)

	require.NoError(t, repo.DeleteGroup(context.Background(), "g1", ""))
	assert.Nil(t, gotInput.ConditionExpression)

	require.NoError(t, repo.DeleteGroup(context.Background(), "g1", "owner"))
	assert.NotNil(t, gotInput.ConditionExpression)
}

func TestDynamoRepository_ScanMessagesPaginates(t *testing.T) {
	var calls int
	client := &fakeDynamo{
		scan: func(in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
			calls++
			assert.Equal(t, "group-g1", aws.ToString(in.TableName))
			assert.NotNil(t, in.FilterExpression)

			item := map[string]types.AttributeValue{
				"authorID":  &types.AttributeValueMemberS{Value: "a"},
				"message":   &types.AttributeValueMemberS{Value: "hi"},
				"createdAt": &types.AttributeValueMemberS{Value: "200"},
			}
			if in.ExclusiveStartKey == nil {
				return &dynamodb.ScanOutput{
					Items:            []map[string]types.AttributeValue{item},
					LastEvaluatedKey: map[string]types.AttributeValue{"authorID": item["authorID"], "createdAt": item["createdAt"]},
				}, nil
			}
			item["createdAt"] = &types.AttributeValueMemberS{Value: "300"}
			return &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{item}}, nil
		},
	}
	repo := NewDynamoRepository(client, DefaultTableNames)

	msgs, err := repo.ScanMessages(context.Background(), "group-g1", "150")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []Message{
		{AuthorID: "a", Message: "hi", CreatedAt: "200"},
		{AuthorID: "a", Message: "hi", CreatedAt: "300"},
	}, msgs)
}

func TestDynamoRepository_ScanMessagesMissingTable(t *testing.T) {
	client := &fakeDynamo{
		scan: func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
			return nil, &types.ResourceNotFoundException{Message: aws.String("no table")}
		},
	}
	repo := NewDynamoRepository(client, DefaultTableNames)

	_, err := repo.ScanMessages(context.Background(), "group-g1", "")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestDynamoRepository_CreateMessageTable(t *testing.T) {
	var gotInput *dynamodb.CreateTableInput
	client := &fakeDynamo{
		createTable: func(in *dynamodb.CreateTableInput) (*dynamodb.CreateTableOutput, error) {
			gotInput = in
			return &dynamodb.CreateTableOutput{}, nil
		},
	}
	repo := NewDynamoRepository(client, DefaultTableNames)

	require.NoError(t, repo.CreateMessageTable(context.Background(), "conversation-c1"))
	assert.Equal(t, types.BillingModePayPerRequest, gotInput.BillingMode)
	require.Len(t, gotInput.KeySchema, 2)
	assert.Equal(t, "authorID", aws.ToString(gotInput.KeySchema[0].AttributeName))
	assert.Equal(t, types.KeyTypeHash, gotInput.KeySchema[0].KeyType)
	assert.Equal(t, "createdAt", aws.ToString(gotInput.KeySchema[1].AttributeName))
	assert.Equal(t, types.KeyTypeRange, gotInput.KeySchema[1].KeyType)
}

func TestDynamoRepository_MessageTableReady(t *testing.T) {
	tcases := []struct {
		name     string
		out      *dynamodb.DescribeTableOutput
		err      error
		expected bool
	}{
		{
			name:     "active",
			out:      &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableStatus: types.TableStatusActive}},
			expected: true,
		},
		{
			name:     "creating",
			out:      &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableStatus: types.TableStatusCreating}},
			expected: false,
		},
		{
			name:     "missing",
			err:      &types.ResourceNotFoundException{Message: aws.String("no table")},
			expected: false,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeDynamo{
				describeTable: func(*dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error) {
					return tc.out, tc.err
				},
			}
			ready, err := NewDynamoRepository(client, DefaultTableNames).MessageTableReady(context.Background(), "group-g1")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ready)
		})
	}
}
