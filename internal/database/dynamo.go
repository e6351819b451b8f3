package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// DynamoAPI is the subset of *dynamodb.Client the repository calls.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

type TableNames struct {
	Users         string
	Conversations string
	Groups        string
}

var DefaultTableNames = TableNames{
	Users:         "rsschool-2023-users",
	Conversations: "rsschool-2023-conversations",
	Groups:        "rsschool-2023-groups",
}

type DynamoRepository struct {
	client DynamoAPI
	tables TableNames
}

// NewDynamoClient loads the default AWS configuration for region. A non-empty
// endpoint points the client at DynamoDB Local or another compatible service.
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func NewDynamoRepository(client DynamoAPI, tables TableNames) *DynamoRepository {
	return &DynamoRepository{client: client, tables: tables}
}

type userItem struct {
	Email        string `dynamodbav:"email"`
	UID          string `dynamodbav:"uid"`
	Name         string `dynamodbav:"name"`
	PasswordHash string `dynamodbav:"password"`
	Token        string `dynamodbav:"token"`
	CreatedAt    string `dynamodbav:"createdAt"`
	IsVerified   bool   `dynamodbav:"isVerified"`
}

type conversationItem struct {
	ID        string `dynamodbav:"id"`
	User1     string `dynamodbav:"user1"`
	User2     string `dynamodbav:"user2"`
	CreatedAt string `dynamodbav:"createdAt"`
	State     string `dynamodbav:"state,omitempty"`
}

type groupItem struct {
	ID        string `dynamodbav:"id"`
	Name      string `dynamodbav:"name"`
	CreatedBy string `dynamodbav:"createdBy"`
	CreatedAt string `dynamodbav:"createdAt"`
	State     string `dynamodbav:"state,omitempty"`
}

type messageItem struct {
	AuthorID  string `dynamodbav:"authorID"`
	Message   string `dynamodbav:"message"`
	CreatedAt string `dynamodbav:"createdAt"`
}

func (u userItem) toUser() User {
	return User{
		Email:        u.Email,
		UID:          u.UID,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Token:        u.Token,
		CreatedAt:    u.CreatedAt,
		IsVerified:   u.IsVerified,
	}
}

func (c conversationItem) toConversation() Conversation {
	return Conversation{
		ID:        c.ID,
		User1:     c.User1,
		User2:     c.User2,
		CreatedAt: c.CreatedAt,
		State:     normalizeState(EntityState(c.State)),
	}
}

func (g groupItem) toGroup() Group {
	return Group{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
		State:     normalizeState(EntityState(g.State)),
	}
}

// mapDynamoError translates service exceptions into the package sentinels.
// Anything unrecognised is returned untouched.
func mapDynamoError(err error) error {
	if err == nil {
		return nil
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%w: %w", ErrConditionFailed, err)
	}
	var rnf *types.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return fmt.Errorf("%w: %w", ErrTableNotFound, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationException" {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return err
}

func stringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

func (r *DynamoRepository) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.tables.Users),
	})
	return mapDynamoError(err)
}

func (r *DynamoRepository) CreateUser(ctx context.Context, user User) error {
	item, err := attributevalue.MarshalMap(userItem{
		Email:        user.Email,
		UID:          user.UID,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		Token:        user.Token,
		CreatedAt:    user.CreatedAt,
		IsVerified:   user.IsVerified,
	})
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("email")).
		And(expression.AttributeNotExists(expression.Name("uid")))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("build expression: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tables.Users),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return mapDynamoError(err)
}

func (r *DynamoRepository) GetUser(ctx context.Context, email string) (User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tables.Users),
		Key:       stringKey("email", email),
	})
	if err != nil {
		return User{}, mapDynamoError(err)
	}
	if out.Item == nil {
		return User{}, ErrNotFound
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	return item.toUser(), nil
}

func (r *DynamoRepository) QueryUsers(ctx context.Context, query UserQuery) ([]User, error) {
	keyCond := expression.Key("email").Equal(expression.Value(query.Email))
	filter := expression.Name("token").Equal(expression.Value(query.Token)).
		And(expression.Name("uid").Equal(expression.Value(query.UID)))
	proj := expression.NamesList(
		expression.Name("email"),
		expression.Name("createdAt"),
		expression.Name("name"),
		expression.Name("uid"),
	)
	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCond).
		WithFilter(filter).
		WithProjection(proj).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build expression: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tables.Users),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, mapDynamoError(err)
	}

	var items []userItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshal users: %w", err)
	}

	users := make([]User, 0, len(items))
	for _, item := range items {
		users = append(users, item.toUser())
	}
	return users, nil
}

func (r *DynamoRepository) updateUser(ctx context.Context, email string, update expression.UpdateBuilder, cond *expression.ConditionBuilder) error {
	builder := expression.NewBuilder().WithUpdate(update)
	if cond != nil {
		builder = builder.WithCondition(*cond)
	}
	expr, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tables.Users),
		Key:                       stringKey("email", email),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return mapDynamoError(err)
}

func (r *DynamoRepository) SetToken(ctx context.Context, email, token string) error {
	update := expression.Set(expression.Name("token"), expression.Value(token))
	return r.updateUser(ctx, email, update, nil)
}

func (r *DynamoRepository) UpdateToken(ctx context.Context, params UpdateTokenParams) error {
	update := expression.Set(expression.Name("token"), expression.Value(params.NewToken))
	cond := expression.Name("token").Equal(expression.Value(params.CurrentToken)).
		And(expression.Name("uid").Equal(expression.Value(params.UID)))
	return r.updateUser(ctx, params.Email, update, &cond)
}

func (r *DynamoRepository) UpdateName(ctx context.Context, params UpdateNameParams) error {
	update := expression.Set(expression.Name("name"), expression.Value(params.Name))
	cond := expression.Name("token").Equal(expression.Value(params.Token)).
		And(expression.Name("uid").Equal(expression.Value(params.UID)))
	return r.updateUser(ctx, params.Email, update, &cond)
}

// scanAll walks every page of a scan and returns the raw items.
func (r *DynamoRepository) scanAll(ctx context.Context, input *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue

	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapDynamoError(err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func (r *DynamoRepository) ListUsers(ctx context.Context) ([]User, error) {
	proj := expression.NamesList(expression.Name("email"), expression.Name("uid"), expression.Name("name"))
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return nil, fmt.Errorf("build expression: %w", err)
	}

	raw, err := r.scanAll(ctx, &dynamodb.ScanInput{
		TableName:                aws.String(r.tables.Users),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return nil, err
	}

	var items []userItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal users: %w", err)
	}

	users := make([]User, 0, len(items))
	for _, item := range items {
		users = append(users, item.toUser())
	}
	return users, nil
}

func (r *DynamoRepository) DeleteUser(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tables.Users),
		Key:          stringKey("email", email),
		ReturnValues: types.ReturnValueNone,
	})
	return mapDynamoError(err)
}

func (r *DynamoRepository) CountConversations(ctx context.Context, user1, user2 string) (int, error) {
	filter := expression.Name("user1").Equal(expression.Value(user1)).
		And(expression.Name("user2").Equal(expression.Value(user2)))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return 0, fmt.Errorf("build expression: %w", err)
	}

	var count int
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tables.Conversations),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Select:                    types.SelectCount,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, mapDynamoError(err)
		}
		count += int(page.Count)
	}
	return count, nil
}

func (r *DynamoRepository) ListConversations(ctx context.Context, uid string) ([]Conversation, error) {
	proj := expression.NamesList(
		expression.Name("id"),
		expression.Name("user1"),
		expression.Name("user2"),
		expression.Name("createdAt"),
		expression.Name("state"),
	)
	builder := expression.NewBuilder().WithProjection(proj)
	if uid != "" {
		builder = builder.WithFilter(expression.Name("user1").Equal(expression.Value(uid)).
			Or(expression.Name("user2").Equal(expression.Value(uid))))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build expression: %w", err)
	}

	raw, err := r.scanAll(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tables.Conversations),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, err
	}

	var items []conversationItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal conversations: %w", err)
	}

	convs := make([]Conversation, 0, len(items))
	for _, item := range items {
		convs = append(convs, item.toConversation())
	}
	return convs, nil
}

func (r *DynamoRepository) GetConversation(ctx context.Context, id string) (Conversation, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tables.Conversations),
		Key:       stringKey("id", id),
	})
	if err != nil {
		return Conversation{}, mapDynamoError(err)
	}
	if out.Item == nil {
		return Conversation{}, ErrNotFound
	}

	var item conversationItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Conversation{}, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return item.toConversation(), nil
}

func (r *DynamoRepository) putIfAbsent(ctx context.Context, table string, v any) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("id"))).
		Build()
	if err != nil {
		return fmt.Errorf("build expression: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(table),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return mapDynamoError(err)
}

func (r *DynamoRepository) PutConversation(ctx context.Context, conv Conversation) error {
	return r.putIfAbsent(ctx, r.tables.Conversations, conversationItem{
		ID:        conv.ID,
		User1:     conv.User1,
		User2:     conv.User2,
		CreatedAt: conv.CreatedAt,
		State:     string(conv.State),
	})
}

func (r *DynamoRepository) deleteRegistryRow(ctx context.Context, table, id string, cond *expression.ConditionBuilder) error {
	input := &dynamodb.DeleteItemInput{
		TableName:    aws.String(table),
		Key:          stringKey("id", id),
		ReturnValues: types.ReturnValueNone,
	}
	if cond != nil {
		expr, err := expression.NewBuilder().WithCondition(*cond).Build()
		if err != nil {
			return fmt.Errorf("build expression: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	_, err := r.client.DeleteItem(ctx, input)
	return mapDynamoError(err)
}

func (r *DynamoRepository) DeleteConversation(ctx context.Context, id, participant string) error {
	var cond *expression.ConditionBuilder
	if participant != "" {
		c := expression.Name("user1").Equal(expression.Value(participant)).
			Or(expression.Name("user2").Equal(expression.Value(participant)))
		cond = &c
	}
	return r.deleteRegistryRow(ctx, r.tables.Conversations, id, cond)
}

func (r *DynamoRepository) ListGroups(ctx context.Context) ([]Group, error) {
	proj := expression.NamesList(
		expression.Name("id"),
		expression.Name("name"),
		expression.Name("createdAt"),
		expression.Name("createdBy"),
		expression.Name("state"),
	)
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return nil, fmt.Errorf("build expression: %w", err)
	}

	raw, err := r.scanAll(ctx, &dynamodb.ScanInput{
		TableName:                aws.String(r.tables.Groups),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return nil, err
	}

	var items []groupItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal groups: %w", err)
	}

	groups := make([]Group, 0, len(items))
	for _, item := range items {
		groups = append(groups, item.toGroup())
	}
	return groups, nil
}

func (r *DynamoRepository) GetGroup(ctx context.Context, id string) (Group, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tables.Groups),
		Key:       stringKey("id", id),
	})
	if err != nil {
		return Group{}, mapDynamoError(err)
	}
	if out.Item == nil {
		return Group{}, ErrNotFound
	}

	var item groupItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Group{}, fmt.Errorf("unmarshal group: %w", err)
	}
	return item.toGroup(), nil
}

func (r *DynamoRepository) PutGroup(ctx context.Context, group Group) error {
	return r.putIfAbsent(ctx, r.tables.Groups, groupItem{
		ID:        group.ID,
		Name:      group.Name,
		CreatedBy: group.CreatedBy,
		CreatedAt: group.CreatedAt,
		State:     string(group.State),
	})
}

func (r *DynamoRepository) DeleteGroup(ctx context.Context, id, owner string) error {
	var cond *expression.ConditionBuilder
	if owner != "" {
		c := expression.Name("createdBy").Equal(expression.Value(owner))
		cond = &c
	}
	return r.deleteRegistryRow(ctx, r.tables.Groups, id, cond)
}

func (r *DynamoRepository) registryTable(kind Kind) (string, error) {
	switch kind {
	case KindConversation:
		return r.tables.Conversations, nil
	case KindGroup:
		return r.tables.Groups, nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

func (r *DynamoRepository) SetEntityState(ctx context.Context, kind Kind, id string, from, to EntityState) error {
	table, err := r.registryTable(kind)
	if err != nil {
		return err
	}

	state := expression.Name("state")
	cond := state.Equal(expression.Value(string(from)))
	if from == StateReady {
		cond = cond.Or(expression.AttributeNotExists(state))
	}
	cond = expression.AttributeExists(expression.Name("id")).And(cond)

	expr, err := expression.NewBuilder().
		WithCondition(cond).
		WithUpdate(expression.Set(state, expression.Value(string(to)))).
		Build()
	if err != nil {
		return fmt.Errorf("build expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       stringKey("id", id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return mapDynamoError(err)
}

func (r *DynamoRepository) CreateMessageTable(ctx context.Context, name string) error {
	_, err := r.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:                 aws.String(name),
		BillingMode:               types.BillingModePayPerRequest,
		TableClass:                types.TableClassStandard,
		DeletionProtectionEnabled: aws.Bool(false),
		SSESpecification:          &types.SSESpecification{Enabled: aws.Bool(false)},
		StreamSpecification:       &types.StreamSpecification{StreamEnabled: aws.Bool(false)},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("authorID"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("createdAt"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("authorID"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("createdAt"), KeyType: types.KeyTypeRange},
		},
	})
	return mapDynamoError(err)
}

func (r *DynamoRepository) DeleteMessageTable(ctx context.Context, name string) error {
	_, err := r.client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(name),
	})
	return mapDynamoError(err)
}

func (r *DynamoRepository) MessageTableReady(ctx context.Context, name string) (bool, error) {
	out, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
	if err != nil {
		err = mapDynamoError(err)
		if errors.Is(err, ErrTableNotFound) {
			return false, nil
		}
		return false, err
	}
	return out.Table != nil && out.Table.TableStatus == types.TableStatusActive, nil
}

func (r *DynamoRepository) PutMessage(ctx context.Context, table string, msg Message) error {
	item, err := attributevalue.MarshalMap(messageItem{
		AuthorID:  msg.AuthorID,
		Message:   msg.Message,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                   aws.String(table),
		Item:                        item,
		ReturnItemCollectionMetrics: types.ReturnItemCollectionMetricsNone,
	})
	return mapDynamoError(err)
}

func (r *DynamoRepository) ScanMessages(ctx context.Context, table, since string) ([]Message, error) {
	proj := expression.NamesList(
		expression.Name("authorID"),
		expression.Name("message"),
		expression.Name("createdAt"),
	)
	builder := expression.NewBuilder().WithProjection(proj)
	if since != "" {
		builder = builder.WithFilter(expression.Name("createdAt").GreaterThan(expression.Value(since)))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build expression: %w", err)
	}

	raw, err := r.scanAll(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(table),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, err
	}

	var items []messageItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}

	msgs := make([]Message, 0, len(items))
	for _, item := range items {
		msgs = append(msgs, Message{
			AuthorID:  item.AuthorID,
			Message:   item.Message,
			CreatedAt: item.CreatedAt,
		})
	}
	return msgs, nil
}

func (r *DynamoRepository) ListTables(ctx context.Context) ([]string, error) {
	var names []string

	paginator := dynamodb.NewListTablesPaginator(r.client, &dynamodb.ListTablesInput{
		Limit: aws.Int32(100),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapDynamoError(err)
		}
		names = append(names, page.TableNames...)
	}
	return names, nil
}
