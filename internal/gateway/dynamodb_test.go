package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockDynamoClient stands in for *dynamodb.Client via the narrow
// DynamoClient interface, the same substitution-behind-a-small-interface
// shape the teacher's transaction_test.go uses for its MockDB, formalized
// here with testify/mock instead of a hand-rolled stub.
type mockDynamoClient struct {
	mock.Mock
}

func (m *mockDynamoClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamoClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamoClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamoClient) BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.BatchGetItemOutput)
	return out, args.Error(1)
}

func TestDynamoGatewayPutIfAbsentTranslatesConditionalFailure(t *testing.T) {
	client := &mockDynamoClient{}
	client.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: strPtr("exists")})
	g := NewDynamoGateway(client, nil, nil)

	err := g.PutIfAbsent(context.Background(), "t", "k", map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: "k"},
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
	client.AssertExpectations(t)
}

func TestDynamoGatewayPutIfAbsentSurfacesTransportError(t *testing.T) {
	client := &mockDynamoClient{}
	client.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, errors.New("throttled"))
	g := NewDynamoGateway(client, nil, nil)

	err := g.PutIfAbsent(context.Background(), "t", "k", map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: "k"},
	})
	assert.False(t, errors.Is(err, ErrAlreadyExists))
	assert.Contains(t, err.Error(), "storeUnavailable")
}

func TestDynamoGatewayGetNotFound(t *testing.T) {
	client := &mockDynamoClient{}
	client.On("GetItem", mock.Anything, mock.Anything).
		Return(&dynamodb.GetItemOutput{Item: nil}, nil)
	g := NewDynamoGateway(client, nil, nil)

	_, err := g.Get(context.Background(), "t", "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoGatewayAppendToListReturnsNewLength(t *testing.T) {
	client := &mockDynamoClient{}
	client.On("UpdateItem", mock.Anything, mock.Anything).
		Return(&dynamodb.UpdateItemOutput{
			Attributes: map[string]types.AttributeValue{
				"data_list": &types.AttributeValueMemberL{Value: []types.AttributeValue{
					&types.AttributeValueMemberS{Value: "a"},
					&types.AttributeValueMemberS{Value: "b"},
				}},
			},
		}, nil)
	g := NewDynamoGateway(client, nil, nil)

	n, err := g.AppendToList(context.Background(), "t", "L_0", "data_list", "b")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDynamoGatewayAppendToListItemMissing(t *testing.T) {
	client := &mockDynamoClient{}
	client.On("UpdateItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: strPtr("missing")})
	g := NewDynamoGateway(client, nil, nil)

	_, err := g.AppendToList(context.Background(), "t", "L_0", "data_list", "v")
	assert.ErrorIs(t, err, ErrItemMissing)
}

func TestDynamoGatewayIncrementIfAtLeastPreconditionFailed(t *testing.T) {
	client := &mockDynamoClient{}
	client.On("UpdateItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: strPtr("stale floor")})
	g := NewDynamoGateway(client, nil, nil)

	_, err := g.IncrementIfAtLeast(context.Background(), "t", "L_summary", "currentPage", 3)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestDynamoGatewayIncrementIfAtLeastReturnsNewValue(t *testing.T) {
	client := &mockDynamoClient{}
	client.On("UpdateItem", mock.Anything, mock.Anything).
		Return(&dynamodb.UpdateItemOutput{
			Attributes: map[string]types.AttributeValue{
				"currentPage": &types.AttributeValueMemberN{Value: "4"},
			},
		}, nil)
	g := NewDynamoGateway(client, nil, nil)

	n, err := g.IncrementIfAtLeast(context.Background(), "t", "L_summary", "currentPage", 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestDynamoGatewayBulkGetOmitsMissingKeys(t *testing.T) {
	client := &mockDynamoClient{}
	client.On("BatchGetItem", mock.Anything, mock.Anything).
		Return(&dynamodb.BatchGetItemOutput{
			Responses: map[string][]map[string]types.AttributeValue{
				"t": {
					{"id": &types.AttributeValueMemberS{Value: "L_0"}},
				},
			},
		}, nil)
	g := NewDynamoGateway(client, nil, nil)

	out, err := g.BulkGet(context.Background(), "t", []string{"L_0", "L_1"})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Contains(t, out, "L_0")
}

func TestDynamoGatewayBulkGetEmptyKeysShortCircuits(t *testing.T) {
	client := &mockDynamoClient{}
	g := NewDynamoGateway(client, nil, nil)

	out, err := g.BulkGet(context.Background(), "t", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	client.AssertNotCalled(t, "BatchGetItem", mock.Anything, mock.Anything)
}

func strPtr(s string) *string { return &s }
