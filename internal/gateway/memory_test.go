package gateway

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGatewayPutIfAbsent(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()

	item := map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "k"}}
	require.NoError(t, gw.PutIfAbsent(ctx, "t", "k", item))

	err := gw.PutIfAbsent(ctx, "t", "k", item)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMemoryGatewayGetNotFound(t *testing.T) {
	gw := NewMemoryGateway()
	_, err := gw.Get(context.Background(), "t", "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGatewayAppendToListRequiresExistingItem(t *testing.T) {
	gw := NewMemoryGateway()
	_, err := gw.AppendToList(context.Background(), "t", "k", "data_list", "v")
	assert.ErrorIs(t, err, ErrItemMissing)
}

func TestMemoryGatewayAppendToListGrowsLength(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()
	require.NoError(t, gw.PutIfAbsent(ctx, "t", "k", map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: "k"},
	}))

	n, err := gw.AppendToList(ctx, "t", "k", "data_list", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = gw.AppendToList(ctx, "t", "k", "data_list", "b")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryGatewayIncrementIfAtLeast(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()
	require.NoError(t, gw.PutIfAbsent(ctx, "t", "k", map[string]types.AttributeValue{
		"id":          &types.AttributeValueMemberS{Value: "k"},
		"currentPage": &types.AttributeValueMemberN{Value: "0"},
	}))

	n, err := gw.IncrementIfAtLeast(ctx, "t", "k", "currentPage", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = gw.IncrementIfAtLeast(ctx, "t", "k", "currentPage", 0)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestMemoryGatewayBulkGetOmitsMissing(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()
	require.NoError(t, gw.PutIfAbsent(ctx, "t", "a", map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: "a"},
	}))

	out, err := gw.BulkGet(ctx, "t", []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Contains(t, out, "a")
}
