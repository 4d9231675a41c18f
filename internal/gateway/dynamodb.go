package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	smithy "github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/govetachun/pagelist/internal/metrics"
	"github.com/govetachun/pagelist/pkg/errs"
)

// DynamoClient is the subset of *dynamodb.Client the gateway depends on,
// narrow enough to substitute a stub in tests without standing up a real
// client.
type DynamoClient interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
}

// DynamoGateway implements Gateway against a real DynamoDB table using the
// conditional-write vocabulary described in SPEC_FULL.md's Domain Stack
// section: PutItem+attribute_not_exists for PutIfAbsent, UpdateItem with
// list_append for AppendToList, and UpdateItem with an equality condition
// for IncrementIfAtLeast.
type DynamoGateway struct {
	client DynamoClient
	log    *zap.SugaredLogger
	metric *metrics.Metrics
}

// NewDynamoGateway wraps an existing DynamoDB client. log and metric may be
// nil, in which case logging/metrics are no-ops.
func NewDynamoGateway(client DynamoClient, log *zap.SugaredLogger, metric *metrics.Metrics) *DynamoGateway {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if metric == nil {
		metric = metrics.NewNop()
	}
	return &DynamoGateway{client: client, log: log, metric: metric}
}

func (g *DynamoGateway) PutIfAbsent(ctx context.Context, table, key string, item map[string]types.AttributeValue) error {
	timer := g.metric.GatewayCallTimer("PutIfAbsent")
	defer timer.ObserveDuration()

	_, err := g.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err == nil {
		return nil
	}
	if isConditionalCheckFailed(err) {
		g.log.Debugw("put-if-absent: already exists", "table", table, "key", key)
		return ErrAlreadyExists
	}
	return g.transportError("PutIfAbsent", err)
}

func (g *DynamoGateway) Get(ctx context.Context, table, key string, projection []string) (map[string]types.AttributeValue, error) {
	timer := g.metric.GatewayCallTimer("Get")
	defer timer.ObserveDuration()

	in := &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: key},
		},
	}
	if len(projection) > 0 {
		in.ProjectionExpression = aws.String(strings.Join(projection, ", "))
	}
	out, err := g.client.GetItem(ctx, in)
	if err != nil {
		return nil, g.transportError("Get", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	return out.Item, nil
}

func (g *DynamoGateway) AppendToList(ctx context.Context, table, key, field, value string) (int, error) {
	timer := g.metric.GatewayCallTimer("AppendToList")
	defer timer.ObserveDuration()

	out, err := g.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression:    aws.String(fmt.Sprintf("SET %s = list_append(%s, :v)", field, field)),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberL{
				Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: value}},
			},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return 0, ErrItemMissing
		}
		return 0, g.transportError("AppendToList", err)
	}
	list, ok := out.Attributes[field].(*types.AttributeValueMemberL)
	if !ok {
		return 0, fmt.Errorf("gateway: AppendToList: field %q not a list in response", field)
	}
	return len(list.Value), nil
}

func (g *DynamoGateway) IncrementIfAtLeast(ctx context.Context, table, key, field string, floor int) (int, error) {
	timer := g.metric.GatewayCallTimer("IncrementIfAtLeast")
	defer timer.ObserveDuration()

	out, err := g.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression:    aws.String(fmt.Sprintf("SET %s = %s + :one", field, field)),
		ConditionExpression: aws.String(fmt.Sprintf("%s = :floor", field)),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":floor": &types.AttributeValueMemberN{Value: strconv.Itoa(floor)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return 0, ErrPreconditionFailed
		}
		return 0, g.transportError("IncrementIfAtLeast", err)
	}
	n, ok := out.Attributes[field].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("gateway: IncrementIfAtLeast: field %q not numeric in response", field)
	}
	val, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("gateway: IncrementIfAtLeast: parse %q: %w", n.Value, err)
	}
	return val, nil
}

func (g *DynamoGateway) BulkGet(ctx context.Context, table string, keys []string) (map[string]map[string]types.AttributeValue, error) {
	timer := g.metric.GatewayCallTimer("BulkGet")
	defer timer.ObserveDuration()

	if len(keys) == 0 {
		return map[string]map[string]types.AttributeValue{}, nil
	}
	keysAndAttrs := types.KeysAndAttributes{}
	for _, k := range keys {
		keysAndAttrs.Keys = append(keysAndAttrs.Keys, map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: k},
		})
	}
	out, err := g.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{table: keysAndAttrs},
	})
	if err != nil {
		return nil, g.transportError("BulkGet", err)
	}
	result := make(map[string]map[string]types.AttributeValue, len(keys))
	for _, item := range out.Responses[table] {
		idAttr, ok := item["id"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		result[idAttr.Value] = item
	}
	return result, nil
}

func (g *DynamoGateway) transportError(op string, err error) error {
	g.metric.GatewayErrors(op).Inc()
	g.log.Warnw("gateway transport error", "op", op, "error", err)
	return errs.StoreUnavailable(op, err)
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ConditionalCheckFailedException"
	}
	return false
}
