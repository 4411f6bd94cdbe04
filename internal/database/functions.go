package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrItemExists is returned by AppendItem when an item with the same key is
// already stored.
var ErrItemExists = errors.New("dynamodb: item already exists")

// AppendItem writes item only if no item with the same sort key exists, so a
// retried write can never overwrite a ledger entry.
func (c *DynamoDBClient) AppendItem(
	ctx context.Context,
	tableName string,
	item interface{},
	sortKeyAttr string,
) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal ledger item: %w", err)
	}

	_, err = c.svc.PutItem(ctx, appendItemInput(tableName, av, sortKeyAttr))
	if err != nil {
		if isConditionFailed(err) {
			return ErrItemExists
		}
		return fmt.Errorf("append to %s: %w", tableName, err)
	}
	return nil
}

func appendItemInput(tableName string, av map[string]types.AttributeValue, sortKeyAttr string) *dynamodb.PutItemInput {
	return &dynamodb.PutItemInput{
		TableName:                aws.String(tableName),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#sk)"),
		ExpressionAttributeNames: map[string]string{"#sk": sortKeyAttr},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
