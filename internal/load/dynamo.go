package load

import (
	"context"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/guregu/dynamo"
)

// DynamoPutter batch-writes items to a DynamoDB table.
type DynamoPutter struct {
	table dynamo.Table
}

func NewDynamoPutter(client dynamodbiface.DynamoDBAPI, table string) *DynamoPutter {
	return &DynamoPutter{table: dynamo.NewFromIface(client).Table(table)}
}

// NewSessionPutter builds a putter from the shared AWS config, like the aws
// cli does.
func NewSessionPutter(table string) *DynamoPutter {
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	return NewDynamoPutter(dynamodb.New(sess), table)
}

func (p *DynamoPutter) Put(ctx context.Context, items []interface{}) error {
	_, err := p.table.Batch().Write().Put(items...).RunWithContext(ctx)
	return err
}
