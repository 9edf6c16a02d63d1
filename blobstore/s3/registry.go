package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DDBClient is the interface for DynamoDB operations. *dynamodb.Client
// satisfies it.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ErrRunExists is returned when registering a run whose name is taken.
var ErrRunExists = errors.New("run already registered")

// ErrRunNotFound is returned when looking up an unregistered run.
var ErrRunNotFound = errors.New("run not found")

// RunRecord describes a registered ensemble run: where its blob lives and
// the summary a reader needs before opening it.
type RunRecord struct {
	// Ensemble groups runs, e.g. a study or map name. Partition key.
	Ensemble string
	// Name identifies the run within the ensemble. Sort key.
	Name string
	// Key is the blob name inside the store.
	Key string
	// UnitCount is the number of units per assignment vector.
	UnitCount uint64
	// Steps is the total number of chain steps in the run.
	Steps uint64
	// Records is the number of stored records.
	Records uint64
	// Chain reports whether the run was written in chain mode.
	Chain bool
	// CreatedAt is the registration time, UTC.
	CreatedAt time.Time
}

// Registry tracks ensemble runs in a DynamoDB table so readers can find a
// run's blob and size it without listing or opening the store.
//
// Table schema:
//   - Partition key: ensemble (string)
//   - Sort key: run_name (string)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name benstream-runs \
//	  --attribute-definitions AttributeName=ensemble,AttributeType=S AttributeName=run_name,AttributeType=S \
//	  --key-schema AttributeName=ensemble,KeyType=HASH AttributeName=run_name,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type Registry struct {
	client    DDBClient
	tableName string
}

// NewRegistry creates a run registry backed by the given table.
func NewRegistry(client DDBClient, tableName string) *Registry {
	return &Registry{
		client:    client,
		tableName: tableName,
	}
}

// Register adds a run record. Registering an existing (ensemble, name)
// pair returns ErrRunExists; records are never overwritten in place.
func (r *Registry) Register(ctx context.Context, rec RunRecord) error {
	if rec.Ensemble == "" || rec.Name == "" {
		return errors.New("ensemble and run name must be non-empty")
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"ensemble":   &types.AttributeValueMemberS{Value: rec.Ensemble},
			"run_name":   &types.AttributeValueMemberS{Value: rec.Name},
			"blob_key":   &types.AttributeValueMemberS{Value: rec.Key},
			"unit_count": &types.AttributeValueMemberN{Value: strconv.FormatUint(rec.UnitCount, 10)},
			"steps":      &types.AttributeValueMemberN{Value: strconv.FormatUint(rec.Steps, 10)},
			"records":    &types.AttributeValueMemberN{Value: strconv.FormatUint(rec.Records, 10)},
			"chain":      &types.AttributeValueMemberBOOL{Value: rec.Chain},
			"created_at": &types.AttributeValueMemberS{Value: createdAt.Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_not_exists(run_name)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrRunExists
		}
		return fmt.Errorf("failed to register run: %w", err)
	}

	return nil
}

// Lookup returns the record for a single run.
func (r *Registry) Lookup(ctx context.Context, ensemble, name string) (RunRecord, error) {
	resp, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"ensemble": &types.AttributeValueMemberS{Value: ensemble},
			"run_name": &types.AttributeValueMemberS{Value: name},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to look up run: %w", err)
	}
	if len(resp.Item) == 0 {
		return RunRecord{}, ErrRunNotFound
	}

	return decodeRunItem(resp.Item)
}

// Runs returns all run records in an ensemble, in run-name order.
func (r *Registry) Runs(ctx context.Context, ensemble string) ([]RunRecord, error) {
	var out []RunRecord
	var startKey map[string]types.AttributeValue

	for {
		resp, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("ensemble = :e"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":e": &types.AttributeValueMemberS{Value: ensemble},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query runs: %w", err)
		}

		for _, item := range resp.Items {
			rec, err := decodeRunItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}

		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}

	return out, nil
}

// Deregister removes a run record. Removing a missing run is not an error.
func (r *Registry) Deregister(ctx context.Context, ensemble, name string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"ensemble": &types.AttributeValueMemberS{Value: ensemble},
			"run_name": &types.AttributeValueMemberS{Value: name},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to deregister run: %w", err)
	}
	return nil
}

func decodeRunItem(item map[string]types.AttributeValue) (RunRecord, error) {
	rec := RunRecord{}

	str := func(attr string) (string, error) {
		v, ok := item[attr].(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("invalid %s attribute", attr)
		}
		return v.Value, nil
	}
	num := func(attr string) (uint64, error) {
		v, ok := item[attr].(*types.AttributeValueMemberN)
		if !ok {
			return 0, fmt.Errorf("invalid %s attribute", attr)
		}
		n, err := strconv.ParseUint(v.Value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse %s: %w", attr, err)
		}
		return n, nil
	}

	var err error
	if rec.Ensemble, err = str("ensemble"); err != nil {
		return RunRecord{}, err
	}
	if rec.Name, err = str("run_name"); err != nil {
		return RunRecord{}, err
	}
	if rec.Key, err = str("blob_key"); err != nil {
		return RunRecord{}, err
	}
	if rec.UnitCount, err = num("unit_count"); err != nil {
		return RunRecord{}, err
	}
	if rec.Steps, err = num("steps"); err != nil {
		return RunRecord{}, err
	}
	if rec.Records, err = num("records"); err != nil {
		return RunRecord{}, err
	}
	if b, ok := item["chain"].(*types.AttributeValueMemberBOOL); ok {
		rec.Chain = b.Value
	}
	if s, ok := item["created_at"].(*types.AttributeValueMemberS); ok {
		if t, err := time.Parse(time.RFC3339Nano, s.Value); err == nil {
			rec.CreatedAt = t
		}
	}

	return rec, nil
}
