package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBClient is the subset of the DynamoDB API used by DynamoAccountStore.
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Attribute names of an account item.
const (
	attrAccessKey            = "accessKey"
	attrEmail                = "email"
	attrSubscriptionTier     = "subscriptionTier"
	attrSubscriptionStatus   = "subscriptionStatus"
	attrStripeCustomerID     = "stripeCustomerId"
	attrStripeSubscriptionID = "stripeSubscriptionId"
	attrStripeSessionID      = "stripeSessionId"
	attrMaxSubmissions       = "maxSubmissions"
	attrLastPaymentDate      = "lastPaymentDate"
	attrCreatedAt            = "createdAt"
	attrUpdatedAt            = "updatedAt"
)

// DynamoAccountStore keeps accounts in a DynamoDB table keyed by access key,
// with a global secondary index on the Stripe customer id.
type DynamoAccountStore struct {
	client        DynamoDBClient
	table         string
	customerIndex string
}

func NewDynamoAccountStore(client DynamoDBClient, table, customerIndex string) *DynamoAccountStore {
	if customerIndex == "" {
		customerIndex = "stripeCustomerId-index"
	}
	return &DynamoAccountStore{
		client:        client,
		table:         table,
		customerIndex: customerIndex,
	}
}

func (s *DynamoAccountStore) Get(ctx context.Context, accessKey string) (*models.Account, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		ConsistentRead: aws.Bool(true),
		Key: map[string]dbtypes.AttributeValue{
			attrAccessKey: &dbtypes.AttributeValueMemberS{Value: accessKey},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get account: %w", err)
	}
	if out.Item == nil {
		return nil, ErrAccountNotFound
	}
	return accountFromItem(out.Item), nil
}

// FindByCustomerID resolves the customer id through the secondary index and
// then reads the full record. Only the first index entry is considered.
func (s *DynamoAccountStore) FindByCustomerID(ctx context.Context, customerID string) (*models.Account, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(s.customerIndex),
		KeyConditionExpression: aws.String("#cid = :cid"),
		ExpressionAttributeNames: map[string]string{
			"#cid": attrStripeCustomerID,
		},
		ExpressionAttributeValues: map[string]dbtypes.AttributeValue{
			":cid": &dbtypes.AttributeValueMemberS{Value: customerID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb query customer index: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, ErrAccountNotFound
	}
	accessKey := stringAttr(out.Items[0], attrAccessKey)
	if accessKey == "" {
		return nil, ErrAccountNotFound
	}
	return s.Get(ctx, accessKey)
}

func (s *DynamoAccountStore) Update(ctx context.Context, accessKey string, update AccountUpdate) error {
	expr, names, values := updateExpression(update)
	names["#pk"] = attrAccessKey

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]dbtypes.AttributeValue{
			attrAccessKey: &dbtypes.AttributeValueMemberS{Value: accessKey},
		},
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *dbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("dynamodb update account: %w", err)
	}
	return nil
}

func (s *DynamoAccountStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	return err
}

// updateExpression builds a SET expression in a fixed attribute order.
func updateExpression(u AccountUpdate) (string, map[string]string, map[string]dbtypes.AttributeValue) {
	names := map[string]string{}
	values := map[string]dbtypes.AttributeValue{}
	var sets []string

	set := func(attr string, v dbtypes.AttributeValue) {
		names["#"+attr] = attr
		values[":"+attr] = v
		sets = append(sets, "#"+attr+" = :"+attr)
	}
	str := func(v string) dbtypes.AttributeValue {
		return &dbtypes.AttributeValueMemberS{Value: v}
	}

	if u.Email != nil {
		set(attrEmail, str(*u.Email))
	}
	if u.SubscriptionTier != nil {
		set(attrSubscriptionTier, str(*u.SubscriptionTier))
	}
	if u.SubscriptionStatus != nil {
		set(attrSubscriptionStatus, str(*u.SubscriptionStatus))
	}
	if u.StripeCustomerID != nil {
		set(attrStripeCustomerID, str(*u.StripeCustomerID))
	}
	if u.StripeSubscriptionID != nil {
		set(attrStripeSubscriptionID, str(*u.StripeSubscriptionID))
	}
	if u.StripeSessionID != nil {
		set(attrStripeSessionID, str(*u.StripeSessionID))
	}
	if u.MaxSubmissions != nil {
		set(attrMaxSubmissions, &dbtypes.AttributeValueMemberN{Value: strconv.Itoa(*u.MaxSubmissions)})
	}
	if u.LastPaymentDate != nil {
		set(attrLastPaymentDate, str(u.LastPaymentDate.UTC().Format(time.RFC3339Nano)))
	}
	set(attrUpdatedAt, str(u.UpdatedAt.UTC().Format(time.RFC3339Nano)))

	return "SET " + strings.Join(sets, ", "), names, values
}

func accountFromItem(item map[string]dbtypes.AttributeValue) *models.Account {
	acc := &models.Account{
		AccessKey:            stringAttr(item, attrAccessKey),
		Email:                stringAttr(item, attrEmail),
		SubscriptionTier:     stringAttr(item, attrSubscriptionTier),
		SubscriptionStatus:   stringAttr(item, attrSubscriptionStatus),
		StripeCustomerID:     stringAttr(item, attrStripeCustomerID),
		StripeSubscriptionID: stringAttr(item, attrStripeSubscriptionID),
		StripeSessionID:      stringAttr(item, attrStripeSessionID),
		CreatedAt:            timeAttr(item, attrCreatedAt),
		UpdatedAt:            timeAttr(item, attrUpdatedAt),
	}
	if n, ok := item[attrMaxSubmissions].(*dbtypes.AttributeValueMemberN); ok {
		acc.MaxSubmissions, _ = strconv.Atoi(n.Value)
	}
	if t := timeAttr(item, attrLastPaymentDate); !t.IsZero() {
		acc.LastPaymentDate = &t
	}
	return acc
}

func stringAttr(item map[string]dbtypes.AttributeValue, name string) string {
	if v, ok := item[name].(*dbtypes.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func timeAttr(item map[string]dbtypes.AttributeValue, name string) time.Time {
	s := stringAttr(item, name)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
