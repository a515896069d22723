package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/billing/billingtest"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupDispatcherTest(t *testing.T, accounts ...models.Account) (*WebhookDispatcher, *memoryStore, *miniredis.Miniredis) {
	t.Helper()
	svc, st := setupSubscriptionServiceTest(accounts...)
	client, mr := newTestRedis(t)

	d := NewWebhookDispatcher(billing.NewVerifier(billingtest.Secret), svc, NewRedisEventLedger(client, time.Hour))
	return d, st, mr
}

func TestWebhookDispatcher_InvalidSignatureMutatesNothing(t *testing.T) {
	d, st, mr := setupDispatcherTest(t, freeAccount())
	payload := billingtest.CheckoutCompleted("evt_1", map[string]string{"accessKey": "sa_abc", "tier": "pro"}, "cus_abc", "cs_1")

	_, err := d.Dispatch(context.Background(), payload, billingtest.Sign(payload, "whsec_wrong", time.Now()))
	assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	assert.Zero(t, st.writeCount())
	assert.Equal(t, freeAccount(), st.account("sa_abc"))
	assert.Empty(t, mr.Keys())
}

func TestWebhookDispatcher_AppliesAndRecords(t *testing.T) {
	d, st, mr := setupDispatcherTest(t, freeAccount())
	payload := billingtest.CheckoutCompleted("evt_1", map[string]string{
		"accessKey": "sa_abc", "tier": "pro", "submissions": "25000",
	}, "cus_abc", "cs_1")

	res, err := d.Dispatch(context.Background(), payload, billingtest.SignNow(payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", res.EventID)
	assert.Equal(t, "checkout.session.completed", res.EventType)
	assert.False(t, res.Duplicate)
	assert.NoError(t, res.Skipped)

	acc := st.account("sa_abc")
	assert.Equal(t, "pro", acc.SubscriptionTier)
	assert.Equal(t, models.StatusActive, acc.SubscriptionStatus)
	assert.Equal(t, 25000, acc.MaxSubmissions)
	assert.True(t, mr.Exists("stripe:event:evt_1"))
}

func TestWebhookDispatcher_DuplicateIsAcknowledgedWithoutWrite(t *testing.T) {
	d, st, _ := setupDispatcherTest(t, freeAccount())
	payload := billingtest.CheckoutCompleted("evt_1", map[string]string{"accessKey": "sa_abc", "tier": "pro"}, "cus_abc", "cs_1")
	ctx := context.Background()

	_, err := d.Dispatch(ctx, payload, billingtest.SignNow(payload))
	require.NoError(t, err)
	require.Equal(t, 1, st.writeCount())

	res, err := d.Dispatch(ctx, payload, billingtest.SignNow(payload))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, 1, st.writeCount())
}

func TestWebhookDispatcher_SkippedEventsAreAcknowledged(t *testing.T) {
	d, st, mr := setupDispatcherTest(t, freeAccount())
	payload := billingtest.CheckoutCompleted("evt_nometa", map[string]string{"tier": "pro"}, "cus_abc", "cs_1")

	res, err := d.Dispatch(context.Background(), payload, billingtest.SignNow(payload))
	require.NoError(t, err)
	assert.ErrorIs(t, res.Skipped, ErrMissingMetadata)
	assert.Zero(t, st.writeCount())
	assert.True(t, mr.Exists("stripe:event:evt_nometa"))
}

func TestWebhookDispatcher_UnknownKind(t *testing.T) {
	d, st, _ := setupDispatcherTest(t, proAccount())
	payload := billingtest.EventPayload("evt_ping", "ping", map[string]interface{}{"id": "x"})

	res, err := d.Dispatch(context.Background(), payload, billingtest.SignNow(payload))
	require.NoError(t, err)
	assert.Equal(t, "ping", res.EventType)
	assert.NoError(t, res.Skipped)
	assert.Zero(t, st.writeCount())
}

func TestWebhookDispatcher_StoreFailureIsNotRecorded(t *testing.T) {
	mockStore := new(MockAccountStore)
	acc := proAccount()
	mockStore.On("FindByCustomerID", mock.Anything, "cus_abc").Return(&acc, nil)
	mockStore.On("Update", mock.Anything, "sa_abc", mock.Anything).Return(errors.New("write timeout"))

	client, mr := newTestRedis(t)
	d := NewWebhookDispatcher(billing.NewVerifier(billingtest.Secret), NewSubscriptionService(mockStore), NewRedisEventLedger(client, time.Hour))

	payload := billingtest.Invoice("evt_f", "invoice.payment_failed", "cus_abc", 0)
	_, err := d.Dispatch(context.Background(), payload, billingtest.SignNow(payload))
	assert.ErrorIs(t, err, ErrStoreWrite)
	assert.False(t, mr.Exists("stripe:event:evt_f"), "failed events stay retryable")
}

func TestWebhookDispatcher_LedgerOutageDoesNotBlock(t *testing.T) {
	d, st, mr := setupDispatcherTest(t, proAccount())
	mr.Close()
	payload := billingtest.Subscription("evt_d", "customer.subscription.deleted", "cus_abc", "sub_1", "canceled")

	_, err := d.Dispatch(context.Background(), payload, billingtest.SignNow(payload))
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, st.account("sa_abc").SubscriptionStatus)
}

func TestWebhookDispatcher_NilLedger(t *testing.T) {
	svc, st := setupSubscriptionServiceTest(proAccount())
	d := NewWebhookDispatcher(billing.NewVerifier(billingtest.Secret), svc, nil)
	payload := billingtest.Invoice("evt_f", "invoice.payment_failed", "cus_abc", 0)

	_, err := d.Dispatch(context.Background(), payload, billingtest.SignNow(payload))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaymentFailed, st.account("sa_abc").SubscriptionStatus)
}
