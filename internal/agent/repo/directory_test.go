package repo

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/azure-sidekick/server/internal/core/error"
)

type fakeQuerier struct {
	pages    []armresourcegraph.ClientResourcesResponse
	err      error
	requests []armresourcegraph.QueryRequest
}

func (f *fakeQuerier) Resources(_ context.Context, q armresourcegraph.QueryRequest, _ *armresourcegraph.ClientResourcesOptions) (armresourcegraph.ClientResourcesResponse, error) {
	// copy the options so later skip-token updates do not rewrite history
	opts := *q.Options
	q.Options = &opts
	f.requests = append(f.requests, q)
	if f.err != nil {
		return armresourcegraph.ClientResourcesResponse{}, f.err
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func page(skip *string, rows ...map[string]any) armresourcegraph.ClientResourcesResponse {
	data := make([]any, len(rows))
	for i, r := range rows {
		data[i] = r
	}
	return armresourcegraph.ClientResourcesResponse{
		QueryResponse: armresourcegraph.QueryResponse{Data: data, SkipToken: skip},
	}
}

func TestStorageAccountDirectoryListPages(t *testing.T) {
	q := &fakeQuerier{pages: []armresourcegraph.ClientResourcesResponse{
		page(to.Ptr("next"), map[string]any{"name": "acct1"}),
		page(nil, map[string]any{"name": "acct2"}),
	}}
	dir := &StorageAccountDirectory{client: q}

	rows, err := dir.List(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "acct2", rows[1].Name())

	require.Len(t, q.requests, 2)
	assert.Equal(t, "sub-1", *q.requests[0].Subscriptions[0])
	assert.Contains(t, *q.requests[0].Query, "Microsoft.Storage/storageAccounts")
	assert.Nil(t, q.requests[0].Options.SkipToken)
	assert.Equal(t, "next", *q.requests[1].Options.SkipToken)
	assert.Equal(t, armresourcegraph.ResultFormatObjectArray, *q.requests[0].Options.ResultFormat)
}

func TestStorageAccountDirectoryGet(t *testing.T) {
	q := &fakeQuerier{pages: []armresourcegraph.ClientResourcesResponse{
		page(nil, map[string]any{"name": "acct1", "location": "westeurope"}),
	}}
	dir := &StorageAccountDirectory{client: q}

	acct, err := dir.Get(context.Background(), "sub-1", "acct1")
	require.NoError(t, err)
	assert.Equal(t, "westeurope", acct["location"])
	assert.Contains(t, *q.requests[0].Query, "where name =~ 'acct1'")
}

func TestStorageAccountDirectoryGetNotFound(t *testing.T) {
	dir := &StorageAccountDirectory{client: &fakeQuerier{pages: []armresourcegraph.ClientResourcesResponse{page(nil)}}}

	_, err := dir.Get(context.Background(), "sub-1", "missing")
	require.Error(t, err)
	assert.True(t, errx.IsNotFound(err))
}

func TestStorageAccountDirectoryEscapesName(t *testing.T) {
	q := &fakeQuerier{pages: []armresourcegraph.ClientResourcesResponse{page(nil)}}
	dir := &StorageAccountDirectory{client: q}

	_, _ = dir.Get(context.Background(), "sub-1", "x' or 1==1 or name =~ '")
	assert.Contains(t, *q.requests[0].Query, `'x\' or 1==1 or name =~ \''`)
}

func TestStorageAccountDirectoryWrapsErrors(t *testing.T) {
	dir := &StorageAccountDirectory{client: &fakeQuerier{err: &azcore.ResponseError{StatusCode: http.StatusForbidden}}}

	_, err := dir.List(context.Background(), "sub-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, errx.StatusOf(err))
}

func TestDecodeRowsRejectsUnexpectedShape(t *testing.T) {
	_, err := decodeRows(map[string]any{"columns": []any{}})
	assert.Error(t, err)

	rows, err := decodeRows(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

type fakePager struct {
	pages []armsubscriptions.ClientListResponse
	err   error
}

func (f *fakePager) More() bool { return len(f.pages) > 0 || f.err != nil }

func (f *fakePager) NextPage(context.Context) (armsubscriptions.ClientListResponse, error) {
	if f.err != nil {
		err := f.err
		f.err = nil
		return armsubscriptions.ClientListResponse{}, err
	}
	p := f.pages[0]
	f.pages = f.pages[1:]
	return p, nil
}

func subPage(subs ...*armsubscriptions.Subscription) armsubscriptions.ClientListResponse {
	return armsubscriptions.ClientListResponse{SubscriptionListResult: armsubscriptions.SubscriptionListResult{Value: subs}}
}

func TestSubscriptionDirectoryList(t *testing.T) {
	pager := &fakePager{pages: []armsubscriptions.ClientListResponse{
		subPage(&armsubscriptions.Subscription{SubscriptionID: to.Ptr("2"), DisplayName: to.Ptr("Prod"), TenantID: to.Ptr("t")}),
		subPage(nil, &armsubscriptions.Subscription{SubscriptionID: to.Ptr("1"), DisplayName: to.Ptr("dev")}, &armsubscriptions.Subscription{DisplayName: to.Ptr("no id")}),
	}}
	dir := &SubscriptionDirectory{newPager: func() subscriptionPager { return pager }}

	subs, err := dir.List(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "dev", subs[0].DisplayName)
	assert.Equal(t, "Prod", subs[1].DisplayName)
	assert.Equal(t, "t", subs[1].TenantID)
}

func TestSubscriptionDirectoryListError(t *testing.T) {
	dir := &SubscriptionDirectory{newPager: func() subscriptionPager { return &fakePager{err: errors.New("unauthorized")} }}

	_, err := dir.List(context.Background())
	require.Error(t, err)
	assert.True(t, errx.IsAppError(err))
}
