package repo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"

	"github.com/azure-sidekick/server/internal/agent/model"
	errx "github.com/azure-sidekick/server/internal/core/error"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

const storageAccountsQuery = `Resources
| where type =~ 'Microsoft.Storage/storageAccounts'`

const storageAccountProjection = `
| project name, resourceGroup, location, kind, sku, tags, properties`

// maxQueryPages bounds skip-token paging of a single listing.
const maxQueryPages = 20

type resourceQuerier interface {
	Resources(ctx context.Context, query armresourcegraph.QueryRequest, options *armresourcegraph.ClientResourcesOptions) (armresourcegraph.ClientResourcesResponse, error)
}

// StorageAccountDirectory lists storage accounts through Azure Resource Graph.
type StorageAccountDirectory struct {
	client  resourceQuerier
	timeout time.Duration
}

func NewStorageAccountDirectory(cred azcore.TokenCredential, timeout time.Duration) (*StorageAccountDirectory, error) {
	client, err := armresourcegraph.NewClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create resource graph client: %w", err)
	}
	return &StorageAccountDirectory{client: client, timeout: timeout}, nil
}

func (d *StorageAccountDirectory) List(ctx context.Context, subscriptionID string) ([]model.Resource, error) {
	return d.query(ctx, subscriptionID, storageAccountsQuery+storageAccountProjection)
}

func (d *StorageAccountDirectory) Get(ctx context.Context, subscriptionID, name string) (model.Resource, error) {
	q := storageAccountsQuery + fmt.Sprintf("\n| where name =~ '%s'", escapeKQL(name)) + storageAccountProjection
	rows, err := d.query(ctx, subscriptionID, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		logx.Debug().Str("subscription", subscriptionID).Str("account", name).Msg("storage account not found")
		return nil, errx.New(fmt.Errorf("storage account %q not found", name), http.StatusNotFound, errx.NotFoundMessage)
	}
	return rows[0], nil
}

func (d *StorageAccountDirectory) query(ctx context.Context, subscriptionID, q string) ([]model.Resource, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req := armresourcegraph.QueryRequest{
		Query:         to.Ptr(q),
		Subscriptions: []*string{to.Ptr(subscriptionID)},
		Options: &armresourcegraph.QueryRequestOptions{
			ResultFormat: to.Ptr(armresourcegraph.ResultFormatObjectArray),
		},
	}

	var out []model.Resource
	for page := 0; page < maxQueryPages; page++ {
		resp, err := d.client.Resources(ctx, req, nil)
		if err != nil {
			logx.Error().Err(err).Str("subscription", subscriptionID).Msg("resource graph query failed")
			return nil, errx.WrapAzure(err)
		}
		rows, err := decodeRows(resp.Data)
		if err != nil {
			logx.Error().Err(err).Str("subscription", subscriptionID).Msg("unexpected resource graph payload")
			return nil, errx.New(err, http.StatusBadGateway, errx.AzureErrorMessage)
		}
		out = append(out, rows...)

		if resp.SkipToken == nil || *resp.SkipToken == "" {
			return out, nil
		}
		req.Options.SkipToken = resp.SkipToken
	}
	logx.Warn().Str("subscription", subscriptionID).Int("pages", maxQueryPages).Msg("resource graph listing truncated")
	return out, nil
}

func decodeRows(data any) ([]model.Resource, error) {
	if data == nil {
		return nil, nil
	}
	items, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("expected object array, got %T", data)
	}
	rows := make([]model.Resource, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("row %d: expected object, got %T", i, it)
		}
		rows = append(rows, model.Resource(m))
	}
	return rows, nil
}

var kqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func escapeKQL(s string) string {
	return kqlEscaper.Replace(strings.TrimSpace(s))
}

var _ model.ResourceDirectory = (*StorageAccountDirectory)(nil)
