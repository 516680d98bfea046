package repo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"

	"github.com/azure-sidekick/server/internal/agent/model"
	errx "github.com/azure-sidekick/server/internal/core/error"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

type subscriptionPager interface {
	More() bool
	NextPage(ctx context.Context) (armsubscriptions.ClientListResponse, error)
}

// SubscriptionDirectory lists the subscriptions visible to the signed-in identity.
type SubscriptionDirectory struct {
	newPager func() subscriptionPager
}

func NewSubscriptionDirectory(cred azcore.TokenCredential) (*SubscriptionDirectory, error) {
	client, err := armsubscriptions.NewClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create subscriptions client: %w", err)
	}
	return &SubscriptionDirectory{
		newPager: func() subscriptionPager { return client.NewListPager(nil) },
	}, nil
}

func (d *SubscriptionDirectory) List(ctx context.Context) ([]model.Subscription, error) {
	pager := d.newPager()
	var subs []model.Subscription
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			logx.Error().Err(err).Msg("failed to list subscriptions")
			return nil, errx.WrapAzure(err)
		}
		for _, s := range page.Value {
			if s == nil || s.SubscriptionID == nil {
				continue
			}
			subs = append(subs, model.Subscription{
				ID:          *s.SubscriptionID,
				DisplayName: deref(s.DisplayName),
				TenantID:    deref(s.TenantID),
			})
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return strings.ToLower(subs[i].DisplayName) < strings.ToLower(subs[j].DisplayName)
	})
	return subs, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ model.SubscriptionDirectory = (*SubscriptionDirectory)(nil)
