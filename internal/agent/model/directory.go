package model

import (
	"context"
	"fmt"
)

// Resource is a structured record returned by a resource query.
type Resource map[string]any

// Name returns the record's name field.
func (r Resource) Name() string {
	if v, ok := r["name"]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

type ResourceDirectory interface {
	List(ctx context.Context, subscriptionID string) ([]Resource, error)
	// Get returns an errx 404 when the resource does not exist.
	Get(ctx context.Context, subscriptionID, name string) (Resource, error)
}

type Subscription struct {
	ID          string
	DisplayName string
	TenantID    string
}

type SubscriptionDirectory interface {
	List(ctx context.Context) ([]Subscription, error)
}
