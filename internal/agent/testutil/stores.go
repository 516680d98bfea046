package testutil

import (
	"context"
	"sync"

	"github.com/azure-sidekick/server/internal/agent/model"
)

// HistoryStore records every mutation. AddErr, when set, fails Add.
type HistoryStore struct {
	mu       sync.Mutex
	sessions map[string][]model.ChatTurn
	adds     int
	clears   int
	AddErr   error
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{sessions: make(map[string][]model.ChatTurn)}
}

// Seed replaces the history of sessionKey without counting as a mutation.
func (h *HistoryStore) Seed(sessionKey string, turns ...model.ChatTurn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[sessionKey] = append([]model.ChatTurn(nil), turns...)
}

func (h *HistoryStore) List(_ context.Context, sessionKey string) ([]model.ChatTurn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.ChatTurn(nil), h.sessions[sessionKey]...), nil
}

func (h *HistoryStore) Add(_ context.Context, sessionKey string, turn model.ChatTurn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.AddErr != nil {
		return h.AddErr
	}
	h.adds++
	h.sessions[sessionKey] = append(h.sessions[sessionKey], turn)
	return nil
}

func (h *HistoryStore) Clear(_ context.Context, sessionKey string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clears++
	delete(h.sessions, sessionKey)
	return nil
}

// Mutations counts successful Add and Clear calls.
func (h *HistoryStore) Mutations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.adds + h.clears
}

// Added returns the turns appended to sessionKey.
func (h *HistoryStore) Added(sessionKey string) []model.ChatTurn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.ChatTurn(nil), h.sessions[sessionKey]...)
}

var _ model.HistoryStore = (*HistoryStore)(nil)

// Directory is a func-field ResourceDirectory that counts calls.
type Directory struct {
	mu       sync.Mutex
	ListFunc func(ctx context.Context, subscriptionID string) ([]model.Resource, error)
	GetFunc  func(ctx context.Context, subscriptionID, name string) (model.Resource, error)
	lists    int
	gets     []string
}

func (d *Directory) List(ctx context.Context, subscriptionID string) ([]model.Resource, error) {
	d.mu.Lock()
	d.lists++
	d.mu.Unlock()
	if d.ListFunc == nil {
		return nil, nil
	}
	return d.ListFunc(ctx, subscriptionID)
}

func (d *Directory) Get(ctx context.Context, subscriptionID, name string) (model.Resource, error) {
	d.mu.Lock()
	d.gets = append(d.gets, name)
	d.mu.Unlock()
	if d.GetFunc == nil {
		return model.Resource{"name": name}, nil
	}
	return d.GetFunc(ctx, subscriptionID, name)
}

func (d *Directory) ListCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lists
}

// GetCalls returns the names passed to Get.
func (d *Directory) GetCalls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.gets...)
}

var _ model.ResourceDirectory = (*Directory)(nil)

// Subscriptions is a fixed SubscriptionDirectory.
type Subscriptions struct {
	Items []model.Subscription
	Err   error
}

func (s *Subscriptions) List(context.Context) ([]model.Subscription, error) {
	return s.Items, s.Err
}
