package graph

import (
	"bytes"
	"context"
	"io"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure-sidekick/server/internal/agent/model"
	"github.com/azure-sidekick/server/internal/agent/router"
	"github.com/azure-sidekick/server/internal/agent/telemetry"
	"github.com/azure-sidekick/server/internal/agent/testutil"
)

type echoModel struct{}

func (echoModel) Generate(_ context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	return schema.AssistantMessage(in[len(in)-1].Content, nil), nil
}

func (echoModel) Stream(_ context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(in[len(in)-1].Content, nil)}), nil
}

func TestBuild(t *testing.T) {
	store := testutil.NewHistoryStore()
	routers, err := Build(context.Background(), Config{
		LLM:             model.LLMConfig{Model: "gemini-2.5-flash"},
		Conversation:    model.ConversationConfig{MaxHistoryItems: 3},
		ChatModel:       echoModel{},
		HistoryStore:    store,
		StorageAccounts: &testutil.Directory{},
	})
	require.NoError(t, err)

	assert.Equal(t, router.GeneralName, routers.General.Name())
	assert.Equal(t, []model.Intent{model.IntentStorage}, routers.Registry.Names())

	turn, err := routers.General.Rephrase(context.Background(), router.Request{SessionKey: "s", Question: "what is blob storage?"})
	require.NoError(t, err)
	assert.Equal(t, "what is blob storage?", turn.Answer)
	assert.Zero(t, store.Mutations())
}

func TestBuildRequiresCollaborators(t *testing.T) {
	_, err := Build(context.Background(), Config{ChatModel: echoModel{}, StorageAccounts: &testutil.Directory{}})
	assert.Error(t, err)

	_, err = Build(context.Background(), Config{ChatModel: echoModel{}, HistoryStore: testutil.NewHistoryStore()})
	assert.Error(t, err)
}

func TestBuildRecordsRouterOperations(t *testing.T) {
	var ops bytes.Buffer
	routers, err := Build(context.Background(), Config{
		LLM:             model.LLMConfig{Model: "gemini-2.5-flash"},
		ChatModel:       echoModel{},
		HistoryStore:    testutil.NewHistoryStore(),
		StorageAccounts: &testutil.Directory{},
		Telemetry:       telemetry.NewWriters(&ops, io.Discard, io.Discard),
	})
	require.NoError(t, err)

	ctx, parent := model.StartOperation(context.Background(), "Ask", "q")
	_, err = routers.General.Rephrase(ctx, router.Request{SessionKey: "s", Question: "what is blob storage?"})
	require.NoError(t, err)

	assert.Contains(t, ops.String(), `"name":"General:Rephrase"`)
	assert.Contains(t, ops.String(), `"parent_id":"`+parent.ID+`"`)
}
