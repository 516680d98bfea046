package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/azure-sidekick/server/internal/agent/gateway/prompts"
	"github.com/azure-sidekick/server/internal/agent/grounding"
	"github.com/azure-sidekick/server/internal/agent/model"
	errx "github.com/azure-sidekick/server/internal/core/error"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

type storageMessages struct {
	unableToAnswer  string
	noAccounts      string
	unableToExtract string
	accountNotFound string
}

// Storage answers questions about the storage accounts of the selected
// subscription, fetching account records before calling the model.
type Storage struct {
	base
	directory model.ResourceDirectory
	messages  storageMessages
}

func NewStorage(gw model.LanguageModelGateway, store model.HistoryStore, dir model.ResourceDirectory, policy grounding.Policy, opts ...Option) *Storage {
	s := &Storage{
		base: base{
			name:    model.IntentStorage,
			plugin:  prompts.PluginStorage,
			gateway: gw,
			store:   store,
			policy:  policy,
			filter:  grounding.IntentFilter(model.IntentStorage, model.IntentInformation),
		},
		directory: dir,
		messages: storageMessages{
			unableToAnswer:  "I am sorry, I am unable to answer your question about Azure Storage. Can you please rephrase it?",
			noAccounts:      "I could not find any storage accounts in the selected subscription.",
			unableToExtract: "I could not work out which storage account you are asking about. Can you please include the storage account name in your question?",
			accountNotFound: "I could not find the details of the storage account %q in the selected subscription.",
		},
	}
	s.apply(opts)
	return s
}

func (s *Storage) ClassifyIntent(ctx context.Context, req Request) (*model.ChatTurn, error) {
	return s.classify(ctx, req, model.StorageIntents)
}

func (s *Storage) Answer(ctx context.Context, req Request) (_ *model.ChatTurn, err error) {
	ctx, op := s.start(ctx, "Answer", req.Question)
	defer func() { s.finish(op, err) }()

	p, err := s.plan(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.answer(ctx, req, p)
}

func (s *Storage) StreamAnswer(ctx context.Context, req Request, state *model.StreamingState) *schema.StreamReader[model.Result] {
	ctx, op := s.startStream(ctx, req, state)
	p, err := s.plan(ctx, req)
	if err != nil {
		s.finish(op, err)
		return failed(err)
	}
	return s.stream(ctx, req, p, state, op)
}

func (s *Storage) plan(ctx context.Context, req Request) (plan, error) {
	cls, err := s.ClassifyIntent(ctx, req)
	if err != nil {
		return plan{}, err
	}
	usage := model.AddUsage(cls.Usage())
	sub := model.Intent(cls.Answer)

	var p plan
	switch sub {
	case model.IntentGeneralInformation:
		p = s.promptPlan(req, s.name, sub, string(sub), s.arguments(req))

	case model.IntentStorageAccounts:
		p, err = s.accountsPlan(ctx, req)

	case model.IntentStorageAccount:
		var extra *schema.TokenUsage
		p, extra, err = s.accountPlan(ctx, req)
		usage = model.AddUsage(&usage, extra)

	default:
		p = s.cannedPlan(req, s.name, sub, s.messages.unableToAnswer, true)
	}
	if err != nil {
		return plan{}, err
	}
	p.usage = model.AddUsage(&p.usage, &usage)
	return p, nil
}

func (s *Storage) accountsPlan(ctx context.Context, req Request) (plan, error) {
	accounts, err := s.listAccounts(ctx, req.SubscriptionID)
	if err != nil {
		return plan{}, s.fail(ctx, "ListStorageAccounts", err)
	}
	if len(accounts) == 0 {
		return s.cannedPlan(req, s.name, model.IntentStorageAccounts, s.messages.noAccounts, true), nil
	}
	return s.contextPlan(ctx, req, model.IntentStorageAccounts, accounts)
}

// accountPlan also returns the usage of the entity recognition call, which
// is spent even when the plan ends up canned.
func (s *Storage) accountPlan(ctx context.Context, req Request) (plan, *schema.TokenUsage, error) {
	ents, usage, err := s.recognizeEntities(ctx, req)
	if err != nil {
		return plan{}, nil, err
	}
	if ents.StorageAccount == "" {
		return s.cannedPlan(req, s.name, model.IntentStorageAccount, s.messages.unableToExtract, true), usage, nil
	}

	account, err := s.getAccount(ctx, req.SubscriptionID, ents.StorageAccount)
	if errx.IsNotFound(err) {
		msg := fmt.Sprintf(s.messages.accountNotFound, ents.StorageAccount)
		return s.cannedPlan(req, s.name, model.IntentStorageAccount, msg, true), usage, nil
	}
	if err != nil {
		return plan{}, nil, s.fail(ctx, "GetStorageAccount", err)
	}

	p, err := s.contextPlan(ctx, req, model.IntentStorageAccount, []model.Resource{account})
	return p, usage, err
}

func (s *Storage) listAccounts(ctx context.Context, subscriptionID string) (_ []model.Resource, err error) {
	ctx, op := s.start(ctx, "ListStorageAccounts", subscriptionID)
	defer func() { s.finish(op, err) }()

	accounts, err := s.directory.List(ctx, subscriptionID)
	op.Metadata["count"] = len(accounts)
	return accounts, err
}

func (s *Storage) getAccount(ctx context.Context, subscriptionID, name string) (_ model.Resource, err error) {
	ctx, op := s.start(ctx, "GetStorageAccount", name)
	defer func() { s.finish(op, err) }()

	return s.directory.Get(ctx, subscriptionID, name)
}

func (s *Storage) recognizeEntities(ctx context.Context, req Request) (StorageEntities, *schema.TokenUsage, error) {
	c, err := s.gateway.Complete(ctx, model.CompletionRequest{
		Plugin:    s.plugin,
		Function:  prompts.FunctionEntityRecognition,
		Question:  req.Question,
		Arguments: s.arguments(req),
	})
	if err != nil {
		return StorageEntities{}, nil, s.fail(ctx, "EntityRecognition", err)
	}

	ents, perr := ParseStorageEntities(c.Text)
	if perr != nil {
		logx.Warn().Err(perr).Str("session", req.SessionKey).Msg("storage entities could not be extracted")
		ents = StorageEntities{}
	}
	return ents, &c.Usage, nil
}

func (s *Storage) contextPlan(ctx context.Context, req Request, sub model.Intent, records []model.Resource) (plan, error) {
	block, err := grounding.RenderResources(records)
	if err != nil {
		return plan{}, s.fail(ctx, "RenderResources", err)
	}
	args := s.arguments(req)
	args[grounding.ArgContext] = block
	return s.promptPlan(req, s.name, sub, string(sub), args), nil
}

var _ Router = (*Storage)(nil)
