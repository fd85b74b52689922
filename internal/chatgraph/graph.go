package chatgraph

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"github.com/oracle/ai-optimizer-server/internal/clientsettings"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/internal/promptstore"
)

// maxToolIterations bounds the tool_branch re-entry loop (§4.1 step 7);
// the specification does not name an explicit limit, but an unbounded loop
// would let a misbehaving model or tool starve a request indefinitely.
const maxToolIterations = 8

// Graph is the Chat Orchestration Graph, bound to the process-wide stores
// it reads from and the per-request collaborators a caller supplies.
type Graph struct {
	Clients                *clientsettings.Store
	Prompts                *promptstore.Store
	Models                 ModelResolver
	Retriever              Retriever
	Discoverer             Discoverer
	EnabledEmbeddingModels map[string]bool
	Log                    logr.Logger

	mu          sync.Mutex
	clientLocks map[string]*sync.Mutex
	states      map[string]*model.ChatGraphState
}

// New builds a Graph. Tools enabled per client are supplied by the caller
// in RunOptions.Tools on each Run (tool sets can differ per request scope, e.g.
// SelectAI needing a freshly resolved database profile).
func New(clients *clientsettings.Store, prompts *promptstore.Store, models ModelResolver, retriever Retriever, discoverer Discoverer, log logr.Logger) *Graph {
	return &Graph{
		Clients:     clients,
		Prompts:     prompts,
		Models:      models,
		Retriever:   retriever,
		Discoverer:  discoverer,
		Log:         log,
		clientLocks: make(map[string]*sync.Mutex),
		states:      make(map[string]*model.ChatGraphState),
	}
}

func (g *Graph) lockFor(clientID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.clientLocks[clientID]
	if !ok {
		l = &sync.Mutex{}
		g.clientLocks[clientID] = l
	}
	return l
}

// loadState resolves the active ChatGraphState for a turn. Per §3's
// invariant, state persists between turns only when history is enabled;
// otherwise each turn starts from a clean slate carrying only the new
// message(s).
func (g *Graph) loadState(clientID string, settings model.ClientSettings, newMessages []model.ChatMessage) *model.ChatGraphState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !settings.LanguageModel.History {
		return &model.ChatGraphState{ClientID: clientID, Messages: newMessages}
	}

	st, ok := g.states[clientID]
	if !ok {
		st = &model.ChatGraphState{ClientID: clientID}
	}
	st.Messages = append(st.Messages, newMessages...)
	return st
}

func (g *Graph) saveState(clientID string, st *model.ChatGraphState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states[clientID] = st
}

func (g *Graph) dropState(clientID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.states, clientID)
}

// History returns the persisted message thread for a client, empty when
// history is disabled for that client or no turn has run yet (§6
// "GET /v1/chat/history").
func (g *Graph) History(clientID string) ([]model.ChatMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.states[clientID]
	if !ok {
		return nil, nil
	}
	return st.Messages, nil
}

// DropHistory discards the persisted thread for a client (§6
// "DELETE /v1/chat/history").
func (g *Graph) DropHistory(clientID string) {
	g.dropState(clientID)
}

// runContext carries one turn's working state between node functions.
type runContext struct {
	settings   model.ClientSettings
	state      *model.ChatGraphState
	sink       Sink
	chatModel  ChatModel
	tools      []Tool
	toolByName map[string]Tool
	toolIter   int
	lastResult CompletionResult
}

type nodeFunc func(ctx context.Context, g *Graph, rc *runContext) (nodeFunc, error)

// RunOptions carries per-request collaborators that vary by client (which
// tools are actually wired, since SelectAI needs a resolved database
// profile that only the caller can supply).
type RunOptions struct {
	Tools []Tool
}

// Run drives one chat turn through the full state machine, writing token
// deltas to sink (a nopSink for unary calls) and returning the final
// completion envelope (§4.1 "Responsibility").
func (g *Graph) Run(ctx context.Context, clientID string, newMessages []model.ChatMessage, sink Sink, opts RunOptions) (model.FinalResponse, error) {
	lock := g.lockFor(clientID)
	lock.Lock()
	defer lock.Unlock()

	if sink == nil {
		sink = nopSink{}
	}

	settings := g.Clients.Get(clientID)
	state := g.loadState(clientID, settings, newMessages)

	toolByName := make(map[string]Tool, len(opts.Tools))
	for _, t := range opts.Tools {
		toolByName[t.Name()] = t
	}

	rc := &runContext{
		settings:   settings,
		state:      state,
		sink:       sink,
		tools:      opts.Tools,
		toolByName: toolByName,
	}

	var next nodeFunc = nodeInitialise
	var err error
	for next != nil {
		next, err = next(ctx, g, rc)
		if err != nil {
			return model.FinalResponse{}, err
		}
	}

	if settings.LanguageModel.History {
		g.saveState(clientID, rc.state)
	} else {
		g.dropState(clientID)
	}

	return rc.state.FinalResponse, nil
}
