// Package runtime implements the agent runtime: state composition, action
// dispatch, evaluation, and the identity bookkeeping around them. One
// AgentRuntime serves one agent; everything it needs arrives through
// Options at construction.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cipherwebllc/eliza/cache"
	"github.com/cipherwebllc/eliza/config"
	"github.com/cipherwebllc/eliza/core"
	"github.com/cipherwebllc/eliza/logging"
	"github.com/cipherwebllc/eliza/memory"
	"github.com/cipherwebllc/eliza/memory/embedder/mock"
	"github.com/cipherwebllc/eliza/model"
)

// Options configures an AgentRuntime. Database is the only required
// field; everything else has a workable default.
type Options struct {
	// Character defines the agent's identity. Nil uses DefaultCharacter.
	Character *core.Character

	// AgentID overrides the agent's identity. Zero falls back to the
	// character's ID, then to a UUID derived from the character's name.
	AgentID uuid.UUID

	// Database is the persistence adapter. Required.
	Database core.DatabaseAdapter

	// Cache overrides the agent-scoped cache. Nil uses an in-memory one.
	Cache *cache.Manager

	// Embedder produces memory embeddings. Nil uses the deterministic
	// mock embedder, which supports tests but not real retrieval.
	Embedder memory.Embedder

	// Generator produces completions. Nil builds one from Settings and
	// the character's model provider.
	Generator model.Generator

	// Settings is the process configuration, usually config.Load().
	Settings config.Settings

	// Logger overrides the default component logger.
	Logger *zerolog.Logger

	// ConversationLength overrides Settings.ConversationLength when
	// positive.
	ConversationLength int

	// Retry overrides the generation retry policy.
	Retry *model.RetryPolicy

	// Rand seeds sampling of bio, lore, topics, and examples. Nil uses
	// a time-seeded source.
	Rand *rand.Rand

	// Capabilities registered at construction, before any plugins from
	// the character.
	Actions    []core.Action
	Evaluators []core.Evaluator
	Providers  []core.Provider
	Services   []core.Service
	Managers   []core.MemoryManager
	Plugins    []core.Plugin
}

// AgentRuntime is the concrete core.Runtime. It is safe for concurrent
// use after Initialize; registration methods are meant for startup and
// are guarded but not designed for steady-state churn.
type AgentRuntime struct {
	agentID            uuid.UUID
	character          *core.Character
	conversationLength int
	settings           config.Resolved
	log                zerolog.Logger

	db        core.DatabaseAdapter
	cache     *cache.Manager
	embedder  memory.Embedder
	generator model.Generator
	retry     model.RetryPolicy
	knowledge *memory.Knowledge

	randMu sync.Mutex
	rng    *rand.Rand

	mu         sync.RWMutex
	actions    []core.Action
	evaluators []core.Evaluator
	providers  []core.Provider
	services   map[core.ServiceType]core.Service
	managers   map[string]core.MemoryManager
}

var _ core.Runtime = (*AgentRuntime)(nil)

// Built-in memory tables. Every runtime carries a manager for each.
const (
	tableMessages     = "messages"
	tableDescriptions = "descriptions"
	tableLore         = "lore"
	tableDocuments    = "documents"
	tableFragments    = "fragments"
)

// New constructs a runtime and bootstraps the agent's own identity
// records. It does not start services; call Initialize for that.
func New(ctx context.Context, opts Options) (*AgentRuntime, error) {
	if opts.Database == nil {
		return nil, errors.New("runtime: Database is required")
	}

	character := opts.Character
	if character == nil {
		character = DefaultCharacter()
	}

	agentID := opts.AgentID
	if agentID == uuid.Nil {
		agentID = character.ID
	}
	if agentID == uuid.Nil {
		agentID = core.StringToUUID(character.Name)
	}

	log := logging.New("runtime")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	log = log.With().Str("agent", character.Name).Logger()

	conversationLength := opts.ConversationLength
	if conversationLength <= 0 {
		conversationLength = opts.Settings.ConversationLength
	}
	if conversationLength <= 0 {
		conversationLength = 32
	}

	resolved := config.Resolve(opts.Settings, character.Settings.Values, character.Settings.Secrets)

	embedder := opts.Embedder
	if embedder == nil {
		log.Warn().Msg("no embedder configured, using deterministic mock")
		embedder = mock.New(opts.Settings.EmbeddingDimensions)
	}

	generator := opts.Generator
	if generator == nil {
		provider := character.ModelProvider
		if provider == "" {
			provider = opts.Settings.ModelProvider
		}
		var err error
		generator, err = model.New(provider, model.Config{
			APIKey:   opts.Settings.ModelAPIKey,
			Endpoint: opts.Settings.ModelEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("build generator for provider %q: %w", provider, err)
		}
	}

	cacheMgr := opts.Cache
	if cacheMgr == nil {
		cacheMgr = cache.NewManager(cache.NewMemoryAdapter(), agentID)
	}

	retry := model.DefaultRetryPolicy()
	if opts.Retry != nil {
		retry = *opts.Retry
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	rt := &AgentRuntime{
		agentID:            agentID,
		character:          character,
		conversationLength: conversationLength,
		settings:           resolved,
		log:                log,
		db:                 opts.Database,
		cache:              cacheMgr,
		embedder:           embedder,
		generator:          generator,
		retry:              retry,
		rng:                rng,
		services:           make(map[core.ServiceType]core.Service),
		managers:           make(map[string]core.MemoryManager),
	}

	for _, table := range []string{tableMessages, tableDescriptions, tableLore, tableDocuments, tableFragments} {
		rt.managers[table] = memory.NewManager(table, agentID, opts.Database, embedder, log, memory.WithCache(cacheMgr))
	}

	knowledgeCfg := memory.DefaultKnowledgeConfig()
	if opts.Settings.KnowledgeChunkSize > 0 {
		knowledgeCfg.ChunkSize = opts.Settings.KnowledgeChunkSize
		knowledgeCfg.ChunkBleed = opts.Settings.KnowledgeChunkBleed
	}
	rt.knowledge = memory.NewKnowledge(agentID, rt.managers[tableDocuments], rt.managers[tableFragments], embedder, knowledgeCfg, log)

	for _, plugin := range character.Plugins {
		rt.registerPlugin(plugin)
	}
	for _, plugin := range opts.Plugins {
		rt.registerPlugin(plugin)
	}
	for _, a := range opts.Actions {
		rt.RegisterAction(a)
	}
	for _, e := range opts.Evaluators {
		rt.RegisterEvaluator(e)
	}
	for _, p := range opts.Providers {
		rt.RegisterProvider(p)
	}
	for _, s := range opts.Services {
		rt.RegisterService(s)
	}
	for _, m := range opts.Managers {
		rt.RegisterMemoryManager(m)
	}

	// The agent participates in its own room. Knowledge fragments and
	// self-directed memories live there.
	if err := rt.ensureRoomExists(ctx, agentID); err != nil {
		return nil, err
	}
	if err := rt.ensureUserExists(ctx, agentID, character.Name, character.Username, ""); err != nil {
		return nil, err
	}
	if err := rt.ensureParticipantInRoom(ctx, agentID, agentID); err != nil {
		return nil, err
	}

	return rt, nil
}

// Initialize starts registered services in registration order and ingests
// the character's configured knowledge. Any failure is fatal.
func (rt *AgentRuntime) Initialize(ctx context.Context) error {
	rt.mu.RLock()
	services := make([]core.Service, 0, len(rt.services))
	for _, s := range rt.services {
		services = append(services, s)
	}
	rt.mu.RUnlock()

	for _, s := range services {
		if err := s.Initialize(ctx, rt); err != nil {
			return fmt.Errorf("initialize service %s: %w", s.Type(), err)
		}
	}

	if err := rt.processCharacterKnowledge(ctx, rt.character.Knowledge); err != nil {
		return fmt.Errorf("process character knowledge: %w", err)
	}
	return nil
}

func (rt *AgentRuntime) AgentID() uuid.UUID          { return rt.agentID }
func (rt *AgentRuntime) Character() *core.Character  { return rt.character }
func (rt *AgentRuntime) ConversationLength() int     { return rt.conversationLength }
func (rt *AgentRuntime) Logger() zerolog.Logger      { return rt.log }
func (rt *AgentRuntime) Database() core.DatabaseAdapter { return rt.db }

// Cache returns the agent-scoped cache manager.
func (rt *AgentRuntime) Cache() *cache.Manager { return rt.cache }

// Generator returns the configured text generator.
func (rt *AgentRuntime) Generator() model.Generator { return rt.generator }

// Retry returns the generation retry policy.
func (rt *AgentRuntime) Retry() model.RetryPolicy { return rt.retry }

// Knowledge returns the knowledge subsystem.
func (rt *AgentRuntime) Knowledge() *memory.Knowledge { return rt.knowledge }

// GetSetting resolves a configuration key. Character secrets win over
// character settings, which win over process extras; the precedence was
// folded once at construction.
func (rt *AgentRuntime) GetSetting(key string) string {
	return rt.settings.Get(key)
}

func (rt *AgentRuntime) MessageManager() core.MemoryManager     { return rt.GetMemoryManager(tableMessages) }
func (rt *AgentRuntime) DescriptionManager() core.MemoryManager { return rt.GetMemoryManager(tableDescriptions) }
func (rt *AgentRuntime) LoreManager() core.MemoryManager        { return rt.GetMemoryManager(tableLore) }
func (rt *AgentRuntime) DocumentsManager() core.MemoryManager   { return rt.GetMemoryManager(tableDocuments) }
func (rt *AgentRuntime) FragmentsManager() core.MemoryManager   { return rt.GetMemoryManager(tableFragments) }

// GetMemoryManager returns the manager for a table, or nil.
func (rt *AgentRuntime) GetMemoryManager(table string) core.MemoryManager {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.managers[table]
}

// GetService returns the registered service of the given type, or nil.
func (rt *AgentRuntime) GetService(t core.ServiceType) core.Service {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.services[t]
}

func (rt *AgentRuntime) registerPlugin(plugin core.Plugin) {
	rt.log.Debug().Str("plugin", plugin.Name).Msg("registering plugin")
	for _, a := range plugin.Actions {
		rt.RegisterAction(a)
	}
	for _, e := range plugin.Evaluators {
		rt.RegisterEvaluator(e)
	}
	for _, p := range plugin.Providers {
		rt.RegisterProvider(p)
	}
	for _, s := range plugin.Services {
		rt.RegisterService(s)
	}
}

// RegisterAction adds an action. Order is preserved; it determines both
// advertisement order and resolution precedence.
func (rt *AgentRuntime) RegisterAction(action core.Action) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.actions = append(rt.actions, action)
}

// RegisterEvaluator adds an evaluator in registration order.
func (rt *AgentRuntime) RegisterEvaluator(evaluator core.Evaluator) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.evaluators = append(rt.evaluators, evaluator)
}

// RegisterProvider adds a state provider in registration order.
func (rt *AgentRuntime) RegisterProvider(provider core.Provider) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.providers = append(rt.providers, provider)
}

// RegisterService adds a service. A second service of the same type is
// skipped with a warning; the first registration wins.
func (rt *AgentRuntime) RegisterService(service core.Service) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, exists := rt.services[service.Type()]; exists {
		rt.log.Warn().Str("service", string(service.Type())).Msg("service already registered, skipping")
		return
	}
	rt.services[service.Type()] = service
}

// RegisterMemoryManager adds a table-scoped manager. A manager for an
// already-claimed table is skipped with a warning; the first wins.
func (rt *AgentRuntime) RegisterMemoryManager(manager core.MemoryManager) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, exists := rt.managers[manager.TableName()]; exists {
		rt.log.Warn().Str("table", manager.TableName()).Msg("memory manager already registered, skipping")
		return
	}
	rt.managers[manager.TableName()] = manager
}

// EnsureConnection makes sure the accounts, room, and memberships behind a
// conversation exist. It is idempotent and safe to call on every message.
func (rt *AgentRuntime) EnsureConnection(ctx context.Context, userID, roomID uuid.UUID, userName, userScreenName, source string) error {
	if userName == "" {
		userName = "User" + userID.String()[:8]
	}
	if userScreenName == "" {
		userScreenName = userName
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.ensureUserExists(gctx, userID, userName, userScreenName, source)
	})
	g.Go(func() error {
		return rt.ensureUserExists(gctx, rt.agentID, rt.character.Name, rt.character.Username, source)
	})
	g.Go(func() error {
		return rt.ensureRoomExists(gctx, roomID)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.ensureParticipantInRoom(gctx, userID, roomID)
	})
	g.Go(func() error {
		return rt.ensureParticipantInRoom(gctx, rt.agentID, roomID)
	})
	return g.Wait()
}

func (rt *AgentRuntime) ensureUserExists(ctx context.Context, userID uuid.UUID, name, username, source string) error {
	_, err := rt.db.GetAccountByID(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("look up account: %w", err)
	}
	if username == "" {
		username = strings.ToLower(strings.ReplaceAll(name, " ", ""))
	}
	account := core.Account{ID: userID, Name: name, Username: username}
	if err := rt.db.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	rt.log.Debug().Stringer("user_id", userID).Str("source", source).Msg("created account")
	return nil
}

func (rt *AgentRuntime) ensureRoomExists(ctx context.Context, roomID uuid.UUID) error {
	_, err := rt.db.GetRoom(ctx, roomID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("look up room: %w", err)
	}
	if err := rt.db.CreateRoom(ctx, roomID); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	rt.log.Debug().Stringer("room_id", roomID).Msg("created room")
	return nil
}

func (rt *AgentRuntime) ensureParticipantInRoom(ctx context.Context, userID, roomID uuid.UUID) error {
	participants, err := rt.db.GetParticipantsForRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("list room participants: %w", err)
	}
	for _, p := range participants {
		if p == userID {
			return nil
		}
	}
	if err := rt.db.AddParticipant(ctx, userID, roomID); err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	rt.log.Debug().Stringer("user_id", userID).Stringer("room_id", roomID).Msg("added participant")
	return nil
}

// processCharacterKnowledge ingests the character's configured knowledge
// strings. Each string gets a deterministic ID, so restarts skip items
// that are already stored.
func (rt *AgentRuntime) processCharacterKnowledge(ctx context.Context, items []string) error {
	documents := rt.DocumentsManager()
	for _, item := range items {
		id := core.StringToUUID(item)
		_, err := documents.GetMemoryByID(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("look up knowledge document: %w", err)
		}
		rt.log.Info().Str("preview", preview(item, 50)).Msg("ingesting knowledge")
		err = rt.knowledge.Set(ctx, core.KnowledgeItem{
			ID:      id,
			Content: core.Content{Text: item},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// withRand runs f with the runtime's seeded source. Sampling helpers in
// the format package take a bare *rand.Rand, which is not safe for
// concurrent use, so every draw goes through here.
func (rt *AgentRuntime) withRand(f func(rng *rand.Rand)) {
	rt.randMu.Lock()
	defer rt.randMu.Unlock()
	f(rt.rng)
}
