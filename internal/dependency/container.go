// Package dependency wires the core services with dig. Callers use the
// typed getters and never import dig themselves.
package dependency

import (
	"go.uber.org/dig"

	"github.com/referralgraph/referralgraph/internal/agent"
	"github.com/referralgraph/referralgraph/internal/config"
	"github.com/referralgraph/referralgraph/internal/export"
	"github.com/referralgraph/referralgraph/internal/gremlin"
	"github.com/referralgraph/referralgraph/internal/providers"
	"github.com/referralgraph/referralgraph/internal/registry"
	"github.com/referralgraph/referralgraph/internal/schema"
	"github.com/referralgraph/referralgraph/internal/server"

	// Domain modules register themselves with the registry.
	_ "github.com/referralgraph/referralgraph/internal/domains/qualityimprovement"
	_ "github.com/referralgraph/referralgraph/internal/domains/referralnetwork"
)

// ServiceContainer holds the resolved service singletons.
type ServiceContainer struct {
	store    schema.GraphStore
	registry *registry.Registry
	provider schema.LLMProvider
	agent    *agent.Agent
	server   *server.Server
	exporter *export.Exporter
}

func (c *ServiceContainer) GraphStore() schema.GraphStore { return c.store }
func (c *ServiceContainer) Registry() *registry.Registry { return c.registry }
func (c *ServiceContainer) Provider() schema.LLMProvider { return c.provider }
func (c *ServiceContainer) Agent() *agent.Agent { return c.agent }
func (c *ServiceContainer) Server() *server.Server { return c.server }
func (c *ServiceContainer) Exporter() *export.Exporter { return c.exporter }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*ServiceContainer, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(newGraphStore); err != nil {
		return nil, err
	}
	if err := d.Provide(newRegistry); err != nil {
		return nil, err
	}
	if err := d.Provide(newProvider); err != nil {
		return nil, err
	}
	if err := d.Provide(newAgent); err != nil {
		return nil, err
	}
	if err := d.Provide(newServer); err != nil {
		return nil, err
	}
	if err := d.Provide(newExporter); err != nil {
		return nil, err
	}

	var result *ServiceContainer
	err := d.Invoke(func(
		store schema.GraphStore,
		reg *registry.Registry,
		provider schema.LLMProvider,
		ag *agent.Agent,
		srv *server.Server,
		exp *export.Exporter,
	) {
		result = &ServiceContainer{
			store:    store,
			registry: reg,
			provider: provider,
			agent:    ag,
			server:   srv,
			exporter: exp,
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func newGraphStore(cfg *config.Config) schema.GraphStore {
	return gremlin.NewClient(gremlin.Config{
		AccountName: cfg.Cosmos.AccountName,
		PrimaryKey:  cfg.Cosmos.PrimaryKey,
		Database:    cfg.Cosmos.Database,
		Graph:       cfg.Cosmos.Graph,
		Endpoint:    cfg.Cosmos.Endpoint,
	})
}

func newRegistry(cfg *config.Config, store schema.GraphStore) (*registry.Registry, error) {
	return registry.New(cfg.DomainsPath, registry.WithGraphStore(store))
}

func newProvider(cfg *config.Config) schema.LLMProvider {
	return providers.NewOpenAIProvider(providers.ProviderOptions{
		APIKey:       cfg.OpenAI.APIKey,
		APIBase:      cfg.OpenAI.Endpoint,
		Deployment:   cfg.OpenAI.Deployment,
		APIVersion:   cfg.OpenAI.APIVersion,
		DefaultModel: cfg.OpenAI.Model,
	})
}

func newAgent(cfg *config.Config, provider schema.LLMProvider, reg *registry.Registry) *agent.Agent {
	return agent.New(provider, reg, agent.Settings{
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.Agent.MaxTokens,
		Temperature: cfg.Agent.Temperature,
		MaxIter:     cfg.Agent.MaxToolIter,
	})
}

func newServer(reg *registry.Registry) *server.Server {
	return server.New(reg)
}

func newExporter(cfg *config.Config, store schema.GraphStore) *export.Exporter {
	return export.New(store, cfg.Export.OutputDir)
}
