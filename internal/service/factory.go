package service

import (
	"retailassist.app/relay/internal/meta"
	"retailassist.app/relay/internal/queue"
	"retailassist.app/relay/internal/responder"
	"retailassist.app/relay/internal/store"
)

type ServicesConfig struct {
	Stores        store.Provider
	Generator     responder.Generator
	Sender        meta.Sender
	EventProducer queue.Producer // optional
	Automation    AutomationConfig
}

type Services struct {
	stores     store.Provider
	producer   queue.Producer
	automation AutomationService
}

func NewServices(cfg ServicesConfig) *Services {
	return &Services{
		stores:     cfg.Stores,
		producer:   cfg.EventProducer,
		automation: NewAutomationService(cfg.Stores, cfg.Generator, cfg.Sender, cfg.Automation),
	}
}

func (s *Services) Automation() AutomationService {
	return s.automation
}

func (s *Services) AutomationRules() AutomationRuleService {
	return NewAutomationRuleService(s.stores.Workspaces(), s.stores.Agents(), s.stores.AutomationRules())
}

func (s *Services) InboundEvents() InboundEventService {
	return NewInboundEventService(s.stores.Workspaces(), s.stores.InboundEvents(), s.automation, s.producer)
}
