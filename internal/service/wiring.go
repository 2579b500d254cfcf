package service

import (
	"time"

	"docassembly-workers/internal/assembly"
	"docassembly-workers/internal/common/config"
	"docassembly-workers/internal/common/database"
	"docassembly-workers/internal/common/logger"
	"docassembly-workers/internal/engine"
	"docassembly-workers/internal/templatestore"
)

// NewFromConfig wires the REST engine client and the template store from
// cfg. cache may be nil.
func NewFromConfig(cfg *config.Config, cache *database.RedisClient, log logger.Logger) *Service {
	client := engine.NewRESTClient(engine.RESTConfig{
		BaseURL:      cfg.Engine.BaseURL,
		SubscriberID: cfg.Engine.SubscriberID,
		SigningKey:   cfg.Engine.SigningKey,
		Timeout:      time.Duration(cfg.Engine.Timeout) * time.Millisecond,
	}, nil)

	opts := Options{
		BillingRef: cfg.Engine.BillingRef,
		InterviewDefaults: assembly.Settings{
			InterviewImageURL:   cfg.Interview.ImageURL,
			InterviewRuntimeURL: cfg.Interview.RuntimeURL,
			StylesheetURL:       cfg.Interview.StylesheetURL,
		},
	}
	if cache != nil {
		opts.Cache = cache
		opts.CacheTTL = cfg.Cache.ComponentInfoTTLDuration()
	}

	return New(templatestore.New(cfg.TemplateStore.BasePath), client, log, opts)
}

func (s *Service) Store() *templatestore.Store {
	return s.store
}
