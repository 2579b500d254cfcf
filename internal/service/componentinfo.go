package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"docassembly-workers/internal/assembly"
	"docassembly-workers/internal/common/database"
	"docassembly-workers/internal/common/logger"
	"docassembly-workers/internal/common/metrics"
	"docassembly-workers/internal/engine"
)

// GetComponentInfo returns a template's variables and, optionally, dialogs.
// Results are cached when a cache is configured; cache failures only cost
// an engine call.
func (s *Service) GetComponentInfo(ctx context.Context, logRef string, tmpl assembly.Template, includeDialogs bool) (*engine.ComponentInfo, error) {
	if err := requireCall(OpGetComponentInfo, logRef, &tmpl, nil); err != nil {
		return nil, err
	}
	log := logger.ForCall(s.log, logRef, OpGetComponentInfo)

	templateID, err := s.resolve(tmpl)
	if err != nil {
		return nil, err
	}

	cacheKey := ""
	if s.cachingEnabled() {
		cacheKey = s.opts.Cache.Key("componentinfo", templateID, strconv.FormatBool(includeDialogs))
		if info, ok := s.cachedComponentInfo(ctx, log, cacheKey); ok {
			return info, nil
		}
	}

	start := time.Now()
	info, err := engine.Call(ctx, s.engine, log, OpGetComponentInfo, func(sess engine.Session) (*engine.ComponentInfo, error) {
		return sess.GetComponentInfo(templateID, includeDialogs)
	})
	observe(OpGetComponentInfo, start, err)
	if err != nil {
		log.Error("engine component info failed", map[string]interface{}{"templateId": templateID, "error": err})
		return nil, err
	}

	if cacheKey != "" {
		if err := s.opts.Cache.SetJSON(ctx, cacheKey, info, s.opts.CacheTTL); err != nil {
			log.Warn("failed to cache component info", map[string]interface{}{"key": cacheKey, "error": err})
		}
	}
	return info, nil
}

func (s *Service) cachingEnabled() bool {
	return s.opts.Cache != nil && s.opts.CacheTTL > 0
}

func (s *Service) cachedComponentInfo(ctx context.Context, log logger.Logger, key string) (*engine.ComponentInfo, bool) {
	var info engine.ComponentInfo
	err := s.opts.Cache.GetJSON(ctx, key, &info)
	switch {
	case err == nil:
		metrics.ComponentInfoCache.WithLabelValues("hit").Inc()
		log.Debug("component info cache hit", map[string]interface{}{"key": key})
		return &info, true
	case errors.Is(err, database.ErrCacheMiss):
		metrics.ComponentInfoCache.WithLabelValues("miss").Inc()
	default:
		metrics.ComponentInfoCache.WithLabelValues("error").Inc()
		log.Warn("component info cache read failed", map[string]interface{}{"key": key, "error": err})
	}
	return nil, false
}
