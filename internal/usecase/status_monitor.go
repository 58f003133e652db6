package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/user/crawler-panel/internal/entity"
	"github.com/user/crawler-panel/internal/repository"
	"github.com/user/crawler-panel/pkg/metrics"
)

const offlineFallbackMessage = "API 服务连接失败"

// StatusMonitor tracks whether the crawler API is reachable and which
// platforms it reports.
type StatusMonitor interface {
	// Refresh checks the API now and returns the new report. Concurrent
	// callers share one check.
	Refresh(ctx context.Context) entity.StatusReport
	// Snapshot returns the latest report without calling the API.
	Snapshot() entity.StatusReport
}

type statusMonitor struct {
	api   repository.CrawlerAPI
	group singleflight.Group
	now   func() time.Time

	mu     sync.RWMutex
	report entity.StatusReport
}

// NewStatusMonitor creates a monitor in the loading state.
func NewStatusMonitor(api repository.CrawlerAPI) StatusMonitor {
	return &statusMonitor{
		api: api,
		now: time.Now,
		report: entity.StatusReport{
			State:     entity.APIStateLoading,
			Platforms: []entity.Platform{},
		},
	}
}

func (m *statusMonitor) Snapshot() entity.StatusReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyReport(m.report)
}

func (m *statusMonitor) Refresh(ctx context.Context) entity.StatusReport {
	runCtx := context.WithoutCancel(ctx)
	v, _, _ := m.group.Do("status", func() (interface{}, error) {
		m.set(entity.StatusReport{State: entity.APIStateLoading, Platforms: []entity.Platform{}})
		report := m.check(runCtx)
		m.set(report)
		return report, nil
	})
	return copyReport(v.(entity.StatusReport))
}

func (m *statusMonitor) check(ctx context.Context) entity.StatusReport {
	offline := func(err error) entity.StatusReport {
		msg := err.Error()
		if msg == "" {
			msg = offlineFallbackMessage
		}
		slog.Warn("Crawler API is offline", "error", err)
		metrics.SetUpstreamOnline(false)
		return entity.StatusReport{
			State:     entity.APIStateOffline,
			Message:   msg,
			Platforms: []entity.Platform{},
			CheckedAt: m.now(),
		}
	}

	status, err := m.api.GetStatus(ctx)
	if err != nil {
		return offline(err)
	}
	list, err := m.api.GetPlatforms(ctx)
	if err != nil {
		return offline(err)
	}

	platforms := list.Platforms
	if platforms == nil {
		platforms = []entity.Platform{}
	}
	metrics.SetUpstreamOnline(true)
	slog.Debug("Crawler API is online", "version", status.Version, "platforms", len(platforms))
	return entity.StatusReport{
		State:     entity.APIStateOnline,
		Message:   status.Message,
		Version:   status.Version,
		Platforms: platforms,
		CheckedAt: m.now(),
	}
}

func (m *statusMonitor) set(r entity.StatusReport) {
	m.mu.Lock()
	m.report = r
	m.mu.Unlock()
}

func copyReport(r entity.StatusReport) entity.StatusReport {
	r.Platforms = append([]entity.Platform(nil), r.Platforms...)
	if r.Platforms == nil {
		r.Platforms = []entity.Platform{}
	}
	return r
}
