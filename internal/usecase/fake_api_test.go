package usecase

import (
	"context"
	"sync"

	"github.com/user/crawler-panel/internal/entity"
	"github.com/user/crawler-panel/internal/repository"
)

var _ repository.CrawlerAPI = (*fakeAPI)(nil)

// fakeAPI records which methods were called with which request bodies.
// When block is set, job calls signal started and wait for block to close.
type fakeAPI struct {
	mu     sync.Mutex
	calls  []string
	bodies []interface{}

	resp *entity.APIResponse
	err  error

	status       *entity.ServiceStatus
	statusErr    error
	platforms    *entity.PlatformList
	platformsErr error

	started chan struct{}
	block   chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		resp:   &entity.APIResponse{Status: entity.StatusSuccess, Message: "ok"},
		status: &entity.ServiceStatus{Message: "MediaCrawler API", Version: "1.0.0"},
		platforms: &entity.PlatformList{Platforms: []entity.Platform{
			{Platform: "xhs", Name: "小红书"},
			{Platform: "dy", Name: "抖音"},
		}},
	}
}

func (f *fakeAPI) record(name string, body interface{}) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.bodies = append(f.bodies, body)
	started, block := f.started, f.block
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
}

func (f *fakeAPI) job(name string, body interface{}) (*entity.APIResponse, error) {
	f.record(name, body)
	if f.err != nil {
		return nil, f.err
	}
	resp := *f.resp
	return &resp, nil
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) LastBody() interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bodies) == 0 {
		return nil
	}
	return f.bodies[len(f.bodies)-1]
}

func (f *fakeAPI) GetStatus(ctx context.Context) (*entity.ServiceStatus, error) {
	f.record("GetStatus", nil)
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakeAPI) GetPlatforms(ctx context.Context) (*entity.PlatformList, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "GetPlatforms")
	f.bodies = append(f.bodies, nil)
	f.mu.Unlock()
	if f.platformsErr != nil {
		return nil, f.platformsErr
	}
	return f.platforms, nil
}

func (f *fakeAPI) Search(ctx context.Context, req entity.SearchRequest) (*entity.APIResponse, error) {
	return f.job("Search", req)
}

func (f *fakeAPI) SearchAsync(ctx context.Context, req entity.SearchRequest) (*entity.APIResponse, error) {
	return f.job("SearchAsync", req)
}

func (f *fakeAPI) GetDetail(ctx context.Context, req entity.DetailRequest) (*entity.APIResponse, error) {
	return f.job("GetDetail", req)
}

func (f *fakeAPI) GetDetailAsync(ctx context.Context, req entity.DetailRequest) (*entity.APIResponse, error) {
	return f.job("GetDetailAsync", req)
}

func (f *fakeAPI) GetCreator(ctx context.Context, req entity.CreatorRequest) (*entity.APIResponse, error) {
	return f.job("GetCreator", req)
}

func (f *fakeAPI) GetCreatorAsync(ctx context.Context, req entity.CreatorRequest) (*entity.APIResponse, error) {
	return f.job("GetCreatorAsync", req)
}

func (f *fakeAPI) QuickSearch(ctx context.Context, platform, keywords string, opts entity.QuickSearchOptions) (*entity.APIResponse, error) {
	return f.job("QuickSearch", keywords)
}
