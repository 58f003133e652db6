package repository

import (
	"context"

	"github.com/user/crawler-panel/internal/entity"
)

// CrawlerAPI is the contract of the remote crawler service the panel drives.
// Every method is a single round trip; nothing is retried or cached.
type CrawlerAPI interface {
	// GetStatus calls GET / and returns the service banner.
	GetStatus(ctx context.Context) (*entity.ServiceStatus, error)
	// GetPlatforms calls GET /platforms.
	GetPlatforms(ctx context.Context) (*entity.PlatformList, error)

	Search(ctx context.Context, req entity.SearchRequest) (*entity.APIResponse, error)
	SearchAsync(ctx context.Context, req entity.SearchRequest) (*entity.APIResponse, error)
	GetDetail(ctx context.Context, req entity.DetailRequest) (*entity.APIResponse, error)
	GetDetailAsync(ctx context.Context, req entity.DetailRequest) (*entity.APIResponse, error)
	GetCreator(ctx context.Context, req entity.CreatorRequest) (*entity.APIResponse, error)
	GetCreatorAsync(ctx context.Context, req entity.CreatorRequest) (*entity.APIResponse, error)

	// QuickSearch calls GET /search/{platform} with query parameters.
	QuickSearch(ctx context.Context, platform, keywords string, opts entity.QuickSearchOptions) (*entity.APIResponse, error)
}
