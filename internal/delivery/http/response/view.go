package response

import (
	"fmt"

	"github.com/user/crawler-panel/internal/catalog"
	"github.com/user/crawler-panel/internal/entity"
)

// HomeView is the landing page: platform and feature cards plus the start
// button, which is only enabled once both are chosen.
type HomeView struct {
	Platforms        []catalog.Platform
	Features         []catalog.Feature
	SelectedPlatform string
	SelectedFeature  entity.Operation
	PlatformName     string
	FeatureName      string
}

// Ready reports whether the start button can be used.
func (v HomeView) Ready() bool {
	return v.PlatformName != "" && v.FeatureName != ""
}

// FormView is a search, detail or creator page.
type FormView struct {
	Feature      catalog.Feature
	PlatformName string
	State        *entity.PageState
	LoginTypes   []catalog.Option
	SaveOptions  []catalog.Option
	TargetField  string
	Result       *ResultView
	Notice       string
}

func (v FormView) Subtitle() string {
	return fmt.Sprintf(v.Feature.Form.Subtitle, v.PlatformName)
}

func (v FormView) Action() string {
	return "/" + string(v.Feature.ID)
}

// SyncButton is the label of the sync submit button.
func (v FormView) SyncButton() string {
	if v.State.Loading && !v.State.IsAsync {
		return v.Feature.Form.SyncBusy
	}
	return v.Feature.Form.SyncLabel
}

// AsyncButton is the label of the async submit button.
func (v FormView) AsyncButton() string {
	if v.State.Loading && v.State.IsAsync {
		return v.Feature.Form.AsyncBusy
	}
	return v.Feature.Form.AsyncLabel
}

// ResultView is an API response decorated for the result card.
type ResultView struct {
	Badge   string
	Class   string
	Message string
	PID     int
	Command string
	Output  string
	Error   string
}

// NewResultView returns nil for a nil response.
func NewResultView(resp *entity.APIResponse) *ResultView {
	if resp == nil {
		return nil
	}
	v := &ResultView{
		Message: resp.Message,
		PID:     resp.PID,
		Command: resp.Command,
		Output:  resp.Output,
		Error:   resp.Error,
	}
	switch resp.Status {
	case entity.StatusSuccess:
		v.Badge, v.Class = "✅ 执行成功", "success"
	case entity.StatusStarted:
		v.Badge, v.Class = "🚀 已启动", "started"
	default:
		v.Badge, v.Class = "❌ 执行失败", "error"
	}
	return v
}

// StatusView is the status page.
type StatusView struct {
	APIURL string
	Report entity.StatusReport
}

func (v StatusView) Loading() bool { return v.Report.State == entity.APIStateLoading }
func (v StatusView) Online() bool  { return v.Report.State == entity.APIStateOnline }
func (v StatusView) Offline() bool { return v.Report.State == entity.APIStateOffline }

// Indicator is the one-line state next to the coloured dot.
func (v StatusView) Indicator() string {
	switch v.Report.State {
	case entity.APIStateOnline:
		return fmt.Sprintf("服务正常 (%s)", v.Report.Version)
	case entity.APIStateOffline:
		return "服务离线"
	default:
		return "检测中..."
	}
}

// Connection is the label of the connection info block.
func (v StatusView) Connection() string {
	switch v.Report.State {
	case entity.APIStateOnline:
		return "✅ 连接正常"
	case entity.APIStateOffline:
		return "❌ 连接失败"
	default:
		return "⏳ 检测中"
	}
}

// EmptyPlatforms is shown when no platform is listed.
func (v StatusView) EmptyPlatforms() string {
	if v.Offline() {
		return "无法获取平台信息"
	}
	return "暂无平台信息"
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorView is the page shown for unknown routes and internal failures.
type ErrorView struct {
	Code    int
	Message string
}
