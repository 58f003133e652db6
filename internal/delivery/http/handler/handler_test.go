package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/crawler-panel/internal/adapter/mediacrawler"
	"github.com/user/crawler-panel/internal/adapter/memory"
	"github.com/user/crawler-panel/internal/catalog"
	"github.com/user/crawler-panel/internal/delivery/http/handler"
	"github.com/user/crawler-panel/internal/delivery/http/middleware"
	"github.com/user/crawler-panel/internal/delivery/http/router"
	"github.com/user/crawler-panel/internal/delivery/http/view"
	"github.com/user/crawler-panel/internal/usecase"
)

type reply struct {
	status int
	body   string
}

type upstreamReq struct {
	method string
	path   string
	body   map[string]interface{}
}

// upstream is a fake crawler API answering from a path table.
type upstream struct {
	mu     sync.Mutex
	reqs   []upstreamReq
	routes map[string]reply
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]interface{}
	_ = json.Unmarshal(raw, &body)

	u.mu.Lock()
	u.reqs = append(u.reqs, upstreamReq{method: r.Method, path: r.URL.Path, body: body})
	rep, ok := u.routes[r.URL.Path]
	u.mu.Unlock()

	if !ok {
		rep = reply{status: http.StatusNotFound, body: `{"detail":"Not Found"}`}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	io.WriteString(w, rep.body)
}

func (u *upstream) requests() []upstreamReq {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]upstreamReq(nil), u.reqs...)
}

type panel struct {
	t        *testing.T
	srv      *httptest.Server
	client   *http.Client
	upstream *upstream
	upSrv    *httptest.Server
}

func newPanel(t *testing.T, routes map[string]reply) *panel {
	t.Helper()

	up := &upstream{routes: routes}
	upSrv := httptest.NewServer(up)
	t.Cleanup(upSrv.Close)

	api, err := mediacrawler.New(upSrv.URL)
	if err != nil {
		t.Fatalf("mediacrawler.New: %v", err)
	}
	cat := catalog.MustLoad()
	submitter := usecase.NewJobSubmitter(api, memory.NewPageStateRepo(), memory.NewInFlightRepo(), cat, usecase.SubmitterConfig{
		StateTTL:    time.Hour,
		InFlightTTL: time.Minute,
	})
	views, err := view.New()
	if err != nil {
		t.Fatalf("view.New: %v", err)
	}
	h := handler.NewHandler(submitter, usecase.NewStatusMonitor(api), cat, views, api.BaseURL())
	srv := httptest.NewServer(router.New(h, middleware.NewSessions("test-secret", time.Hour)))
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &panel{t: t, srv: srv, client: client, upstream: up, upSrv: upSrv}
}

func (p *panel) get(path string) (*http.Response, *goquery.Document) {
	p.t.Helper()
	resp, err := p.client.Get(p.srv.URL + path)
	if err != nil {
		p.t.Fatalf("GET %s: %v", path, err)
	}
	return resp, p.parse(resp)
}

func (p *panel) post(path string, form url.Values) (*http.Response, *goquery.Document) {
	p.t.Helper()
	resp, err := p.client.PostForm(p.srv.URL+path, form)
	if err != nil {
		p.t.Fatalf("POST %s: %v", path, err)
	}
	return resp, p.parse(resp)
}

func (p *panel) parse(resp *http.Response) *goquery.Document {
	p.t.Helper()
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		p.t.Fatalf("parse HTML: %v", err)
	}
	return doc
}

func text(doc *goquery.Document, sel string) string {
	return strings.TrimSpace(doc.Find(sel).Text())
}

func searchForm(keywords string) url.Values {
	return url.Values{
		"platform":         {"xhs"},
		"keywords":         {keywords},
		"start_page":       {"1"},
		"login_type":       {"qrcode"},
		"save_data_option": {"json"},
		"get_comment":      {"on"},
		"mode":             {"sync"},
	}
}

func TestHome_StartButtonNeedsBothSelections(t *testing.T) {
	p := newPanel(t, nil)

	resp, doc := p.get("/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if n := doc.Find("#platforms .tile").Length(); n != 7 {
		t.Fatalf("expected 7 platform cards, got %d", n)
	}
	if n := doc.Find("#features .tile").Length(); n != 3 {
		t.Fatalf("expected 3 feature cards, got %d", n)
	}
	start := doc.Find("#start")
	if _, disabled := start.Attr("disabled"); !disabled || strings.TrimSpace(start.Text()) != "请选择平台和功能" {
		t.Fatalf("start button should be disabled, got %q", start.Text())
	}
	if doc.Find("#selection").Length() != 0 {
		t.Fatalf("no selection summary expected")
	}

	_, doc = p.get("/?platform=xhs")
	if _, disabled := doc.Find("#start").Attr("disabled"); !disabled {
		t.Fatalf("start button should stay disabled with only a platform")
	}
	if got := text(doc, "#selection"); !strings.Contains(got, "小红书") {
		t.Fatalf("selection = %q", got)
	}

	_, doc = p.get("/?platform=xhs&feature=search")
	start = doc.Find("#start")
	if _, disabled := start.Attr("disabled"); disabled || strings.TrimSpace(start.Text()) != "开始爬取" {
		t.Fatalf("start button should be enabled, got %q", start.Text())
	}
	if got := text(doc, "#selection"); !strings.Contains(got, "小红书 + 搜索功能") {
		t.Fatalf("selection = %q", got)
	}
	if !doc.Find(`#platforms .tile.selected[data-platform="xhs"]`).Is("a") {
		t.Fatalf("selected platform card not highlighted")
	}
}

func TestStart_Redirects(t *testing.T) {
	p := newPanel(t, nil)

	resp, err := p.client.Get(p.srv.URL + "/start?platform=dy&feature=detail")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/detail?platform=dy" {
		t.Fatalf("redirect = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, err = p.client.Get(p.srv.URL + "/start?platform=dy&feature=comments")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("Location") != "/?platform=dy" {
		t.Fatalf("incomplete selection should go home, got %q", resp.Header.Get("Location"))
	}
}

func TestFormPage_Defaults(t *testing.T) {
	p := newPanel(t, nil)

	resp, doc := p.get("/search?platform=xhs")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := text(doc, "header p"); got != "在 小红书 平台搜索内容" {
		t.Fatalf("subtitle = %q", got)
	}
	if v, _ := doc.Find(`input[name="platform"]`).Attr("value"); v != "xhs" {
		t.Fatalf("platform = %q", v)
	}
	if v, _ := doc.Find("#login_type option[selected]").Attr("value"); v != "qrcode" {
		t.Fatalf("login type = %q", v)
	}
	if v, _ := doc.Find("#save_data_option option[selected]").Attr("value"); v != "json" {
		t.Fatalf("save option = %q", v)
	}
	if v, _ := doc.Find("#start_page").Attr("value"); v != "1" {
		t.Fatalf("start page = %q", v)
	}
	if _, ok := doc.Find(`input[name="get_comment"]`).Attr("checked"); !ok {
		t.Fatalf("get_comment should default to checked")
	}
	if _, ok := doc.Find(`input[name="get_sub_comment"]`).Attr("checked"); ok {
		t.Fatalf("get_sub_comment should default to unchecked")
	}
	if _, hidden := doc.Find("#cookie-field").Attr("hidden"); !hidden {
		t.Fatalf("cookie box should be hidden for qrcode login")
	}
	buttons := doc.Find(`button[name="mode"]`)
	if buttons.Length() != 2 {
		t.Fatalf("expected 2 submit buttons, got %d", buttons.Length())
	}
	buttons.Each(func(_ int, b *goquery.Selection) {
		if _, disabled := b.Attr("disabled"); disabled {
			t.Fatalf("idle page must not disable %q", b.Text())
		}
	})
	if got := strings.TrimSpace(buttons.Eq(0).Text()); got != "同步搜索" {
		t.Fatalf("sync button = %q", got)
	}
	if got := strings.TrimSpace(buttons.Eq(1).Text()); got != "异步搜索" {
		t.Fatalf("async button = %q", got)
	}
	if doc.Find("#result").Length() != 0 {
		t.Fatalf("no result expected before submitting")
	}

	_, doc = p.get("/detail?platform=weixin")
	if got := text(doc, "header p"); got != "获取 weixin 平台指定内容的详细信息" {
		t.Fatalf("unknown platform should show its ID, got %q", got)
	}
	if doc.Find(`textarea[name="note_ids"]`).Length() != 1 || doc.Find("#start_page").Length() != 0 {
		t.Fatalf("detail page should have a note_ids textarea and no start page")
	}
}

func TestSubmit_BlankKeywordsShowsNoticeWithoutCalling(t *testing.T) {
	p := newPanel(t, map[string]reply{"/search": {http.StatusOK, `{"status":"success","message":"ok"}`}})

	resp, doc := p.post("/search", searchForm("   "))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := text(doc, "#notice"); got != "请输入搜索关键词" {
		t.Fatalf("notice = %q", got)
	}
	if doc.Find("#result").Length() != 0 {
		t.Fatalf("no result expected")
	}
	if reqs := p.upstream.requests(); len(reqs) != 0 {
		t.Fatalf("expected no upstream calls, got %+v", reqs)
	}
}

func TestFormPage_ReloadDropsValidationNotice(t *testing.T) {
	p := newPanel(t, nil)

	_, doc := p.post("/search", searchForm(""))
	if doc.Find("#notice").Length() != 1 {
		t.Fatalf("submit response should carry the notice")
	}

	_, doc = p.get("/search?platform=xhs")
	if doc.Find("#notice").Length() != 0 {
		t.Fatalf("notice shown again on reload: %q", text(doc, "#notice"))
	}
}

func TestSubmit_AsyncStartedRendersPID(t *testing.T) {
	p := newPanel(t, map[string]reply{
		"/search/async": {http.StatusOK, `{"status":"started","message":"搜索任务已启动","command":"python main.py --platform xhs","pid":1234}`},
	})

	form := searchForm("编程副业")
	form.Set("mode", "async")
	resp, doc := p.post("/search", form)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := text(doc, "#result-status"); got != "🚀 已启动" {
		t.Fatalf("badge = %q", got)
	}
	if got := text(doc, "#result-pid p"); got != "1234" {
		t.Fatalf("pid = %q", got)
	}
	if got := text(doc, "#result-command pre"); got != "python main.py --platform xhs" {
		t.Fatalf("command = %q", got)
	}
	if doc.Find("#result-output").Length() != 0 || doc.Find("#result-error").Length() != 0 {
		t.Fatalf("output and error blocks must be absent")
	}

	reqs := p.upstream.requests()
	if len(reqs) != 1 || reqs[0].path != "/search/async" {
		t.Fatalf("upstream requests = %+v", reqs)
	}
	if reqs[0].body["keywords"] != "编程副业" || reqs[0].body["get_comment"] != true || reqs[0].body["get_sub_comment"] != false {
		t.Fatalf("unexpected body %v", reqs[0].body)
	}
}

func TestSubmit_SyncSuccessRendersOutput(t *testing.T) {
	p := newPanel(t, map[string]reply{
		"/detail": {http.StatusOK, `{"status":"success","message":"详情获取完成","output":"saved 2 notes"}`},
	})

	resp, doc := p.post("/detail", url.Values{
		"platform": {"xhs"},
		"note_ids": {"n1, n2"},
		"mode":     {"sync"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := text(doc, "#result-status"); got != "✅ 执行成功" {
		t.Fatalf("badge = %q", got)
	}
	if got := text(doc, "#result-output pre"); got != "saved 2 notes" {
		t.Fatalf("output = %q", got)
	}
	if doc.Find("#result-pid").Length() != 0 {
		t.Fatalf("pid block must be absent")
	}

	reqs := p.upstream.requests()
	if len(reqs) != 1 || reqs[0].path != "/detail" || reqs[0].body["note_ids"] != "n1,n2" {
		t.Fatalf("upstream requests = %+v", reqs)
	}
}

func TestSubmit_UpstreamDetailIsShownVerbatim(t *testing.T) {
	p := newPanel(t, map[string]reply{
		"/creator": {http.StatusBadRequest, `{"detail":"X"}`},
	})

	_, doc := p.post("/creator", url.Values{"platform": {"dy"}, "creator_ids": {"c1"}, "mode": {"sync"}})
	if got := text(doc, "#result-status"); got != "❌ 执行失败" {
		t.Fatalf("badge = %q", got)
	}
	if got := text(doc, "#result-message p"); got != "X" {
		t.Fatalf("message = %q", got)
	}
	if got := text(doc, "#result-error pre"); got != "X" {
		t.Fatalf("error = %q", got)
	}
}

func TestSubmit_UnparseableErrorUsesStatusCode(t *testing.T) {
	p := newPanel(t, map[string]reply{
		"/search": {http.StatusInternalServerError, `Internal Server Error`},
	})

	_, doc := p.post("/search", searchForm("k"))
	if got := text(doc, "#result-error pre"); got != "request failed with status 500" {
		t.Fatalf("error = %q", got)
	}
}

func TestSubmit_CookieBoxFollowsLoginType(t *testing.T) {
	p := newPanel(t, map[string]reply{"/search": {http.StatusOK, `{"status":"success","message":"ok"}`}})

	form := searchForm("k")
	form.Set("login_type", "cookie")
	form.Set("cookies", "web_session=abc")
	_, doc := p.post("/search", form)

	if _, hidden := doc.Find("#cookie-field").Attr("hidden"); hidden {
		t.Fatalf("cookie box should be visible for cookie login")
	}
	if got := doc.Find("#cookies").Text(); got != "web_session=abc" {
		t.Fatalf("cookie text = %q", got)
	}
	if got := p.upstream.requests()[0].body["cookies"]; got != "web_session=abc" {
		t.Fatalf("cookies sent = %v", got)
	}

	form.Set("login_type", "phone")
	_, doc = p.post("/search", form)
	if _, hidden := doc.Find("#cookie-field").Attr("hidden"); !hidden {
		t.Fatalf("cookie box should be hidden again")
	}
	if _, ok := p.upstream.requests()[1].body["cookies"]; ok {
		t.Fatalf("cookies must not be sent with phone login")
	}
}

func TestSubmit_ScriptModeFieldSelectsAsync(t *testing.T) {
	p := newPanel(t, map[string]reply{"/search/async": {http.StatusOK, `{"status":"started","message":"ok","pid":9}`}})

	form := searchForm("k")
	form["mode"] = []string{"async"}
	form.Add("mode", "")
	p.post("/search", form)

	if reqs := p.upstream.requests(); len(reqs) != 1 || reqs[0].path != "/search/async" {
		t.Fatalf("upstream requests = %+v", reqs)
	}
}

func TestFormPage_KeepsResultWithinSession(t *testing.T) {
	p := newPanel(t, map[string]reply{"/search/async": {http.StatusOK, `{"status":"started","message":"ok","pid":77}`}})

	form := searchForm("k")
	form.Set("mode", "async")
	p.post("/search", form)

	_, doc := p.get("/search?platform=xhs")
	if got := text(doc, "#result-pid p"); got != "77" {
		t.Fatalf("result should survive a reload, pid = %q", got)
	}
	if v, _ := doc.Find("#target").Attr("value"); v != "k" {
		t.Fatalf("keywords should survive a reload, got %q", v)
	}

	// A new browser has its own session.
	other := &http.Client{}
	resp, err := other.Get(p.srv.URL + "/search?platform=xhs")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if doc := p.parse(resp); doc.Find("#result").Length() != 0 {
		t.Fatalf("sessions must not share page state")
	}
}

func TestStatusPage_Online(t *testing.T) {
	p := newPanel(t, map[string]reply{
		"/":          {http.StatusOK, `{"message":"MediaCrawler API","version":"1.0.0"}`},
		"/platforms": {http.StatusOK, `{"platforms":[{"platform":"xhs","name":"小红书"},{"platform":"dy","name":"抖音"}]}`},
	})

	_, doc := p.get("/status")
	if got := text(doc, "#connection"); got != "✅ 连接正常" {
		t.Fatalf("connection = %q", got)
	}
	if got := text(doc, "#indicator-text"); got != "服务正常 (1.0.0)" {
		t.Fatalf("indicator = %q", got)
	}
	if got := text(doc, "#platform-count"); got != "支持的平台 (2)" {
		t.Fatalf("platform count = %q", got)
	}
	if n := doc.Find("#platform-list li").Length(); n != 2 {
		t.Fatalf("expected 2 platforms, got %d", n)
	}
	if got := text(doc, "#api-url"); got != p.upSrv.URL {
		t.Fatalf("api url = %q", got)
	}
}

func TestStatusPage_Offline(t *testing.T) {
	p := newPanel(t, map[string]reply{
		"/":          {http.StatusOK, `{"message":"MediaCrawler API","version":"1.0.0"}`},
		"/platforms": {http.StatusServiceUnavailable, `{"detail":"platform registry unavailable"}`},
	})

	_, doc := p.post("/status/refresh", url.Values{})
	if got := text(doc, "#connection"); got != "❌ 连接失败" {
		t.Fatalf("connection = %q", got)
	}
	if got := text(doc, "#status-message"); got != "platform registry unavailable" {
		t.Fatalf("message = %q", got)
	}
	if got := text(doc, "#platform-count"); got != "支持的平台 (0)" {
		t.Fatalf("platform count = %q", got)
	}
	if got := text(doc, "#platform-empty"); got != "无法获取平台信息" {
		t.Fatalf("empty text = %q", got)
	}
}

func TestAPIStatusAndHealth(t *testing.T) {
	p := newPanel(t, nil)

	resp, err := p.client.Get(p.srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var report map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report["status"] != "loading" {
		t.Fatalf("status before any check = %v", report["status"])
	}

	resp, err = p.client.Get(p.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", resp.StatusCode)
	}

	resp, _ = p.get("/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown page = %d", resp.StatusCode)
	}
}

func TestSession_CookieIssued(t *testing.T) {
	p := newPanel(t, nil)

	resp, _ := p.get("/")
	var found *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			found = c
		}
	}
	if found == nil || !found.HttpOnly {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", resp.Cookies())
	}
}
