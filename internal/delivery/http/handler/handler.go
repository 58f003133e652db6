package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/user/crawler-panel/internal/catalog"
	"github.com/user/crawler-panel/internal/delivery/http/middleware"
	"github.com/user/crawler-panel/internal/delivery/http/request"
	"github.com/user/crawler-panel/internal/delivery/http/response"
	"github.com/user/crawler-panel/internal/delivery/http/view"
	"github.com/user/crawler-panel/internal/entity"
	"github.com/user/crawler-panel/internal/usecase"
	"github.com/user/crawler-panel/pkg/jsonutil"
)

type Handler struct {
	submitter usecase.JobSubmitter
	monitor   usecase.StatusMonitor
	catalog   *catalog.Catalog
	views     *view.Renderer
	apiURL    string
}

func NewHandler(
	submitter usecase.JobSubmitter,
	monitor usecase.StatusMonitor,
	cat *catalog.Catalog,
	views *view.Renderer,
	apiURL string,
) *Handler {
	return &Handler{
		submitter: submitter,
		monitor:   monitor,
		catalog:   cat,
		views:     views,
		apiURL:    apiURL,
	}
}

// HandleHome renders the landing page. ?platform= and ?feature= carry the
// current selection; unknown values are ignored.
func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	v := response.HomeView{
		Platforms: h.catalog.Platforms,
		Features:  h.catalog.Features,
	}
	if p, ok := h.catalog.Platform(r.URL.Query().Get("platform")); ok {
		v.SelectedPlatform = p.ID
		v.PlatformName = p.Name
	}
	if f, ok := h.catalog.Feature(entity.Operation(r.URL.Query().Get("feature"))); ok {
		v.SelectedFeature = f.ID
		v.FeatureName = f.Name
	}
	h.render(w, http.StatusOK, view.PageHome, v)
}

// HandleStart sends a complete selection to its form page and anything
// else back to the landing page.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")
	op := entity.Operation(r.URL.Query().Get("feature"))

	_, platformOK := h.catalog.Platform(platform)
	_, featureOK := h.catalog.Feature(op)
	if !platformOK || !featureOK {
		q := url.Values{}
		if platformOK {
			q.Set("platform", platform)
		}
		if featureOK {
			q.Set("feature", string(op))
		}
		target := "/"
		if len(q) > 0 {
			target += "?" + q.Encode()
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/"+string(op)+"?platform="+url.QueryEscape(platform), http.StatusSeeOther)
}

// HandleForm renders the form page of op.
func (h *Handler) HandleForm(op entity.Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := middleware.SessionID(r.Context())
		state, err := h.submitter.Open(r.Context(), sid, op, r.URL.Query().Get("platform"))
		if err != nil {
			slog.Error("Failed to open form page", "operation", op, "error", err)
			h.renderError(w, http.StatusInternalServerError, "页面加载失败，请稍后重试")
			return
		}
		h.render(w, http.StatusOK, view.PageForm, h.formView(op, state))
	}
}

// HandleSubmit validates and relays a form submission, then renders the
// page with its result.
func (h *Handler) HandleSubmit(op entity.Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := request.ParseSubmitForm(r, op)
		if err != nil {
			h.renderError(w, http.StatusBadRequest, "无效的表单数据")
			return
		}

		sid := middleware.SessionID(r.Context())
		state, err := h.submitter.Submit(r.Context(), sid, op, in.Form, in.Async)

		status := http.StatusOK
		switch {
		case err == nil:
		case errors.Is(err, usecase.ErrValidation):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, usecase.ErrBusy):
			status = http.StatusConflict
		default:
			slog.Error("Failed to submit crawl job", "operation", op, "error", err)
			status = http.StatusServiceUnavailable
		}
		if state == nil {
			h.renderError(w, http.StatusInternalServerError, "提交失败，请稍后重试")
			return
		}
		h.render(w, status, view.PageForm, h.formView(op, state))
	}
}

func (h *Handler) formView(op entity.Operation, state *entity.PageState) response.FormView {
	feature, _ := h.catalog.Feature(op)
	return response.FormView{
		Feature:      feature,
		PlatformName: h.catalog.PlatformName(state.Form.Platform),
		State:        state,
		LoginTypes:   h.catalog.LoginTypes,
		SaveOptions:  h.catalog.SaveOptions,
		TargetField:  op.TargetField(),
		Result:       response.NewResultView(state.Result),
		Notice:       state.Notice,
	}
}

// HandleStatusPage checks the crawler API and renders the monitor.
func (h *Handler) HandleStatusPage(w http.ResponseWriter, r *http.Request) {
	report := h.monitor.Refresh(r.Context())
	h.render(w, http.StatusOK, view.PageStatus, response.StatusView{APIURL: h.apiURL, Report: report})
}

// HandleStatusRefresh is the refresh button of the status page.
func (h *Handler) HandleStatusRefresh(w http.ResponseWriter, r *http.Request) {
	h.HandleStatusPage(w, r)
}

// HandleStatusJSON returns the latest report without a new check.
func (h *Handler) HandleStatusJSON(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.monitor.Snapshot())
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}

func (h *Handler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		h.writeJSONError(w, "Not found", http.StatusNotFound)
		return
	}
	h.renderError(w, http.StatusNotFound, "页面不存在")
}

func (h *Handler) render(w http.ResponseWriter, status int, page string, data interface{}) {
	var buf bytes.Buffer
	if err := h.views.Render(&buf, page, data); err != nil {
		slog.Error("Failed to render page", "page", page, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write page", "page", page, "error", err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, status int, message string) {
	h.render(w, status, view.PageError, response.ErrorView{Code: status, Message: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := jsonutil.Marshal(data)
	if err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
