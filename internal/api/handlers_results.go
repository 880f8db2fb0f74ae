// handlers_results.go - Result view and history handlers
package api

import (
	"net/http"
	"strings"

	"github.com/journal-ai/uploader/internal/models"
	"github.com/journal-ai/uploader/internal/results"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEApplicationMsgpack is the content type of msgpack responses.
const MIMEApplicationMsgpack = "application/msgpack"

// ResultsHandlerImpl implements the ResultsHandler interface
type ResultsHandlerImpl struct {
	uploader Uploader
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(uploader Uploader) ResultsHandler {
	return &ResultsHandlerImpl{uploader: uploader}
}

// HandleGetResults returns the views of the latest successful submission.
// ?tab= switches the active tab first; ?format= renders only the active view.
func (h *ResultsHandlerImpl) HandleGetResults(c echo.Context) error {
	p := h.uploader.Results()
	if p == nil {
		return errNoResults()
	}

	if name := c.QueryParam("tab"); name != "" {
		tab, err := results.ParseTab(name)
		if err != nil {
			return NewBadRequestError("invalid tab", err)
		}
		if err := p.Select(tab); err != nil {
			return NewBadRequestError("invalid tab", err)
		}
	}

	if name := c.QueryParam("format"); name != "" {
		return renderView(c, p.ActiveView(), name)
	}

	resp := newResultsResponse(p)
	if wantsMsgpack(c) {
		data, err := msgpack.Marshal(resp)
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(http.StatusOK, MIMEApplicationMsgpack, data)
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleSelectTab switches the active tab
func (h *ResultsHandlerImpl) HandleSelectTab(c echo.Context) error {
	var req selectTabRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Tab == "" {
		return NewValidationError("tab")
	}

	p := h.uploader.Results()
	if p == nil {
		return errNoResults()
	}
	tab, err := results.ParseTab(req.Tab)
	if err != nil {
		return NewBadRequestError("invalid tab", err)
	}
	if err := p.Select(tab); err != nil {
		return NewBadRequestError("invalid tab", err)
	}
	return c.JSON(http.StatusOK, p.ActiveView())
}

// HandleGetHistory returns the files processed so far
func (h *ResultsHandlerImpl) HandleGetHistory(c echo.Context) error {
	history := h.uploader.History()
	if history == nil {
		history = []models.ProcessedFile{}
	}
	return c.JSON(http.StatusOK, history)
}

func renderView(c echo.Context, v results.View, name string) error {
	format, err := results.ParseFormat(name)
	if err != nil {
		return NewBadRequestError("invalid format", err)
	}
	out, err := results.Render(v, format)
	if err != nil {
		return NewInternalError("failed to render results", err)
	}

	switch format {
	case results.FormatHTML:
		return c.HTML(http.StatusOK, out)
	case results.FormatMarkdown:
		return c.Blob(http.StatusOK, "text/markdown; charset=UTF-8", []byte(out))
	}
	return c.String(http.StatusOK, out)
}

func wantsMsgpack(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEApplicationMsgpack)
}

// Request/Response types

type selectTabRequest struct {
	Tab string `json:"tab"`
}

type tabInfo struct {
	Tab    results.Tab `json:"tab" msgpack:"tab"`
	Title  string      `json:"title" msgpack:"title"`
	Active bool        `json:"active" msgpack:"active"`
	Empty  bool        `json:"empty" msgpack:"empty"`
}

type resultsResponse struct {
	Active         results.Tab    `json:"active" msgpack:"active"`
	ProcessedPages int            `json:"processedPages" msgpack:"processedPages"`
	Tabs           []tabInfo      `json:"tabs" msgpack:"tabs"`
	Views          []results.View `json:"views" msgpack:"views"`
}

func newResultsResponse(p *results.Presenter) resultsResponse {
	active := p.Active()
	views := p.Views()
	resp := resultsResponse{
		Active: active,
		Tabs:   make([]tabInfo, 0, len(views)),
		Views:  views,
	}
	if r := p.Response(); r != nil {
		resp.ProcessedPages = r.ProcessedPages
	}
	for _, v := range views {
		resp.Tabs = append(resp.Tabs, tabInfo{Tab: v.Tab, Title: v.Title, Active: v.Tab == active, Empty: v.Empty()})
	}
	return resp
}

func errNoResults() *APIError {
	return NewNotFoundError("NO_RESULTS", "No journal pages have been processed yet")
}
