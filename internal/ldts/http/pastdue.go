package http

import (
	"errors"
	"net/http"

	"github.com/loancollect/ldts/internal/ldts/domain"
	"github.com/loancollect/ldts/internal/ldts/metrics"
	"github.com/loancollect/ldts/internal/ldts/service"
	"github.com/loancollect/ldts/internal/ldts/store"
	"github.com/loancollect/ldts/pkg/httpx"
)

// maxImportSize caps the uploaded workbook at 32 MiB.
const maxImportSize = 32 << 20

// PastDueHandler exposes the bulk report endpoints. Every route requires a
// bearer token; the handler loads the principal to derive permissions and
// scope per request.
type PastDueHandler struct {
	PastDue *service.PastDueService
	Store   store.Store
}

// principal resolves the authenticated caller from the bearer claims.
func (h *PastDueHandler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	id := httpx.PrincipalIDFromCtx(r.Context())
	if id == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return domain.Principal{}, false
	}

	p, err := h.Store.Principals().GetPrincipalByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "Authentication required")
		} else {
			httpx.WriteError(w, http.StatusInternalServerError, "Server error")
		}
		return domain.Principal{}, false
	}
	return p, true
}

// List godoc
//
//	@Summary		List past-due records
//	@Description	Returns the rows visible to the caller per their derived scope.
//	@Tags			PastDue
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	httpx.Response{data=[]domain.PastDueRecord}
//	@Failure		401	{object}	httpx.Response
//	@Router			/v1/pastdue [get]
func (h *PastDueHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	records, err := h.PastDue.List(r.Context(), p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteOK(w, http.StatusOK, "Reports fetched successfully", records)
}

// Import godoc
//
//	@Summary		Import a past-due workbook
//	@Description	Accepts an xlsx upload (multipart field "file") and bulk-inserts its
//	@Description	rows. Requires import or upload permission.
//	@Tags			PastDue
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"xlsx workbook"
//	@Success		200		{object}	httpx.Response
//	@Failure		400		{object}	httpx.Response
//	@Failure		403		{object}	httpx.Response
//	@Router			/v1/pastdue/import [post]
func (h *PastDueHandler) Import(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	perms := service.ResolvePermissions(p)
	if !perms.CanImport && !perms.CanUpload {
		httpx.WriteError(w, http.StatusForbidden, "Not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Excel file required")
		return
	}
	defer file.Close()

	n, err := h.PastDue.Import(r.Context(), file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	metrics.ObserveImportRows(n)
	httpx.WriteOK(w, http.StatusOK, "Excel data imported successfully", map[string]int{
		"rows": n,
	})
}

// Export godoc
//
//	@Summary		Export past-due records
//	@Description	Streams the caller's visible rows as an xlsx attachment. Requires
//	@Description	export permission.
//	@Tags			PastDue
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Security		BearerAuth
//	@Success		200
//	@Failure		403	{object}	httpx.Response
//	@Failure		404	{object}	httpx.Response
//	@Router			/v1/pastdue/export [get]
func (h *PastDueHandler) Export(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if !service.ResolvePermissions(p).CanExport {
		httpx.WriteError(w, http.StatusForbidden, "Not allowed")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=past_due_reports.xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := h.PastDue.Export(r.Context(), p, w); err != nil {
		// Headers may already be written; only map errors raised before any
		// body bytes, which is the case for the empty-set signal.
		if errors.Is(err, service.ErrNoReports) {
			w.Header().Del("Content-Disposition")
			writeServiceError(w, err)
		}
	}
}
