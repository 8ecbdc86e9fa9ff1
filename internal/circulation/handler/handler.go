// Package handler exposes the circulation service over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"circulation/internal/circulation/fine"
	"circulation/internal/circulation/models"
	"circulation/internal/circulation/service"
	"circulation/internal/platform/metrics"
	"circulation/internal/platform/middleware"
	id "circulation/pkg/domain"
	dErrors "circulation/pkg/domain-errors"
	"circulation/pkg/platform/httputil"
	"circulation/pkg/platform/middleware/admin"
	"circulation/pkg/platform/middleware/metadata"
	"circulation/pkg/platform/middleware/requesttime"
	"circulation/pkg/requestcontext"
)

const requestTimeout = 30 * time.Second

// Service defines the circulation operations the HTTP layer needs.
type Service interface {
	CreateLoan(ctx context.Context, req service.CreateLoanRequest) (*models.Loan, error)
	ReturnLoan(ctx context.Context, loanID id.LoanID) (*models.Loan, error)
	RenewLoan(ctx context.Context, loanID id.LoanID, newDue *time.Time) (*models.Loan, error)
	DeleteLoan(ctx context.Context, loanID id.LoanID) error
	GetLoan(ctx context.Context, loanID id.LoanID) (*models.Loan, error)
	ListLoans(ctx context.Context) ([]*models.Loan, error)
	ListActiveLoans(ctx context.Context) ([]*models.Loan, error)
	ListOverdueLoans(ctx context.Context, asOf time.Time) ([]*models.Loan, error)
	ListMemberLoans(ctx context.Context, memberID id.MemberID, activeOnly bool) ([]*models.Loan, error)
	Stats(ctx context.Context, asOf time.Time) (*models.Stats, error)
	SetCapacity(ctx context.Context, itemID id.ItemID, totalCopies int) (*models.CatalogItem, error)
	ReconcileItem(ctx context.Context, itemID id.ItemID) (*models.LedgerReport, error)
	CheckLedger(ctx context.Context, itemID id.ItemID) (*models.LedgerReport, error)
}

// Handler serves loan, member-loan and item-ledger endpoints.
type Handler struct {
	logger     *slog.Logger
	service    Service
	fines      fine.Calculator
	metrics    *metrics.Metrics
	adminToken string
}

// New creates a circulation Handler. fines renders the overdue projection on
// loan responses and should use the same rate as the service.
func New(
	svc Service,
	fines fine.Calculator,
	adminToken string,
	logger *slog.Logger,
	metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:     logger,
		service:    svc,
		fines:      fines,
		metrics:    metrics,
		adminToken: adminToken,
	}
}

// Register registers the circulation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(metadata.ClientMetadata)
	router.Use(middleware.Logger(h.logger))
	router.Use(requesttime.Middleware)
	router.Use(middleware.Timeout(requestTimeout))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.LatencyMiddleware(h.metrics))

	requireAdmin := admin.RequireAdminToken(h.adminToken, h.logger)

	router.Route("/loans", func(r chi.Router) {
		r.Get("/", h.handleListLoans)
		r.Post("/", h.handleCreateLoan)
		r.Get("/overdue", h.handleListOverdue)
		r.Get("/stats", h.handleStats)
		r.Get("/{loanID}", h.handleGetLoan)
		r.Post("/{loanID}/return", h.handleReturnLoan)
		r.Post("/{loanID}/renew", h.handleRenewLoan)
		r.With(requireAdmin).Delete("/{loanID}", h.handleDeleteLoan)
	})
	router.Get("/members/{memberID}/loans", h.handleMemberLoans)
	router.Route("/items/{itemID}", func(r chi.Router) {
		r.Get("/ledger", h.handleCheckLedger)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Put("/capacity", h.handleSetCapacity)
			r.Post("/reconcile", h.handleReconcile)
		})
	})

	r.Mount("/", router)
}

func (h *Handler) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode create loan request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.writeError(ctx, w, err, "invalid create loan request")
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.writeError(ctx, w, err, "invalid create loan request")
		return
	}

	loan, err := h.service.CreateLoan(ctx, cmd)
	if err != nil {
		h.writeError(ctx, w, err, "failed to create loan",
			"item_id", cmd.ItemID.String(),
			"member_id", cmd.MemberID.String(),
		)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toLoanResponse(loan, h.fines, requestcontext.Now(ctx)))
}

func (h *Handler) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loanID, err := id.ParseLoanID(chi.URLParam(r, "loanID"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid loan id")
		return
	}
	loan, err := h.service.GetLoan(ctx, loanID)
	if err != nil {
		h.writeError(ctx, w, err, "failed to get loan", "loan_id", loanID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanResponse(loan, h.fines, requestcontext.Now(ctx)))
}

func (h *Handler) handleReturnLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loanID, err := id.ParseLoanID(chi.URLParam(r, "loanID"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid loan id")
		return
	}
	loan, err := h.service.ReturnLoan(ctx, loanID)
	if err != nil {
		h.writeError(ctx, w, err, "failed to return loan", "loan_id", loanID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanResponse(loan, h.fines, requestcontext.Now(ctx)))
}

func (h *Handler) handleRenewLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	loanID, err := id.ParseLoanID(chi.URLParam(r, "loanID"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid loan id")
		return
	}

	// The body is optional; an empty one means "extend by the renewal period".
	var req RenewLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(ctx, "failed to decode renew request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	newDue, err := req.DueDateValue()
	if err != nil {
		h.writeError(ctx, w, err, "invalid renew request")
		return
	}

	loan, err := h.service.RenewLoan(ctx, loanID, newDue)
	if err != nil {
		h.writeError(ctx, w, err, "failed to renew loan", "loan_id", loanID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanResponse(loan, h.fines, requestcontext.Now(ctx)))
}

func (h *Handler) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loanID, err := id.ParseLoanID(chi.URLParam(r, "loanID"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid loan id")
		return
	}
	if err := h.service.DeleteLoan(ctx, loanID); err != nil {
		h.writeError(ctx, w, err, "failed to delete loan", "loan_id", loanID.String())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListLoans lists every loan, narrowed by ?active=true or ?overdue=true.
func (h *Handler) handleListLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	asOf, err := asOfFromQuery(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid as_of")
		return
	}
	activeOnly, err := boolQuery(r, "active")
	if err != nil {
		h.writeError(ctx, w, err, "invalid active filter")
		return
	}
	overdueOnly, err := boolQuery(r, "overdue")
	if err != nil {
		h.writeError(ctx, w, err, "invalid overdue filter")
		return
	}

	var loans []*models.Loan
	switch {
	case overdueOnly:
		loans, err = h.service.ListOverdueLoans(ctx, asOf)
	case activeOnly:
		loans, err = h.service.ListActiveLoans(ctx)
	default:
		loans, err = h.service.ListLoans(ctx)
	}
	if err != nil {
		h.writeError(ctx, w, err, "failed to list loans")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanListResponse(loans, h.fines, asOf))
}

func (h *Handler) handleListOverdue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	asOf, err := asOfFromQuery(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid as_of")
		return
	}
	loans, err := h.service.ListOverdueLoans(ctx, asOf)
	if err != nil {
		h.writeError(ctx, w, err, "failed to list overdue loans")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanListResponse(loans, h.fines, asOf))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	asOf, err := asOfFromQuery(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid as_of")
		return
	}
	stats, err := h.service.Stats(ctx, asOf)
	if err != nil {
		h.writeError(ctx, w, err, "failed to compute loan stats")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatsResponse(stats))
}

func (h *Handler) handleMemberLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, err := id.ParseMemberID(chi.URLParam(r, "memberID"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid member id")
		return
	}
	activeOnly, err := boolQuery(r, "active")
	if err != nil {
		h.writeError(ctx, w, err, "invalid active filter")
		return
	}
	loans, err := h.service.ListMemberLoans(ctx, memberID, activeOnly)
	if err != nil {
		h.writeError(ctx, w, err, "failed to list member loans", "member_id", memberID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanListResponse(loans, h.fines, requestcontext.Now(ctx)))
}

func (h *Handler) handleSetCapacity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid item id")
		return
	}

	var req SetCapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode capacity request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(ctx, w, err, "invalid capacity request")
		return
	}

	item, err := h.service.SetCapacity(ctx, itemID, *req.TotalCopies)
	if err != nil {
		h.writeError(ctx, w, err, "failed to set item capacity",
			"item_id", itemID.String(),
			"total_copies", *req.TotalCopies,
		)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid item id")
		return
	}
	report, err := h.service.ReconcileItem(ctx, itemID)
	if err != nil {
		h.writeError(ctx, w, err, "failed to reconcile item", "item_id", itemID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleCheckLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid item id")
		return
	}
	report, err := h.service.CheckLedger(ctx, itemID)
	if err != nil {
		h.writeError(ctx, w, err, "failed to check item ledger", "item_id", itemID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// writeError logs client failures at warn and everything else at error, then
// renders the shared error envelope.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string, args ...any) {
	attrs := append([]any{"error", err, "request_id", middleware.GetRequestID(ctx)}, args...)
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func asOfFromQuery(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return requestcontext.Now(r.Context()), nil
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, "as_of must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func boolQuery(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, dErrors.New(dErrors.CodeBadRequest, name+" must be true or false")
	}
	return v, nil
}
