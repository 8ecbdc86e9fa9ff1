package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"circulation/internal/circulation/fine"
	"circulation/internal/circulation/handler/mocks"
	"circulation/internal/circulation/models"
	"circulation/internal/circulation/service"
	id "circulation/pkg/domain"
	dErrors "circulation/pkg/domain-errors"
	"circulation/pkg/requestcontext"
)

const testAdminToken = "admin-secret"

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	handler *Handler
	router  chi.Router
	today   time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.handler = New(s.service, fine.New(fine.DefaultDailyRate), testAdminToken, logger, nil)
	s.router = chi.NewRouter()
	s.handler.Register(s.router)
	s.today = time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

// request calls a handler method directly so "today" can be pinned.
func (s *HandlerSuite) request(method, target string, body any, params map[string]string) *http.Request {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = requestcontext.WithTime(ctx, s.today)
	return req.WithContext(ctx)
}

func (s *HandlerSuite) sampleLoan(due time.Time) *models.Loan {
	loanDate := models.Day(s.today.AddDate(0, 0, -20))
	loan, err := models.NewLoan(id.NewLoanID(), id.ItemID(uuid.New()), id.MemberID(uuid.New()),
		loanDate, models.Day(due), "", s.today)
	s.Require().NoError(err)
	return loan
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (s *HandlerSuite) TestCreateLoan() {
	s.Run("created loan is rendered with dates and projection", func() {
		itemID, memberID := uuid.New(), uuid.New()
		due := "2024-03-25"
		expectedDue, _ := models.ParseDate(due)

		s.service.EXPECT().CreateLoan(gomock.Any(), service.CreateLoanRequest{
			ItemID:   id.ItemID(itemID),
			MemberID: id.MemberID(memberID),
			DueDate:  &expectedDue,
			Notes:    "summer reading",
		}).DoAndReturn(func(_ context.Context, req service.CreateLoanRequest) (*models.Loan, error) {
			return models.NewLoan(id.NewLoanID(), req.ItemID, req.MemberID,
				models.Day(s.today), *req.DueDate, req.Notes, s.today)
		})

		w := httptest.NewRecorder()
		s.handler.handleCreateLoan(w, s.request(http.MethodPost, "/loans", map[string]any{
			"item_id":   itemID.String(),
			"member_id": memberID.String(),
			"due_date":  due,
			"notes":     "  summer reading ",
		}, nil))

		s.Equal(http.StatusCreated, w.Code)
		body := decode(s.T(), w)
		s.Equal("2024-03-11", body["loan_date"])
		s.Equal(due, body["due_date"])
		s.Equal("active", body["status"])
		s.Equal(false, body["overdue"])
		s.Equal(0.0, body["current_fine"])
		s.NotContains(body, "return_date")
	})

	s.Run("missing member id is a validation error", func() {
		w := httptest.NewRecorder()
		s.handler.handleCreateLoan(w, s.request(http.MethodPost, "/loans", map[string]any{
			"item_id": uuid.NewString(),
		}, nil))

		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("validation_error", decode(s.T(), w)["error"])
	})

	s.Run("malformed due date is rejected before the service", func() {
		w := httptest.NewRecorder()
		s.handler.handleCreateLoan(w, s.request(http.MethodPost, "/loans", map[string]any{
			"item_id":   uuid.NewString(),
			"member_id": uuid.NewString(),
			"due_date":  "25/03/2024",
		}, nil))

		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("invalid json body", func() {
		req := httptest.NewRequest(http.MethodPost, "/loans", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		s.handler.handleCreateLoan(w, req)

		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("bad_request", decode(s.T(), w)["error"])
	})

	s.Run("no copies available maps to conflict", func() {
		s.service.EXPECT().CreateLoan(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnavailable, "no copies available for: Dune"))

		w := httptest.NewRecorder()
		s.handler.handleCreateLoan(w, s.request(http.MethodPost, "/loans", map[string]any{
			"item_id":   uuid.NewString(),
			"member_id": uuid.NewString(),
		}, nil))

		s.Equal(http.StatusConflict, w.Code)
		body := decode(s.T(), w)
		s.Equal("unavailable", body["error"])
		s.Equal("no copies available for: Dune", body["error_description"])
	})

	s.Run("internal errors do not leak their message", func() {
		s.service.EXPECT().CreateLoan(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInternal, "connection refused to 10.0.0.4"))

		w := httptest.NewRecorder()
		s.handler.handleCreateLoan(w, s.request(http.MethodPost, "/loans", map[string]any{
			"item_id":   uuid.NewString(),
			"member_id": uuid.NewString(),
		}, nil))

		s.Equal(http.StatusInternalServerError, w.Code)
		s.NotContains(decode(s.T(), w), "error_description")
	})
}

func (s *HandlerSuite) TestGetLoanShowsOverdueProjection() {
	loan := s.sampleLoan(s.today.AddDate(0, 0, -4))
	s.service.EXPECT().GetLoan(gomock.Any(), loan.ID).Return(loan, nil)

	w := httptest.NewRecorder()
	s.handler.handleGetLoan(w, s.request(http.MethodGet, "/loans/"+loan.ID.String(), nil,
		map[string]string{"loanID": loan.ID.String()}))

	s.Equal(http.StatusOK, w.Code)
	body := decode(s.T(), w)
	s.Equal(true, body["overdue"])
	s.Equal(4.0, body["days_overdue"])
	s.Equal(2.0, body["current_fine"])
	s.Equal(0.0, body["fine_amount"])
}

func (s *HandlerSuite) TestGetLoanRejectsMalformedID() {
	w := httptest.NewRecorder()
	s.handler.handleGetLoan(w, s.request(http.MethodGet, "/loans/nope", nil,
		map[string]string{"loanID": "nope"}))

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("invalid_input", decode(s.T(), w)["error"])
}

func (s *HandlerSuite) TestReturnLoan() {
	s.Run("returned loan carries its settled fine", func() {
		loan := s.sampleLoan(s.today.AddDate(0, 0, -10))
		loan.ApplyReturn(models.Day(s.today), 5.0)
		s.service.EXPECT().ReturnLoan(gomock.Any(), loan.ID).Return(loan, nil)

		w := httptest.NewRecorder()
		s.handler.handleReturnLoan(w, s.request(http.MethodPost, "/loans/"+loan.ID.String()+"/return", nil,
			map[string]string{"loanID": loan.ID.String()}))

		s.Equal(http.StatusOK, w.Code)
		body := decode(s.T(), w)
		s.Equal("returned", body["status"])
		s.Equal("2024-03-11", body["return_date"])
		s.Equal(5.0, body["fine_amount"])
		s.Equal(5.0, body["current_fine"])
		s.Equal(false, body["overdue"])
	})

	s.Run("second return is a conflict", func() {
		loanID := id.NewLoanID()
		s.service.EXPECT().ReturnLoan(gomock.Any(), loanID).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "loan already returned"))

		w := httptest.NewRecorder()
		s.handler.handleReturnLoan(w, s.request(http.MethodPost, "/", nil,
			map[string]string{"loanID": loanID.String()}))

		s.Equal(http.StatusConflict, w.Code)
		s.Equal("invalid_state", decode(s.T(), w)["error"])
	})
}

func (s *HandlerSuite) TestRenewLoan() {
	s.Run("empty body extends by the renewal period", func() {
		loan := s.sampleLoan(s.today.AddDate(0, 0, 3))
		s.service.EXPECT().RenewLoan(gomock.Any(), loan.ID, (*time.Time)(nil)).Return(loan, nil)

		w := httptest.NewRecorder()
		s.handler.handleRenewLoan(w, s.request(http.MethodPost, "/", nil,
			map[string]string{"loanID": loan.ID.String()}))

		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("explicit due date is parsed", func() {
		loan := s.sampleLoan(s.today.AddDate(0, 0, 3))
		want, _ := models.ParseDate("2024-04-01")
		s.service.EXPECT().RenewLoan(gomock.Any(), loan.ID, &want).Return(loan, nil)

		w := httptest.NewRecorder()
		s.handler.handleRenewLoan(w, s.request(http.MethodPost, "/",
			map[string]any{"due_date": "2024-04-01"},
			map[string]string{"loanID": loan.ID.String()}))

		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("earlier due date is rejected by the service", func() {
		loanID := id.NewLoanID()
		s.service.EXPECT().RenewLoan(gomock.Any(), loanID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidArgument, "new due date cannot be before the current due date"))

		w := httptest.NewRecorder()
		s.handler.handleRenewLoan(w, s.request(http.MethodPost, "/",
			map[string]any{"due_date": "2024-03-01"},
			map[string]string{"loanID": loanID.String()}))

		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("invalid_argument", decode(s.T(), w)["error"])
	})
}

func (s *HandlerSuite) TestListLoansFilters() {
	loan := s.sampleLoan(s.today.AddDate(0, 0, -1))

	s.Run("overdue filter uses as_of", func() {
		asOf, _ := models.ParseDate("2024-03-20")
		s.service.EXPECT().ListOverdueLoans(gomock.Any(), asOf).Return([]*models.Loan{loan}, nil)

		w := httptest.NewRecorder()
		s.handler.handleListLoans(w, s.request(http.MethodGet, "/loans?overdue=true&as_of=2024-03-20", nil, nil))

		s.Equal(http.StatusOK, w.Code)
		body := decode(s.T(), w)
		s.Equal(1.0, body["count"])
		first := body["loans"].([]any)[0].(map[string]any)
		s.Equal(10.0, first["days_overdue"])
		s.Equal(5.0, first["current_fine"])
	})

	s.Run("active filter", func() {
		s.service.EXPECT().ListActiveLoans(gomock.Any()).Return(nil, nil)

		w := httptest.NewRecorder()
		s.handler.handleListLoans(w, s.request(http.MethodGet, "/loans?active=1", nil, nil))

		s.Equal(http.StatusOK, w.Code)
		body := decode(s.T(), w)
		s.Equal(0.0, body["count"])
		s.Equal([]any{}, body["loans"])
	})

	s.Run("no filter lists everything", func() {
		s.service.EXPECT().ListLoans(gomock.Any()).Return([]*models.Loan{loan}, nil)

		w := httptest.NewRecorder()
		s.handler.handleListLoans(w, s.request(http.MethodGet, "/loans", nil, nil))

		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("bad boolean", func() {
		w := httptest.NewRecorder()
		s.handler.handleListLoans(w, s.request(http.MethodGet, "/loans?active=maybe", nil, nil))

		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("bad as_of", func() {
		w := httptest.NewRecorder()
		s.handler.handleListOverdue(w, s.request(http.MethodGet, "/loans/overdue?as_of=yesterday", nil, nil))

		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestStats() {
	s.service.EXPECT().Stats(gomock.Any(), s.today).Return(&models.Stats{
		AsOf:              models.Day(s.today),
		ActiveLoans:       3,
		OverdueLoans:      1,
		TotalOverdueFines: 2.5,
	}, nil)

	w := httptest.NewRecorder()
	s.handler.handleStats(w, s.request(http.MethodGet, "/loans/stats", nil, nil))

	s.Equal(http.StatusOK, w.Code)
	body := decode(s.T(), w)
	s.Equal("2024-03-11", body["as_of"])
	s.Equal(3.0, body["active_loans"])
	s.Equal(1.0, body["overdue_loans"])
	s.Equal(2.5, body["total_overdue_fines"])
}

func (s *HandlerSuite) TestMemberLoans() {
	memberID := id.MemberID(uuid.New())
	s.service.EXPECT().ListMemberLoans(gomock.Any(), memberID, true).Return(nil, nil)

	w := httptest.NewRecorder()
	s.handler.handleMemberLoans(w, s.request(http.MethodGet, "/members/x/loans?active=true", nil,
		map[string]string{"memberID": memberID.String()}))

	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerSuite) TestSetCapacity() {
	itemID := id.ItemID(uuid.New())

	s.Run("missing total_copies", func() {
		w := httptest.NewRecorder()
		s.handler.handleSetCapacity(w, s.request(http.MethodPut, "/", map[string]any{}, map[string]string{"itemID": itemID.String()}))

		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("updated item is rendered", func() {
		s.service.EXPECT().SetCapacity(gomock.Any(), itemID, 5).Return(&models.CatalogItem{
			ID: itemID, Title: "Dune", TotalCopies: 5, AvailableCopies: 3, Active: true,
		}, nil)

		w := httptest.NewRecorder()
		s.handler.handleSetCapacity(w, s.request(http.MethodPut, "/", map[string]any{"total_copies": 5},
			map[string]string{"itemID": itemID.String()}))

		s.Equal(http.StatusOK, w.Code)
		body := decode(s.T(), w)
		s.Equal(5.0, body["total_copies"])
		s.Equal(2.0, body["borrowed"])
	})
}

func (s *HandlerSuite) TestAdminRoutesRequireToken() {
	loanID := id.NewLoanID()

	s.Run("delete without token", func() {
		req := httptest.NewRequest(http.MethodDelete, "/loans/"+loanID.String(), nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("delete with token", func() {
		s.service.EXPECT().DeleteLoan(gomock.Any(), loanID).Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/loans/"+loanID.String(), nil)
		req.Header.Set("X-Admin-Token", testAdminToken)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("reconcile without token", func() {
		req := httptest.NewRequest(http.MethodPost, "/items/"+uuid.NewString()+"/reconcile", nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("ledger check is public", func() {
		itemID := id.ItemID(uuid.New())
		s.service.EXPECT().CheckLedger(gomock.Any(), itemID).Return(&models.LedgerReport{
			ItemID: itemID, TotalCopies: 2, AvailableBefore: 2, AvailableAfter: 2,
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/items/"+itemID.String()+"/ledger", nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		s.Equal(http.StatusOK, w.Code)
	})
}

func (s *HandlerSuite) TestStaticRoutesWinOverLoanID() {
	s.service.EXPECT().ListOverdueLoans(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.service.EXPECT().Stats(gomock.Any(), gomock.Any()).Return(&models.Stats{}, nil)

	for _, path := range []string{"/loans/overdue", "/loans/stats"} {
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(s.T(), http.StatusOK, w.Code, path)
	}
}
