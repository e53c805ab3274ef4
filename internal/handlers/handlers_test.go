package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ArowuTest/raffle-backend/internal/engine"
	"github.com/ArowuTest/raffle-backend/internal/middleware"
	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVoucherService struct {
	services.VoucherService
	input      services.VoucherInput
	userID     primitive.ObjectID
	approveErr error
	reviewer   string
}

func (s *stubVoucherService) SubmitVoucher(_ context.Context, userID primitive.ObjectID, input services.VoucherInput) (*models.VoucherOutcome, error) {
	s.userID = userID
	s.input = input
	if input.Amount < 100 {
		return nil, fmt.Errorf("%w: minimum is 100.00", services.ErrBelowMinimumDeposit)
	}
	return &models.VoucherOutcome{Voucher: &models.Voucher{UserID: userID, DeclaredAmount: input.Amount, Status: models.VoucherStatusPending}}, nil
}

func (s *stubVoucherService) ApproveVoucher(_ context.Context, id primitive.ObjectID, reviewer string) (*models.VoucherOutcome, error) {
	s.reviewer = reviewer
	if s.approveErr != nil {
		return nil, s.approveErr
	}
	return &models.VoucherOutcome{Voucher: &models.Voucher{ID: id, Status: models.VoucherStatusApproved}, Numbers: []string{"00001"}}, nil
}

type stubRaffleService struct {
	services.RaffleService
	closeInput services.CloseRaffleInput
}

func (s *stubRaffleService) CloseRaffle(_ context.Context, id primitive.ObjectID, input services.CloseRaffleInput) (*models.Raffle, error) {
	s.closeInput = input
	if input.Strategy == "MANUAL" && input.ManualNumbers == "" {
		return nil, fmt.Errorf("draw failed: %w", engine.ErrDrawInsufficientInput)
	}
	return &models.Raffle{ID: id, Status: models.RaffleStatusClosed, DrawStrategy: input.Strategy}, nil
}

type stubCouponService struct {
	services.CouponService
	created []string
}

func (s *stubCouponService) CreateCoupon(_ context.Context, input services.CouponInput) (*models.Coupon, error) {
	if input.Code == "DUP" {
		return nil, services.ErrCouponCodeTaken
	}
	s.created = append(s.created, input.Code)
	return &models.Coupon{Code: input.Code, Kind: input.Kind, Value: input.Value}, nil
}

// withCaller simulates JWTAuthMiddleware
func withCaller(userID, email, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserEmail, email)
		c.Set(middleware.ContextUserRole, role)
		c.Next()
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", services.ErrInvalidInput), http.StatusBadRequest},
		{services.ErrBelowMinimumDeposit, http.StatusBadRequest},
		{services.ErrInvalidRaffleConfig, http.StatusBadRequest},
		{fmt.Errorf("voucher 1: %w", services.ErrNotFound), http.StatusNotFound},
		{services.ErrVoucherNotPending, http.StatusConflict},
		{services.ErrCouponCodeTaken, http.StatusConflict},
		{services.ErrRaffleClosed, http.StatusConflict},
		{services.ErrRaffleAlreadyOpen, http.StatusConflict},
		{services.ErrNoOpenRaffle, http.StatusUnprocessableEntity},
		{fmt.Errorf("failed to allocate numbers: %w", engine.ErrAllocationNonTerminating), http.StatusUnprocessableEntity},
		{engine.ErrDrawEmptyRaffle, http.StatusUnprocessableEntity},
		{errors.New("mongo down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestSubmitVoucherJSON(t *testing.T) {
	svc := &stubVoucherService{}
	h := NewVoucherHandler(svc)
	userID := primitive.NewObjectID()

	r := gin.New()
	r.POST("/vouchers", withCaller(userID.Hex(), "", "user"), h.SubmitVoucher)

	body := bytes.NewBufferString(`{"amount": 250, "couponCode": "plus5", "imageRef": "receipt.png"}`)
	req := httptest.NewRequest(http.MethodPost, "/vouchers", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, userID, svc.userID)
	assert.Equal(t, 250.0, svc.input.Amount)
	assert.Equal(t, "plus5", svc.input.CouponCode)
	assert.Equal(t, "receipt.png", svc.input.ImageRef)

	req = httptest.NewRequest(http.MethodPost, "/vouchers", bytes.NewBufferString(`{"amount": 50}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "minimum deposit")
}

func TestSubmitVoucherMultipart(t *testing.T) {
	svc := &stubVoucherService{}
	h := NewVoucherHandler(svc)

	r := gin.New()
	r.POST("/vouchers", withCaller(primitive.NewObjectID().Hex(), "", "user"), h.SubmitVoucher)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("amount", "300"))
	require.NoError(t, mw.WriteField("couponCode", "HALF"))
	part, err := mw.CreateFormFile("image", "voucher.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/vouchers", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 300.0, svc.input.Amount)
	assert.Equal(t, "HALF", svc.input.CouponCode)
	assert.Equal(t, []byte("jpeg-bytes"), svc.input.Image)
	assert.Equal(t, "voucher.jpg", svc.input.ImageRef)
}

func TestSubmitVoucherRejectsNonFiniteAmount(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "+Inf", "-Inf", "abc"} {
		t.Run(raw, func(t *testing.T) {
			svc := &stubVoucherService{}
			h := NewVoucherHandler(svc)
			r := gin.New()
			r.POST("/vouchers", withCaller(primitive.NewObjectID().Hex(), "", "user"), h.SubmitVoucher)

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			require.NoError(t, mw.WriteField("amount", raw))
			require.NoError(t, mw.Close())

			req := httptest.NewRequest(http.MethodPost, "/vouchers", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, svc.input.Amount)
		})
	}
}

func TestSubmitVoucherRequiresUserSubject(t *testing.T) {
	h := NewVoucherHandler(&stubVoucherService{})
	r := gin.New()
	r.POST("/vouchers", withCaller("not-an-id", "", "user"), h.SubmitVoucher)

	req := httptest.NewRequest(http.MethodPost, "/vouchers", bytes.NewBufferString(`{"amount": 250}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApproveVoucher(t *testing.T) {
	svc := &stubVoucherService{}
	h := NewVoucherHandler(svc)
	r := gin.New()
	r.POST("/vouchers/:id/approve", withCaller("admin-1", "admin@example.com", "admin"), h.ApproveVoucher)

	id := primitive.NewObjectID()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/vouchers/"+id.Hex()+"/approve", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@example.com", svc.reviewer)

	var outcome models.VoucherOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Equal(t, []string{"00001"}, outcome.Numbers)

	svc.approveErr = services.ErrVoucherNotPending
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/vouchers/"+id.Hex()+"/approve", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	svc.approveErr = errors.New("connection reset")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/vouchers/"+id.Hex()+"/approve", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/vouchers/nope/approve", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCloseRaffle(t *testing.T) {
	svc := &stubRaffleService{}
	h := NewRaffleHandler(svc)
	r := gin.New()
	r.POST("/raffles/:id/close", h.CloseRaffle)
	path := "/raffles/" + primitive.NewObjectID().Hex() + "/close"

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AUTOMATIC", svc.closeInput.Strategy)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{"strategy":"MANUAL"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestImportCoupons(t *testing.T) {
	svc := &stubCouponService{}
	h := NewCouponHandler(svc)
	r := gin.New()
	r.POST("/coupons/import", h.ImportCoupons)

	csv := "code,kind,value,maxUses,expiresAt\n" +
		"welcome,BONUS_NUMBERS,5,,\n" +
		"dup,PERCENT_DISCOUNT,10,3,2030-01-01\n" +
		"bad,FREE,1,,\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "coupons.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/coupons/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Created  int      `json:"created"`
		Rejected []string `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, []string{"WELCOME"}, svc.created)
	assert.Len(t, resp.Rejected, 2)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/coupons/import", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubUserService struct {
	services.UserService
	known primitive.ObjectID
}

func (s *stubUserService) PlayerDetail(_ context.Context, id primitive.ObjectID) (*models.PlayerDetail, error) {
	if id != s.known {
		return nil, fmt.Errorf("user %s: %w", id.Hex(), services.ErrNotFound)
	}
	return &models.PlayerDetail{User: &models.User{ID: id, Name: "Kim"}, TotalNumbers: 30, PendingCount: 2}, nil
}

func TestGetPlayer(t *testing.T) {
	svc := &stubUserService{known: primitive.NewObjectID()}
	r := gin.New()
	r.GET("/users/:id", NewUserHandler(svc).GetPlayer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/"+svc.known.Hex(), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var detail models.PlayerDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Kim", detail.User.Name)
	assert.Equal(t, int64(2), detail.PendingCount)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/"+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/not-hex", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
