package transferdelivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sergey-Spodarev/-Bank-REST/internal/domain"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/middleware"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/errorspkg"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/randompkg"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/tokenpkg"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func randomCardResponse(id, userID int64, balance string) domain.CardResponse {
	number := randompkg.CardNumber()

	return domain.CardResponse{
		ID:           id,
		UserID:       userID,
		MaskedNumber: "**** **** **** " + number[len(number)-4:],
		OwnerName:    randompkg.Owner(),
		ExpiryDate:   randompkg.ExpiryDate(),
		Status:       domain.StatusActive,
		Balance:      balance,
		CreatedAt:    time.Now().Truncate(time.Second).UTC(),
	}
}

func TestCreateTransferAPI(t *testing.T) {
	testCallerID := int64(10)
	testAmount := "100"

	fromCard := randomCardResponse(1, testCallerID, "900")
	toCard := randomCardResponse(2, testCallerID, "600")

	testResponse := domain.TransferResponse{
		FromCard: fromCard,
		ToCard:   toCard,
	}

	testArg := domain.CreateTransferParams{
		FromCardID: fromCard.ID,
		ToCardID:   toCard.ID,
		Amount:     testAmount,
	}

	tokenMaker, err := tokenpkg.NewJWTMaker(randompkg.String(32))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transferService := NewMockService(ctrl)
	transferHandler := NewHandler(transferService)

	server := gin.Default()
	url := "/transfers"

	server.Use(middleware.AuthMiddleware(tokenMaker))
	server.POST(url, transferHandler.Create)

	testCases := []struct {
		name          string
		requestBody   gin.H
		setupAuth     func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker)
		buildStubs    func(transferService *MockService)
		checkResponse func(recorder *httptest.ResponseRecorder)
	}{
		{
			name: "NoAuthorization",
			requestBody: gin.H{
				"from_card_id": fromCard.ID,
				"to_card_id":   toCard.ID,
				"amount":       testAmount,
			},
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
			},
			buildStubs: func(transferService *MockService) {
				transferService.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusUnauthorized, recorder.Code)
			},
		},
		{
			name: "InvalidBindFromCardID",
			requestBody: gin.H{
				"from_card_id": 0,
				"to_card_id":   toCard.ID,
				"amount":       testAmount,
			},
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker,
					middleware.AuthTypeBearer, testCallerID, "user", domain.RoleUser, time.Minute)
			},
			buildStubs: func(transferService *MockService) {
				transferService.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name: "MissingAmount",
			requestBody: gin.H{
				"from_card_id": fromCard.ID,
				"to_card_id":   toCard.ID,
				"amount":       "",
			},
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker,
					middleware.AuthTypeBearer, testCallerID, "user", domain.RoleUser, time.Minute)
			},
			buildStubs: func(transferService *MockService) {
				transferService.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name: "SameCard",
			requestBody: gin.H{
				"from_card_id": fromCard.ID,
				"to_card_id":   fromCard.ID,
				"amount":       testAmount,
			},
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker,
					middleware.AuthTypeBearer, testCallerID, "user", domain.RoleUser, time.Minute)
			},
			buildStubs: func(transferService *MockService) {
				arg := testArg
				arg.ToCardID = fromCard.ID

				transferService.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testCallerID), gomock.Eq(arg)).
					Times(1).
					Return(domain.TransferResponse{}, domain.ErrSameCardTransfer)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name: "NotFound",
			requestBody: gin.H{
				"from_card_id": fromCard.ID,
				"to_card_id":   toCard.ID,
				"amount":       testAmount,
			},
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker,
					middleware.AuthTypeBearer, testCallerID, "user", domain.RoleUser, time.Minute)
			},
			buildStubs: func(transferService *MockService) {
				transferService.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testCallerID), gomock.Eq(testArg)).
					Times(1).
					Return(domain.TransferResponse{}, domain.ErrCardNotFound)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusNotFound, recorder.Code)
			},
		},
		{
			name: "OwnerMismatch",
			requestBody: gin.H{
				"from_card_id": fromCard.ID,
				"to_card_id":   toCard.ID,
				"amount":       testAmount,
			},
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker,
					middleware.AuthTypeBearer, testCallerID, "user", domain.RoleUser, time.Minute)
			},
			buildStubs: func(transferService *MockService) {
				transferService.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testCallerID), gomock.Eq(testArg)).
					Times(1).
					Return(domain.TransferResponse{}, domain.ErrCardOwnerMismatch)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusForbidden, recorder.Code)
			},
		},
		{
			name: "CardNotActive",
			requestBody: gin.H{
				"from_card_id": fromCard.ID,
				"to_card_id":   toCard.ID,
				"amount":       testAmount,
			},
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker,
					middleware.AuthTypeBearer, testCallerID, "user", domain.RoleUser, time.Minute)
			},
			buildStubs: func(transferService *MockService) {
				transferService.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testCallerID), gomock.Eq(testArg)).
					Times(1).
					Return(domain.TransferResponse{}, domain.ErrCardNotActive)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name: "InsufficientFunds",
			requestBody: gin.H{
				"from_card_id": fromCard.ID,
				"to_card_id":   toCard.ID,
				"amount":       testAmount,
			},
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker,
					middleware.AuthTypeBearer, testCallerID, "user", domain.RoleUser, time.Minute)
			},
			buildStubs: func(transferService *MockService) {
				insufficient := domain.InsufficientFundsError{
					Requested: decimal.NewFromInt(100),
					Available: decimal.NewFromInt(50),
				}

				transferService.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testCallerID), gomock.Eq(testArg)).
					Times(1).
					Return(domain.TransferResponse{}, insufficient)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
				require.Contains(t, recorder.Body.String(), "insufficient funds")
				require.Contains(t, recorder.Body.String(), "requested 100")
				require.Contains(t, recorder.Body.String(), "available 50")
			},
		},
		{
			name: "InternalError",
			requestBody: gin.H{
				"from_card_id": fromCard.ID,
				"to_card_id":   toCard.ID,
				"amount":       testAmount,
			},
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker,
					middleware.AuthTypeBearer, testCallerID, "user", domain.RoleUser, time.Minute)
			},
			buildStubs: func(transferService *MockService) {
				transferService.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testCallerID), gomock.Eq(testArg)).
					Times(1).
					Return(domain.TransferResponse{}, errorspkg.ErrInternal)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusInternalServerError, recorder.Code)
			},
		},
		{
			name: "OK",
			requestBody: gin.H{
				"from_card_id": fromCard.ID,
				"to_card_id":   toCard.ID,
				"amount":       testAmount,
			},
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker,
					middleware.AuthTypeBearer, testCallerID, "user", domain.RoleUser, time.Minute)
			},
			buildStubs: func(transferService *MockService) {
				transferService.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testCallerID), gomock.Eq(testArg)).
					Times(1).
					Return(testResponse, nil)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, recorder.Code)

				var got response

				err := json.Unmarshal(recorder.Body.Bytes(), &got)
				require.NoError(t, err)
				require.Equal(t, fromCard.Balance, got.Data.Transfer.FromCard.Balance)
				require.Equal(t, toCard.Balance, got.Data.Transfer.ToCard.Balance)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			tc.buildStubs(transferService)

			recorder := httptest.NewRecorder()

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			request, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
			require.NoError(t, err)

			tc.setupAuth(t, request, tokenMaker)
			server.ServeHTTP(recorder, request)

			tc.checkResponse(recorder)
		})
	}
}

func TestGetBalanceAPI(t *testing.T) {
	testCallerID := int64(10)
	testCard := randomCardResponse(1, testCallerID, "250.50")

	tokenMaker, err := tokenpkg.NewJWTMaker(randompkg.String(32))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transferService := NewMockService(ctrl)
	transferHandler := NewHandler(transferService)

	server := gin.Default()

	server.Use(middleware.AuthMiddleware(tokenMaker))
	server.GET("/cards/:id/balance", transferHandler.GetBalance)

	testCases := []struct {
		name          string
		url           string
		buildStubs    func(transferService *MockService)
		checkResponse func(recorder *httptest.ResponseRecorder)
	}{
		{
			name: "InvalidID",
			url:  "/cards/0/balance",
			buildStubs: func(transferService *MockService) {
				transferService.EXPECT().GetBalance(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name: "NotFound",
			url:  fmt.Sprintf("/cards/%d/balance", testCard.ID),
			buildStubs: func(transferService *MockService) {
				transferService.EXPECT().
					GetBalance(gomock.Any(), gomock.Eq(testCard.ID), gomock.Eq(testCallerID)).
					Times(1).
					Return("", domain.ErrCardNotFound)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusNotFound, recorder.Code)
			},
		},
		{
			name: "OwnerMismatch",
			url:  fmt.Sprintf("/cards/%d/balance", testCard.ID),
			buildStubs: func(transferService *MockService) {
				transferService.EXPECT().
					GetBalance(gomock.Any(), gomock.Eq(testCard.ID), gomock.Eq(testCallerID)).
					Times(1).
					Return("", domain.ErrCardOwnerMismatch)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusForbidden, recorder.Code)
			},
		},
		{
			name: "OK",
			url:  fmt.Sprintf("/cards/%d/balance", testCard.ID),
			buildStubs: func(transferService *MockService) {
				transferService.EXPECT().
					GetBalance(gomock.Any(), gomock.Eq(testCard.ID), gomock.Eq(testCallerID)).
					Times(1).
					Return(testCard.Balance, nil)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, recorder.Code)

				var got balanceResponse

				err := json.Unmarshal(recorder.Body.Bytes(), &got)
				require.NoError(t, err)
				require.Equal(t, testCard.ID, got.Data.CardID)
				require.Equal(t, testCard.Balance, got.Data.Balance)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			tc.buildStubs(transferService)

			recorder := httptest.NewRecorder()

			request, err := http.NewRequest(http.MethodGet, tc.url, nil)
			require.NoError(t, err)

			middleware.AddAuthorization(t, request, tokenMaker,
				middleware.AuthTypeBearer, testCallerID, "user", domain.RoleUser, time.Minute)
			server.ServeHTTP(recorder, request)

			tc.checkResponse(recorder)
		})
	}
}
