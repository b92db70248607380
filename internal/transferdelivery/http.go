// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/Sergey-Spodarev/-Bank-REST/internal/domain"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/middleware"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/errorspkg"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/tokenpkg"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/web"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	Transfer(ctx context.Context, callerID int64, arg domain.CreateTransferParams) (domain.TransferResponse, error)
	GetBalance(ctx context.Context, cardID, callerID int64) (string, error)
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transfer handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

type request struct {
	FromCardID int64  `json:"from_card_id" binding:"required,min=1"`
	ToCardID   int64  `json:"to_card_id" binding:"required,min=1"`
	Amount     string `json:"amount" binding:"required"`
}

type data struct {
	Transfer domain.TransferResponse `json:"transfer"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

// Create handles http request to transfer money between two cards.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})

			return
		}

		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	arg := domain.CreateTransferParams{
		FromCardID: req.FromCardID,
		ToCardID:   req.ToCardID,
		Amount:     req.Amount,
	}

	result, err := h.service.Transfer(ctx, authPayload.AccountID, arg)
	if err != nil {
		l.Info().Err(err).Send()
		handleError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{result}})
}

type balanceRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type balanceData struct {
	CardID  int64  `json:"card_id"`
	Balance string `json:"balance"`
}

type balanceResponse struct {
	Data balanceData `json:"data,omitempty"`
}

// GetBalance handles http request to read a card balance.
func (h *Handler) GetBalance(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req balanceRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	balance, err := h.service.GetBalance(ctx, req.ID, authPayload.AccountID)
	if err != nil {
		l.Info().Err(err).Send()
		handleError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, balanceResponse{Data: balanceData{CardID: req.ID, Balance: balance}})
}

func handleError(gctx *gin.Context, err error) {
	var insufficient domain.InsufficientFundsError
	if errors.As(err, &insufficient) {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	switch err {
	case domain.ErrCardNotFound:
		gctx.JSON(http.StatusNotFound, web.Error(err))
		return
	case domain.ErrCardOwnerMismatch:
		gctx.JSON(http.StatusForbidden, web.Error(err))
		return
	case
		domain.ErrSameCardTransfer,
		domain.ErrInvalidAmount,
		domain.ErrNegativeAmount,
		domain.ErrCardExpired,
		domain.ErrCardNotActive:
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
}
