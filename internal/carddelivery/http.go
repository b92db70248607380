// Package carddelivery manages delivery layer of cards.
package carddelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Sergey-Spodarev/-Bank-REST/internal/domain"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/middleware"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/errorspkg"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/tokenpkg"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/web"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by card delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package carddelivery
type Service interface {
	Create(ctx context.Context, callerRole string, userID int64, ownerName, cardNumber string, expiryDate time.Time) (domain.CardResponse, error)
	Block(ctx context.Context, cardID, callerID int64, callerRole string) (domain.CardResponse, error)
	Activate(ctx context.Context, cardID int64, callerRole string) (domain.CardResponse, error)
	Delete(ctx context.Context, cardID int64, callerRole string) error
	List(ctx context.Context, callerRole, ownerName string, status domain.Status, page, pageSize int32) ([]domain.CardResponse, error)
	ListOwn(ctx context.Context, callerID int64, ownerName string, status domain.Status, page, pageSize int32) ([]domain.CardResponse, error)
}

// Handler facilitates card delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns card handler.
func NewHandler(cs Service) *Handler {
	return &Handler{service: cs}
}

type data struct {
	Card domain.CardResponse `json:"card"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

type createRequest struct {
	UserID     int64     `json:"user_id" binding:"required,min=1"`
	OwnerName  string    `json:"owner_name" binding:"required"`
	CardNumber string    `json:"card_number" binding:"required,numeric,min=12,max=19"`
	ExpiryDate time.Time `json:"expiry_date" binding:"required" time_format:"2006-01-02"`
}

// Create handles http request to issue a card.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
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

	card, err := h.service.Create(ctx, authPayload.Role, req.UserID, req.OwnerName, req.CardNumber, req.ExpiryDate)
	if err != nil {
		handleError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, response{Data: data{card}})
}

type uriRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// Block handles http request to block a card.
func (h *Handler) Block(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	card, err := h.service.Block(ctx, req.ID, authPayload.AccountID, authPayload.Role)
	if err != nil {
		handleError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{card}})
}

// Activate handles http request to activate a blocked card.
func (h *Handler) Activate(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	card, err := h.service.Activate(ctx, req.ID, authPayload.Role)
	if err != nil {
		handleError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{card}})
}

// Delete handles http request to delete a card.
func (h *Handler) Delete(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	if err := h.service.Delete(ctx, req.ID, authPayload.Role); err != nil {
		handleError(gctx, err)
		return
	}

	gctx.Status(http.StatusNoContent)
}

type listRequest struct {
	OwnerName string `form:"owner_name" binding:"omitempty"`
	Status    string `form:"status" binding:"omitempty,oneof=ACTIVE BLOCKED EXPIRED"`
	Page      int32  `form:"page" binding:"omitempty,min=0"`
	PageSize  int32  `form:"page_size" binding:"required,min=1,max=100"`
}

type dataCards struct {
	Cards []domain.CardResponse `json:"cards"`
}

type responseCards struct {
	Data dataCards `json:"data,omitempty"`
}

// List handles http request to list all cards (administrator scope).
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
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

	cards, err := h.service.List(ctx, authPayload.Role, req.OwnerName, domain.Status(req.Status), req.Page, req.PageSize)
	if err != nil {
		handleError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, responseCards{Data: dataCards{cards}})
}

// ListOwn handles http request to list the caller's cards.
func (h *Handler) ListOwn(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
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

	cards, err := h.service.ListOwn(ctx, authPayload.AccountID, req.OwnerName, domain.Status(req.Status), req.Page, req.PageSize)
	if err != nil {
		handleError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, responseCards{Data: dataCards{cards}})
}

// handleError maps domain errors to client-facing statuses. Business-rule
// violations never surface as generic failures.
func handleError(gctx *gin.Context, err error) {
	switch err {
	case domain.ErrCardNotFound, domain.ErrUserNotFound:
		gctx.JSON(http.StatusNotFound, web.Error(err))
		return
	case domain.ErrCardOwnerMismatch, domain.ErrAdminRequired:
		gctx.JSON(http.StatusForbidden, web.Error(err))
		return
	case domain.ErrPastExpiryDate, domain.ErrCardExpired:
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
}
