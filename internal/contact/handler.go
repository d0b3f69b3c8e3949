package contact

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pentamaths/internal/config"
	"pentamaths/internal/constants"
	"pentamaths/internal/logger"
	apperrors "pentamaths/pkg/errors"
	"pentamaths/pkg/logging"
)

// Submitter is the part of Service the HTTP layer needs.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) Outcome
}

type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"Invalid email address"`
}

type OptionsResponse struct {
	SiteKey string  `json:"siteKey"`
	Action  string  `json:"action" example:"contact_form"`
	Levels  []Level `json:"levels"`
}

type Handler struct {
	service Submitter
	options OptionsResponse
	logger  logger.Logger
}

func NewHandler(service Submitter, contactCfg config.ContactConfig, recaptchaCfg config.RecaptchaConfig, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		options: OptionsResponse{
			SiteKey: recaptchaCfg.SiteKey,
			Action:  recaptchaCfg.Action,
			Levels:  Catalog(contactCfg.Levels, contactCfg.TrapLevels),
		},
		logger: log,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter, middlewares ...gin.HandlerFunc) {
	submit := append(append([]gin.HandlerFunc{}, middlewares...), h.Submit)
	router.POST(constants.ContactPath, submit...)
	router.GET(constants.ContactOptionsPath, h.Options)
}

// Submit godoc
// @Summary      Submit the contact form
// @Description  Filters, scores and forwards an enquiry. Suspected bots receive the same success response as people.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        request  body      SubmitRequest  true  "Contact form fields"
// @Success      200      {object}  SuccessResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      429      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /api/contact [post]
func (h *Handler) Submit(c *gin.Context) {
	ctx := logging.WithSubmissionID(c.Request.Context(), uuid.NewString())

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, apperrors.Wrap(err, apperrors.ErrInternal))
		return
	}

	out := h.service.Submit(ctx, req.ToSubmission())

	switch out.Status {
	case StatusAccepted, StatusAbsorbed:
		c.JSON(http.StatusOK, SuccessResponse{Success: true})
	case StatusRejected:
		h.handleError(c, apperrors.ErrInvalidSubmission.WithMessage(out.Problem))
	default:
		var err error = apperrors.ErrInternal
		if out.Err != nil {
			err = apperrors.Wrap(out.Err, apperrors.ErrInternal)
		}
		h.handleError(c, err)
	}
}

// Options godoc
// @Summary      Contact form options
// @Description  Public reCAPTCHA site key, expected action and the subject level options to render.
// @Tags         contact
// @Produce      json
// @Success      200  {object}  OptionsResponse
// @Router       /api/contact/options [get]
func (h *Handler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, h.options)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorwCtx(c.Request.Context(), "Error processing contact form", "error", err)
	}

	c.JSON(status, apperrors.ToErrorResponse(err))
}
