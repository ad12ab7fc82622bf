package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/lettermail/go-lettermail-server/services"
	"github.com/lettermail/go-lettermail-server/types"
)

type MailDeleteApi struct {
	deleteService *services.DeleteService
	validate      *validator.Validate
}

func NewMailDeleteApi(deleteService *services.DeleteService) *MailDeleteApi {
	return &MailDeleteApi{
		deleteService: deleteService,
		validate:      validator.New(),
	}
}

// Delete a single email
// @Security SessionCookie
// @Summary Delete one email for the calling participant
// @Description Hides the email from the caller; purges it once both sides deleted it
// @Tags Mail
// @Param id path int true "email id"
// @Success 200 {object} types.OutputMessage
// @Failure 400 {object} api.ApiError "invalid email id"
// @Failure 401 {object} api.ApiError "not signed in"
// @Failure 404 {object} api.ApiError "email not found"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "Internal server error"
// @Produce json
// @Router /api/v1/emails/{id} [delete]
func (md *MailDeleteApi) DeleteEmail(c *gin.Context) {
	userID := c.GetInt64("userID")
	emailID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid email id")
		return
	}

	if dErr := md.deleteService.DeleteOne(c.Request.Context(), emailID, userID); dErr != nil {
		if errors.Is(dErr, types.ErrNotFound) {
			ApiErrorf(c, http.StatusNotFound, "email not found")
			return
		}
		ApiErrorf(c, http.StatusInternalServerError, "failed to delete email")
		return
	}
	c.JSON(http.StatusOK, &types.OutputMessage{Message: "email deleted"})
}

// Bulk delete emails
// @Security SessionCookie
// @Summary Delete a batch of emails for the calling participant
// @Description All-or-nothing: any persistence failure rolls the whole batch back. Ids not owned by the caller are skipped.
// @Tags Mail
// @Param input body types.InputBulkDelete true "email ids to delete"
// @Success 200 {object} types.OutputMessage
// @Failure 400 {object} api.ApiError "no email ids given"
// @Failure 401 {object} api.ApiError "not signed in"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "transaction failed, nothing deleted"
// @Accept json
// @Produce json
// @Router /api/v1/emails [delete]
func (md *MailDeleteApi) BulkDelete(c *gin.Context) {
	userID := c.GetInt64("userID")

	var input types.InputBulkDelete
	if err := c.ShouldBindJSON(&input); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid bulk delete input")
		return
	}
	if err := md.validate.Struct(input); err != nil {
		msg := ValidatorErrorToUser(err.(validator.ValidationErrors))
		ApiErrorf(c, http.StatusBadRequest, msg)
		return
	}

	ids := input.AllIDs()
	if len(ids) == 0 {
		ApiErrorf(c, http.StatusBadRequest, "no email ids given")
		return
	}

	if dErr := md.deleteService.DeleteBulk(c.Request.Context(), ids, userID); dErr != nil {
		if errors.Is(dErr, types.ErrBadRequest) {
			ApiErrorf(c, http.StatusBadRequest, "no email ids given")
			return
		}
		if errors.Is(dErr, types.ErrTransaction) {
			ApiErrorf(c, http.StatusInternalServerError, "bulk delete failed, no emails were deleted")
			return
		}
		ApiErrorf(c, http.StatusInternalServerError, "failed to delete emails")
		return
	}
	c.JSON(http.StatusOK, &types.OutputMessage{Message: "emails deleted"})
}
