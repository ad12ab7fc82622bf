package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lettermail/go-lettermail-server/global"
	"github.com/lettermail/go-lettermail-server/metrics"
	"github.com/lettermail/go-lettermail-server/services"
	"github.com/lettermail/go-lettermail-server/types"
	"github.com/lettermail/go-lettermail-server/util"
)

const defaultPageSize = 5

type MailApi struct {
	mailService *services.MailService
	store       services.AttachmentStore
	validate    *validator.Validate
}

func NewMailApi(mailService *services.MailService, store services.AttachmentStore) *MailApi {
	return &MailApi{
		mailService: mailService,
		store:       store,
		validate:    validator.New(),
	}
}

// Send a new email
// @Security SessionCookie
// @Summary Send an email with an optional attachment
// @Description Multipart form: recipientId, subject, body and an optional attachment file
// @Tags Mail
// @Param recipientId formData int true "recipient user id"
// @Param subject formData string false "subject, defaults to (no subject)"
// @Param body formData string false "body text"
// @Param attachment formData file false "attachment (pdf, doc, docx, txt, jpg, jpeg, png; max 5 MB)"
// @Success 201 {object} types.Email
// @Failure 400 {object} api.ApiError "invalid input or unknown recipient"
// @Failure 401 {object} api.ApiError "not signed in"
// @Failure 413 {object} api.ApiError "attachment too large"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "Internal server error"
// @Accept mpfd
// @Produce json
// @Router /api/v1/emails [post]
func (ma *MailApi) Send(c *gin.Context) {
	userID := c.GetInt64("userID")

	var input types.InputSendEmail
	if err := c.ShouldBind(&input); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid send input")
		return
	}
	if err := ma.validate.Struct(input); err != nil {
		msg := ValidatorErrorToUser(err.(validator.ValidationErrors))
		ApiErrorf(c, http.StatusBadRequest, msg)
		return
	}

	attachmentPath := ""
	attachmentName := ""
	fileHeader, fErr := c.FormFile("attachment")
	if fErr == nil && fileHeader != nil {
		path, name, upErr := ma.storeAttachment(c, fileHeader)
		if upErr != nil {
			return // response already written
		}
		attachmentPath = path
		attachmentName = name
	}

	email, err := ma.mailService.Send(c.Request.Context(), userID, &input, attachmentPath, attachmentName)
	if err != nil {
		if errors.Is(err, types.ErrBadRequest) {
			ApiErrorf(c, http.StatusBadRequest, "unknown recipient")
			return
		}
		global.Logger.Log("error", "failed to send email", "error", err.Error())
		ApiErrorf(c, http.StatusInternalServerError, "failed to send email")
		return
	}
	metrics.EmailsSentMetricsCount.Inc()
	c.JSON(http.StatusCreated, email)
}

// Inbox listing
// @Security SessionCookie
// @Summary List received emails
// @Description Paginated, newest first, five per page
// @Tags Mail
// @Param page query int false "page number, 1-based"
// @Success 200 {object} types.OutputEmailList
// @Failure 401 {object} api.ApiError "not signed in"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Produce json
// @Router /api/v1/inbox [get]
func (ma *MailApi) Inbox(c *gin.Context) {
	ma.listFolder(c, types.FolderInbox)
}

// Outbox listing
// @Security SessionCookie
// @Summary List sent emails
// @Description Paginated, newest first, five per page
// @Tags Mail
// @Param page query int false "page number, 1-based"
// @Success 200 {object} types.OutputEmailList
// @Failure 401 {object} api.ApiError "not signed in"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Produce json
// @Router /api/v1/outbox [get]
func (ma *MailApi) Outbox(c *gin.Context) {
	ma.listFolder(c, types.FolderOutbox)
}

func (ma *MailApi) listFolder(c *gin.Context, folder types.Folder) {
	userID := c.GetInt64("userID")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	items, total, lErr := ma.mailService.ListFolder(c.Request.Context(), userID, folder, page, defaultPageSize)
	if lErr != nil {
		global.Logger.Log("error", "failed to list folder", "folder", string(folder), "error", lErr.Error())
		ApiErrorf(c, http.StatusInternalServerError, "failed to list emails")
		return
	}

	totalPages := (total + defaultPageSize - 1) / defaultPageSize
	c.JSON(http.StatusOK, &types.OutputEmailList{
		Items:      items,
		Page:       page,
		PageSize:   defaultPageSize,
		TotalCount: total,
		TotalPages: totalPages,
	})
}

// Get a single email
// @Security SessionCookie
// @Summary Get one email by id
// @Description Only the sender and the recipient can read an email
// @Tags Mail
// @Param id path int true "email id"
// @Success 200 {object} types.Email
// @Failure 401 {object} api.ApiError "not signed in"
// @Failure 404 {object} api.ApiError "email not found"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Produce json
// @Router /api/v1/emails/{id} [get]
func (ma *MailApi) GetEmail(c *gin.Context) {
	userID := c.GetInt64("userID")
	emailID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid email id")
		return
	}

	email, gErr := ma.mailService.GetEmail(c.Request.Context(), emailID, userID)
	if gErr != nil {
		if errors.Is(gErr, types.ErrNotFound) {
			ApiErrorf(c, http.StatusNotFound, "email not found")
			return
		}
		ApiErrorf(c, http.StatusInternalServerError, "failed to retrieve email")
		return
	}
	c.JSON(http.StatusOK, email)
}

// Download an email attachment
// @Security SessionCookie
// @Summary Download the attachment of an email
// @Description Only the sender and the recipient can download
// @Tags Mail
// @Param id path int true "email id"
// @Success 200 {file} binary
// @Failure 401 {object} api.ApiError "not signed in"
// @Failure 404 {object} api.ApiError "email or attachment not found"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Produce octet-stream
// @Router /api/v1/emails/{id}/attachment [get]
func (ma *MailApi) DownloadAttachment(c *gin.Context) {
	userID := c.GetInt64("userID")
	emailID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid email id")
		return
	}

	email, gErr := ma.mailService.GetEmail(c.Request.Context(), emailID, userID)
	if gErr != nil {
		if errors.Is(gErr, types.ErrNotFound) {
			ApiErrorf(c, http.StatusNotFound, "email not found")
			return
		}
		ApiErrorf(c, http.StatusInternalServerError, "failed to retrieve email")
		return
	}
	if !email.HasAttachment() {
		ApiErrorf(c, http.StatusNotFound, "email has no attachment")
		return
	}

	content, dErr := ma.store.Download(c.Request.Context(), email.AttachmentPath)
	if dErr != nil {
		if errors.Is(dErr, types.ErrNotFound) {
			ApiErrorf(c, http.StatusNotFound, "attachment not found")
			return
		}
		global.Logger.Log("error", "failed to download attachment", "path", email.AttachmentPath, "error", dErr.Error())
		ApiErrorf(c, http.StatusInternalServerError, "failed to download attachment")
		return
	}

	disposition := "attachment"
	if util.DetectInlineContentType(email.AttachmentName) {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, email.AttachmentName))
	c.Data(http.StatusOK, http.DetectContentType(content), content)
}

// storeAttachment validates and uploads the file, writing the error
// response itself on failure.
func (ma *MailApi) storeAttachment(c *gin.Context, fileHeader *multipart.FileHeader) (string, string, error) {
	if fileHeader.Size > types.MaxAttachmentSizeBytes {
		ApiErrorf(c, http.StatusRequestEntityTooLarge, "attachment exceeds the 5 MB limit")
		return "", "", types.ErrBadRequest
	}

	if !util.IsAllowedAttachmentExtension(fileHeader.Filename) {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
		ApiErrorf(c, http.StatusBadRequest, "attachment type .%s is not allowed", ext)
		return "", "", types.ErrBadRequest
	}

	file, err := fileHeader.Open()
	if err != nil {
		ApiErrorf(c, http.StatusBadRequest, "failed to read attachment")
		return "", "", err
	}
	defer file.Close()

	content, rErr := io.ReadAll(io.LimitReader(file, types.MaxAttachmentSizeBytes+1))
	if rErr != nil {
		ApiErrorf(c, http.StatusBadRequest, "failed to read attachment")
		return "", "", rErr
	}
	if len(content) > types.MaxAttachmentSizeBytes {
		ApiErrorf(c, http.StatusRequestEntityTooLarge, "attachment exceeds the 5 MB limit")
		return "", "", types.ErrBadRequest
	}

	name := util.SanitizeFilename(fileHeader.Filename)
	if name == "" {
		ApiErrorf(c, http.StatusBadRequest, "invalid attachment filename")
		return "", "", types.ErrBadRequest
	}
	key := "attachments/" + uuid.NewString() + "_" + name
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	path, upErr := ma.store.Upload(c.Request.Context(), key, content, contentType)
	if upErr != nil {
		global.Logger.Log("error", "failed to upload attachment", "error", upErr.Error())
		ApiErrorf(c, http.StatusInternalServerError, "failed to store attachment")
		return "", "", upErr
	}
	metrics.AttachmentsUploadedMetricsCount.Inc()
	return path, name, nil
}
