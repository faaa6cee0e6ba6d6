package controller

import (
	"errors"
	"net/http"
	"question_bank_backend/internal/service"
	"question_bank_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UploadController struct {
	StorageService *service.StorageService
}

func NewUploadController(storageService *service.StorageService) *UploadController {
	return &UploadController{StorageService: storageService}
}

// UploadImage godoc
// @Summary Upload an editor image
// @Description Rich-text editor upload adapter. The reply is a bare {"url": ...} object, not the usual envelope.
// @Tags upload
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   upload formData file true "Image file"
// @Success 200 {object} map[string]string "url"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/upload [post]
func (c *UploadController) UploadImage(ctx *gin.Context) {
	file, err := ctx.FormFile("upload")
	if err != nil {
		util.BadRequest(ctx, "Invalid request")
		return
	}

	url, err := c.StorageService.UploadImage(ctx.Request.Context(), file)
	if err != nil {
		if errors.Is(err, util.ErrInvalidFileType) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"url": url})
}
