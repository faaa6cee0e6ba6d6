package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"question_bank_backend/internal/exam"
	"question_bank_backend/internal/service"
	"question_bank_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

type ExportController struct {
	ExportService *service.ExportService
}

func NewExportController(exportService *service.ExportService) *ExportController {
	return &ExportController{ExportService: exportService}
}

// PrintTestDOCX godoc
// @Summary Export questions as a DOCX exam
// @Description Questions appear in request order. gabarito_option is one of only_questions, only_answer_key, only_answer_key_full, after_each_question, final_section.
// @Tags export
// @Accept  json
// @Produce application/vnd.openxmlformats-officedocument.wordprocessingml.document
// @Security ApiKeyAuth
// @Param   body body service.ExportRequest true "Export request"
// @Success 200 {file} binary "DOCX document"
// @Failure 400 {object} util.Response "question_ids deve ser uma lista não vazia"
// @Failure 404 {object} util.Response "Nenhuma questão encontrada"
// @Failure 500 {object} util.Response "Every conversion strategy failed"
// @Router /api/print-test/docx [post]
func (c *ExportController) PrintTestDOCX(ctx *gin.Context) {
	c.export(ctx, exam.FormatDOCX)
}

// PrintTestPDF godoc
// @Summary Export questions as a PDF exam
// @Description Same payload as the DOCX export
// @Tags export
// @Accept  json
// @Produce application/pdf
// @Security ApiKeyAuth
// @Param   body body service.ExportRequest true "Export request"
// @Success 200 {file} binary "PDF document"
// @Failure 400 {object} util.Response "question_ids deve ser uma lista não vazia"
// @Failure 404 {object} util.Response "Nenhuma questão encontrada"
// @Failure 500 {object} util.Response "Every conversion strategy failed"
// @Router /api/print-test/pdf [post]
func (c *ExportController) PrintTestPDF(ctx *gin.Context) {
	c.export(ctx, exam.FormatPDF)
}

func (c *ExportController) export(ctx *gin.Context, format exam.Format) {
	var req service.ExportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, bindErrorDetail(err))
		return
	}

	file, err := c.ExportService.Export(ctx.Request.Context(), &req, format)
	if err != nil {
		var exhausted *exam.ExhaustedError
		switch {
		case errors.Is(err, util.ErrEmptyQuestionIDs):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrQuestionsNotFound):
			util.NotFound(ctx, err.Error())
		case errors.As(err, &exhausted):
			util.Error(ctx, http.StatusInternalServerError, exhausted.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	ctx.Header("X-Export-Strategy", file.Strategy)
	util.Attachment(ctx, file.Name, file.ContentType, file.Data)
}

// bindErrorDetail keeps the question_ids message for a missing body or a
// malformed id list and reports the decoder error for any other field.
func bindErrorDetail(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.Is(err, io.EOF) || (errors.As(err, &typeErr) && strings.HasPrefix(typeErr.Field, "question_ids")) {
		return util.ErrEmptyQuestionIDs.Error()
	}
	if typeErr != nil {
		return fmt.Sprintf("%s: esperado %s, recebido %s", typeErr.Field, typeErr.Type, typeErr.Value)
	}
	return err.Error()
}
