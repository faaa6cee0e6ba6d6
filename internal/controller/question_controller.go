package controller

import (
	"errors"
	"net/http"
	"question_bank_backend/internal/repository"
	"question_bank_backend/internal/service"
	"question_bank_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// queryList returns the repeated values of name, falling back to the plural
// form ("area_id" or "area_ids").
func queryList(ctx *gin.Context, name string) []string {
	if values := ctx.QueryArray(name); len(values) > 0 {
		return values
	}
	return ctx.QueryArray(name + "s")
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// parseBoolParam accepts "true" and "false" case-insensitively; anything else
// disables the filter.
func parseBoolParam(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

func questionFilterFromQuery(ctx *gin.Context) repository.QuestionFilter {
	return repository.QuestionFilter{
		Search:          strings.TrimSpace(ctx.Query("search")),
		AreaIDs:         util.ParseUintList(queryList(ctx, "area_id")),
		UnitIDs:         util.ParseUintList(queryList(ctx, "unidade_id")),
		TopicIDs:        util.ParseUintList(queryList(ctx, "topico_id")),
		SubtopicIDs:     util.ParseUintList(queryList(ctx, "subtopico_id")),
		CategoryIDs:     util.ParseUintList(queryList(ctx, "categoria_id")),
		Years:           util.ParseIntList(ctx.QueryArray("ano")),
		Boards:          nonEmpty(ctx.QueryArray("banca")),
		QuestionTypes:   nonEmpty(ctx.QueryArray("tipo_questao")),
		Difficulties:    nonEmpty(ctx.QueryArray("dificuldade")),
		EducationLevels: nonEmpty(ctx.QueryArray("grau_escolaridade")),
		HasImage:        parseBoolParam(ctx.Query("tem_imagem")),
	}
}

// ListQuestions godoc
// @Summary List questions
// @Description Paginated question list. Repeated or comma separated values are accepted for every list filter.
// @Tags questions
// @Produce  json
// @Security ApiKeyAuth
// @Param   search query string false "Case-insensitive text search in the statement"
// @Param   area_id query []int false "Area ids" collectionFormat(multi)
// @Param   unidade_id query []int false "Unit ids" collectionFormat(multi)
// @Param   topico_id query []int false "Topic ids" collectionFormat(multi)
// @Param   subtopico_id query []int false "Subtopic ids" collectionFormat(multi)
// @Param   categoria_id query []int false "Category ids" collectionFormat(multi)
// @Param   ano query []int false "Years" collectionFormat(multi)
// @Param   banca query []string false "Boards" collectionFormat(multi)
// @Param   tipo_questao query []string false "Question types" collectionFormat(multi)
// @Param   dificuldade query []string false "Difficulties" collectionFormat(multi)
// @Param   grau_escolaridade query []string false "Education levels" collectionFormat(multi)
// @Param   tem_imagem query bool false "Only questions with (true) or without (false) images"
// @Param   page query int false "Page number" default(1)
// @Param   limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]service.QuestionView}} "OK"
// @Failure 401 {object} util.Response "Unauthorized"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/questoes [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	page, limit := util.Pagination(ctx.Query("page"), ctx.Query("limit"))
	res, err := c.QuestionService.List(questionFilterFromQuery(ctx), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// GetQuestion godoc
// @Summary Get a question
// @Description Returns the question with enunciado_rendered and resposta_rendered, where math is replaced by inline images
// @Tags questions
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Question ID"
// @Success 200 {object} util.Response{data=service.QuestionView} "OK"
// @Failure 404 {object} util.Response "Not Found"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/questoes/{id} [get]
func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	view, err := c.QuestionService.Detail(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// CreateQuestion godoc
// @Summary Create a question (staff only)
// @Tags questions
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.QuestionInput true "Question"
// @Success 201 {object} util.Response{data=service.QuestionView} "Created"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/questoes [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	var in service.QuestionInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.QuestionService.Create(&in)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// UpdateQuestion godoc
// @Summary Replace a question (staff only)
// @Tags questions
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Question ID"
// @Param   body body service.QuestionInput true "Question"
// @Success 200 {object} util.Response{data=service.QuestionView} "OK"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 404 {object} util.Response "Not Found"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/questoes/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	var in service.QuestionInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.QuestionService.Update(util.MustParseUint(ctx.Param("id")), &in)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// DeleteQuestion godoc
// @Summary Delete a question (staff only)
// @Tags questions
// @Security ApiKeyAuth
// @Param   id path int true "Question ID"
// @Success 204 "No Content"
// @Failure 404 {object} util.Response "Not Found"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/questoes/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	if err := c.QuestionService.Delete(util.MustParseUint(ctx.Param("id"))); err != nil {
		c.handleError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *QuestionController) handleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrContentNotFound),
		errors.Is(err, util.ErrInvalidContentType),
		errors.Is(err, util.ErrInvalidContentParent):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
