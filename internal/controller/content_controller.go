package controller

import (
	"errors"
	"question_bank_backend/internal/model"
	"question_bank_backend/internal/repository"
	"question_bank_backend/internal/service"
	"question_bank_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	ContentService *service.ContentService
	QuestionRepo   *repository.QuestionRepository
}

func NewContentController(contentService *service.ContentService, questionRepo *repository.QuestionRepository) *ContentController {
	return &ContentController{
		ContentService: contentService,
		QuestionRepo:   questionRepo,
	}
}

// ListContents godoc
// @Summary List taxonomy nodes
// @Description Filters by tipo and pai_id. A tipo without pai_id returns root nodes only.
// @Tags contents
// @Produce  json
// @Security ApiKeyAuth
// @Param   tipo query string false "Node type" Enums(area, unidade, topico, subtopico, categoria)
// @Param   pai_id query int false "Parent ID"
// @Success 200 {object} util.Response{data=[]model.Content} "OK"
// @Failure 400 {object} util.Response "Bad Request"
// @Router /api/conteudos [get]
func (c *ContentController) ListContents(ctx *gin.Context) {
	var parentID *uint
	if id := util.MustParseUint(ctx.Query("pai_id")); id > 0 {
		parentID = &id
	}

	contents, err := c.ContentService.List(model.ContentType(strings.TrimSpace(ctx.Query("tipo"))), parentID)
	if err != nil {
		if errors.Is(err, util.ErrInvalidContentType) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, contents)
}

// ChildContents godoc
// @Summary Direct children of a node
// @Description Used by cascading selects; returns id and nome only
// @Tags contents
// @Produce  json
// @Security ApiKeyAuth
// @Param   pai_id query int true "Parent ID"
// @Success 200 {object} util.Response{data=[]repository.ContentChild} "OK"
// @Failure 400 {object} util.Response "pai_id ausente"
// @Router /api/buscar-conteudos [get]
func (c *ContentController) ChildContents(ctx *gin.Context) {
	parentID := util.MustParseUint(ctx.Query("pai_id"))
	if parentID == 0 {
		util.BadRequest(ctx, "pai_id ausente")
		return
	}

	children, err := c.ContentService.Children(parentID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, children)
}

// CreateContent godoc
// @Summary Create a taxonomy node (staff only)
// @Tags contents
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.ContentInput true "Node"
// @Success 201 {object} util.Response{data=model.Content} "Created"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 403 {object} util.Response "Forbidden"
// @Router /api/conteudos [post]
func (c *ContentController) CreateContent(ctx *gin.Context) {
	var in service.ContentInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	content, err := c.ContentService.Create(&in)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNameRequired),
			errors.Is(err, util.ErrInvalidContentType),
			errors.Is(err, util.ErrInvalidContentParent),
			errors.Is(err, util.ErrContentNotFound):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, content)
}

// UniqueValues godoc
// @Summary Distinct values of a question field
// @Description ano is returned newest first, text fields alphabetically
// @Tags contents
// @Produce  json
// @Security ApiKeyAuth
// @Param   field query string true "Field" Enums(banca, tipo_questao, dificuldade, ano, grau_escolaridade)
// @Success 200 {object} util.Response{data=[]string} "OK"
// @Failure 400 {object} util.Response "Bad Request"
// @Router /api/unique-values [get]
func (c *ContentController) UniqueValues(ctx *gin.Context) {
	field := strings.TrimSpace(ctx.Query("field"))
	if field == "" {
		util.BadRequest(ctx, "Field parameter is required")
		return
	}

	values, err := c.QuestionRepo.DistinctValues(field)
	if err != nil {
		if errors.Is(err, util.ErrInvalidField) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, values)
}
