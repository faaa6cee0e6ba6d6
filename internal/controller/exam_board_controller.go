package controller

import (
	"errors"
	"net/http"
	"question_bank_backend/internal/service"
	"question_bank_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamBoardController struct {
	ExamBoardService *service.ExamBoardService
}

func NewExamBoardController(examBoardService *service.ExamBoardService) *ExamBoardController {
	return &ExamBoardController{ExamBoardService: examBoardService}
}

// ListExamBoards godoc
// @Summary List exam boards
// @Tags bancas
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.ExamBoard} "OK"
// @Router /api/bancas [get]
func (c *ExamBoardController) ListExamBoards(ctx *gin.Context) {
	boards, err := c.ExamBoardService.List()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, boards)
}

// GetExamBoard godoc
// @Summary Get an exam board
// @Tags bancas
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Exam board ID"
// @Success 200 {object} util.Response{data=model.ExamBoard} "OK"
// @Failure 404 {object} util.Response "Banca não encontrada"
// @Router /api/bancas/{id} [get]
func (c *ExamBoardController) GetExamBoard(ctx *gin.Context) {
	board, err := c.ExamBoardService.Get(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, board)
}

// CreateExamBoard godoc
// @Summary Create an exam board (staff only)
// @Tags bancas
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.ExamBoardInput true "Exam board"
// @Success 201 {object} util.Response{data=model.ExamBoard} "Created"
// @Failure 400 {object} util.Response "Nome é obrigatório"
// @Failure 403 {object} util.Response "Acesso negado"
// @Router /api/bancas [post]
func (c *ExamBoardController) CreateExamBoard(ctx *gin.Context) {
	var in service.ExamBoardInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	board, err := c.ExamBoardService.Create(&in)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Created(ctx, board)
}

// UpdateExamBoard godoc
// @Summary Update an exam board (staff only)
// @Description Omitted fields keep their current value
// @Tags bancas
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Exam board ID"
// @Param   body body service.ExamBoardInput true "Fields to change"
// @Success 200 {object} util.Response{data=model.ExamBoard} "OK"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 404 {object} util.Response "Banca não encontrada"
// @Router /api/bancas/{id} [put]
func (c *ExamBoardController) UpdateExamBoard(ctx *gin.Context) {
	var in service.ExamBoardInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	board, err := c.ExamBoardService.Update(util.MustParseUint(ctx.Param("id")), &in)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, board)
}

// DeleteExamBoard godoc
// @Summary Delete an exam board (staff only)
// @Tags bancas
// @Security ApiKeyAuth
// @Param   id path int true "Exam board ID"
// @Success 204 "No Content"
// @Failure 404 {object} util.Response "Banca não encontrada"
// @Router /api/bancas/{id} [delete]
func (c *ExamBoardController) DeleteExamBoard(ctx *gin.Context) {
	if err := c.ExamBoardService.Delete(util.MustParseUint(ctx.Param("id"))); err != nil {
		c.handleError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *ExamBoardController) handleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrExamBoardNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrNameRequired):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
