package controller

import (
	"errors"
	"question_bank_backend/internal/service"
	"question_bank_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// CredentialsRequest is the body of both register and login.
// swagger:model CredentialsRequest
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register godoc
// @Summary Register a new account
// @Description Creates a regular (non-staff) user
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body CredentialsRequest true "Email and password"
// @Success 201 {object} util.Response{data=object} "Created"
// @Failure 400 {object} util.Response "Missing fields or email already registered"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req CredentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, util.ErrMissingCredentials.Error())
		return
	}

	user, err := c.AuthService.Register(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrMissingCredentials), errors.Is(err, util.ErrEmailRegistered):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"id": user.ID, "email": user.Email})
}

// Login godoc
// @Summary Log in
// @Description Checks the credentials and returns a JWT
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body CredentialsRequest true "Email and password"
// @Success 200 {object} util.Response{data=service.LoginResult} "Token and user"
// @Failure 400 {object} util.Response "Invalid credentials"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req CredentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, util.ErrInvalidCredentials.Error())
		return
	}

	res, err := c.AuthService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, util.ErrInvalidCredentials) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, res)
}

// GetProfile godoc
// @Summary Current user profile
// @Tags auth
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User} "Success"
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /api/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	user, err := c.AuthService.Profile(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.Unauthorized(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, user)
}
