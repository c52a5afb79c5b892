package controllers

import (
	"net/http"

	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/app/services"
	"github.com/vendora/vendora/pkg/response"
	"github.com/vendora/vendora/pkg/validate"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	user, err := c.auth.Register(r.Context(), in)
	if err != nil {
		fail(w, err)
		return
	}
	response.Created(w, user)
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	pair, user, err := c.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, map[string]interface{}{
		"user":   user,
		"tokens": pair,
	})
}

func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := c.auth.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, pair)
}

func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.auth.Logout(r.Context(), in.RefreshToken)
	response.SuccessMessage(w, "logged out", nil)
}

func (c *AuthController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.Error(w, http.StatusBadRequest, "token is required")
		return
	}
	if err := c.auth.VerifyEmail(r.Context(), token); err != nil {
		fail(w, err)
		return
	}
	response.SuccessMessage(w, "email verified", nil)
}

func (c *AuthController) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	if err := c.auth.ResendVerification(r.Context(), in.Email); err != nil {
		fail(w, err)
		return
	}
	response.SuccessMessage(w, "if the address needs verification, a link has been sent", nil)
}

func (c *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	if err := c.auth.RequestPasswordReset(r.Context(), in.Email); err != nil {
		fail(w, err)
		return
	}
	response.SuccessMessage(w, "if the address exists, a reset link has been sent", nil)
}

func (c *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	if err := c.auth.ResetPassword(r.Context(), in.Token, in.Password); err != nil {
		fail(w, err)
		return
	}
	response.SuccessMessage(w, "password updated", nil)
}

func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	user, err := c.auth.Profile(r.Context(), userID)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, user)
}

func (c *AuthController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	var in struct {
		Name     string `json:"name" validate:"required,min=2,max=100"`
		Mobile   string `json:"mobile" validate:"nullable,phone"`
		Address  string `json:"address" validate:"nullable,max=500"`
		ShopName string `json:"shopName" validate:"nullable,max=200"`
	}
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	user, err := c.auth.UpdateProfile(r.Context(), userID, in.Name, models.Profile{
		Mobile:   in.Mobile,
		Address:  in.Address,
		ShopName: in.ShopName,
	})
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, user)
}

func (c *AuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	var in struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
	}
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	if err := c.auth.ChangePassword(r.Context(), userID, in.CurrentPassword, in.NewPassword); err != nil {
		fail(w, err)
		return
	}
	response.SuccessMessage(w, "password updated", nil)
}
