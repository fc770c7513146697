package handler

import (
	"net/http"

	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/opsdesk/shift-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetAllUserInfo(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetAllUsers(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "users loaded", users)
}

// CreateUser creates an account with a random password and mails the
// credentials to the new user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=admin employee"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		Name:         req.Name,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
	}

	if err := h.users.CreateUser(r.Context(), user); err != nil {
		h.userWriteError(w, r, err)
		return
	}

	mailMessage := domain.MailMessage{
		Type: domain.MailNewAccount,
		To:   user.Email,
		Data: domain.NewAccountMailData{
			Name:     user.Name,
			Username: user.Username,
			Password: password,
		},
	}

	if err := h.mailer.Send(r.Context(), mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.createdResponse(w, r, "user created", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "user loaded", user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username *string `json:"username" validate:"omitempty,min=1"`
		Name     *string `json:"name" validate:"omitempty,min=1"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Role     *string `json:"role" validate:"omitempty,oneof=admin employee"`
		Password *string `json:"password" validate:"omitempty,min=6"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	patch := domain.UserPatch{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}
	if req.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		hash := string(hashedPassword)
		patch.PasswordHash = &hash
	}

	user := r.Context().Value(UserInfoCtx).(*domain.User)
	patch.Apply(user)

	if err := h.users.UpdateUser(r.Context(), user); err != nil {
		h.userWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "user updated", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if err := h.users.DeleteUser(r.Context(), user.ID); err != nil {
		h.userWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "user deleted", nil)
}
