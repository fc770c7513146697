package handler

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/opsdesk/shift-backend/internal/config"
	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/opsdesk/shift-backend/internal/mailer"
	"github.com/opsdesk/shift-backend/internal/scheduler"
	"github.com/opsdesk/shift-backend/internal/utils"
	"github.com/redis/go-redis/v9"
)

// UserStore is the user persistence the handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
	CheckEmailIfExists(ctx context.Context, email string) (bool, error)
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	users       UserStore
	scheduler   *scheduler.Scheduler
	translator  ut.Translator
	mailer      mailer.Sender
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, users UserStore, sched *scheduler.Scheduler, sender mailer.Sender, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	if err := registerTimeValidation(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		users:       users,
		scheduler:   sched,
		translator:  trans,
		mailer:      sender,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

// jsonFieldName makes validation messages name fields the way clients spell them.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func registerTimeValidation(validate *validator.Validate, trans ut.Translator) error {
	err := validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return utils.ValidateTimeFormat(fl.Field().String())
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation("hhmm", trans,
		func(ut ut.Translator) error {
			return ut.Add("hhmm", "{0} must be a time in HH:mm format", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("hhmm", fe.Field())
			return t
		},
	)
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	adminOnly := h.RequiredRole([]domain.Role{domain.RoleAdmin})

	h.Mux.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.Route("/reset-password", func(r chi.Router) {
				r.Post("/require", h.RequireResetPassword)
				r.Post("/confirm", h.ConfirmResetPassword)
			})
			r.With(h.auth, adminOnly).Post("/register", h.Register)
		})

		// everything below needs a valid token
		r.Group(func(r chi.Router) {
			r.Use(h.auth)

			r.Route("/me", func(r chi.Router) {
				r.Use(h.myInfo)
				r.Get("/", h.GetMyInfo)
				r.Patch("/password", h.UpdateMyPassword)
				r.Route("/email", func(r chi.Router) {
					r.Post("/require", h.RequireUpdateEmail)
					r.Post("/confirm", h.ConfirmUpdateEmail)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.With(adminOnly).Post("/", h.CreateUser)
				r.Get("/", h.GetAllUserInfo)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.userInfo)
					r.Get("/", h.GetUserInfo)
					r.With(adminOnly, h.preventOperateInitialAdmin).Patch("/", h.UpdateUser)
					r.With(adminOnly, h.preventOperateInitialAdmin).Delete("/", h.DeleteUser)
				})
			})

			r.Route("/shifts", func(r chi.Router) {
				r.With(adminOnly).Post("/", h.CreateShifts)
				r.Get("/", h.GetAllShifts)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.shiftID)
					r.Get("/", h.GetShift)
					r.With(adminOnly).Put("/", h.UpdateShifts)
					r.With(adminOnly).Delete("/", h.DeleteShift)
				})
			})
		})
	})
}
