package handler

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/config"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/repository"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/session"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/utils"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/workflow"
)

// MailPublisher 将邮件投递到消息队列，由 mail worker 负责实际发送
type MailPublisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	repository    *repository.Repository
	translator    ut.Translator
	mailPublisher MailPublisher
	redisClient   *redis.Client
	catalog       *catalog.Catalog
	workflow      *workflow.Workflow

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mail MailPublisher, rdb *redis.Client, c *catalog.Catalog) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// 校验错误信息中使用 json 字段名
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := utils.RegisterValidations(validate); err != nil {
		return nil, err
	}

	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	if err := validate.RegisterTranslation("clock12", trans, func(ut ut.Translator) error {
		return ut.Add("clock12", "{0} must be a 12-hour clock time such as 08:30", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("clock12", fe.Field())
		return t
	}); err != nil {
		return nil, err
	}

	drafts := session.NewDraftStore(
		rdb,
		time.Duration(cfg.Draft.Expiration)*time.Second,
		time.Duration(cfg.Redis.OperationExpiration)*time.Second,
	)

	return &Handler{
		validate:      validate,
		config:        cfg,
		repository:    repo,
		translator:    trans,
		mailPublisher: mail,
		redisClient:   rdb,
		catalog:       c,
		workflow:      workflow.New(drafts, repo, c),

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 注册页面需要在登录前获取角色列表
	h.Mux.Get("/catalog/roles", h.GetRoles)

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)

		r.Route("/my-info", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/allocations", func(r chi.Router) {
			r.Get("/options", h.GetAllocationOptions)
			r.Get("/draft", h.GetAllocationDraft)
			r.Delete("/draft", h.DiscardAllocationDraft)
			r.Post("/step1", h.SubmitShiftDetails)
			r.Post("/step2", h.SubmitStationSelection)
			r.Get("/summary", h.GetAllocationSummary)
			r.Post("/commit", h.CommitAllocation)
		})

		r.Get("/exports/{period}", h.ExportAllocations)
	})
}
