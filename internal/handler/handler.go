package handler

import (
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/bulkimport"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/cache"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/config"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/events"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/repository"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	cache      *cache.Cache
	publisher  *events.Publisher
	committer  *bulkimport.Committer

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, c *cache.Cache, publisher *events.Publisher) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息中使用 json 字段名，与客户端看到的一致
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	committer := bulkimport.NewCommitter(
		repo,
		bulkimport.WithBatchSize(cfg.BulkImport.BatchSize),
		bulkimport.WithRateLimit(cfg.BulkImport.BatchesPerSecond),
		bulkimport.WithBatchObserver(metrics.RecordImportBatch),
	)

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		cache:      c,
		publisher:  publisher,
		committer:  committer,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Healthz)
	h.Mux.Method("GET", "/metrics", metrics.Handler())

	// 以下 API 必须要携带有效的令牌
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)

		r.Route("/me", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Get("/settings", h.GetMySettings)
			r.Get("/completion", h.GetMyCompletion)
			r.Route("/leave-days", func(r chi.Router) {
				r.Get("/", h.GetMyLeaveDays)
				r.Post("/", h.CreateLeaveDay)
				r.Delete("/{id}", h.DeleteLeaveDay)
			})
		})

		r.Route("/entries", func(r chi.Router) {
			r.Post("/", h.CreateEntry)
			r.Get("/", h.GetMyEntries)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.entryInfo)
				r.Get("/", h.GetEntry)
				r.Patch("/", h.UpdateEntry)
				r.Post("/submit", h.SubmitEntry)
				r.Post("/approve", h.ApproveEntry)
				r.Post("/reject", h.RejectEntry)
			})
		})

		r.Get("/approvals/queue", h.GetApprovalQueue)
		r.Route("/approval-settings", func(r chi.Router) {
			r.Get("/", h.GetApprovalSettings)
			r.With(h.RequiredRole([]domain.Role{domain.RoleOrgAdmin})).Put("/", h.UpdateApprovalSettings)
		})

		r.With(h.departmentInfo).Get("/departments/{id}/calendar", h.GetDepartmentCalendar)

		r.Post("/imports", h.ImportEntries)
	})
}
