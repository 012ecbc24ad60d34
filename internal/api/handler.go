package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"pharmacy/m/internal/apperror"
	"pharmacy/m/internal/auth"
	"pharmacy/m/internal/service"
)

type Options struct {
	AllowedOrigins []string
	// LoginRate limits login attempts per client IP, formatted like "20-M".
	LoginRate string
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	svc    *service.Service
	tokens *auth.Tokens
	logger *zap.Logger
	opts   Options
}

// New constructs a Handler.
func New(svc *service.Service, tokens *auth.Tokens, logger *zap.Logger, opts Options) *Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.LoginRate == "" {
		opts.LoginRate = "20-M"
	}
	return &Handler{svc: svc, tokens: tokens, logger: logger, opts: opts}
}

// Router wires up the HTTP API.
func (h *Handler) Router() (http.Handler, error) {
	loginLimit, err := h.loginRateLimit()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/login", h.login)
			r.Group(func(protected chi.Router) {
				protected.Use(h.authMiddleware)
				protected.Get("/me", h.me)
				protected.Post("/change-password", h.changePassword)
			})
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.authMiddleware)

			pr.Route("/medicines", func(r chi.Router) {
				r.With(h.require(auth.OpReadCatalog)).Get("/", h.listMedicines)
				r.With(h.require(auth.OpReadCatalog)).Get("/low-stock", h.lowStockMedicines)
				r.With(h.require(auth.OpReadCatalog)).Get("/expiring", h.expiringMedicines)
				r.With(h.require(auth.OpReadCatalog)).Get("/{id}", h.getMedicine)
				r.With(h.require(auth.OpWriteMedicine)).Post("/", h.createMedicine)
				r.With(h.require(auth.OpWriteMedicine)).Put("/{id}", h.updateMedicine)
				r.With(h.require(auth.OpWriteMedicine)).Patch("/{id}/stock", h.adjustStock)
				r.With(h.require(auth.OpWriteMedicine)).Delete("/{id}", h.deleteMedicine)
			})

			pr.Route("/suppliers", func(r chi.Router) {
				r.With(h.require(auth.OpReadCatalog)).Get("/", h.listSuppliers)
				r.With(h.require(auth.OpReadCatalog)).Get("/{id}", h.getSupplier)
				r.With(h.require(auth.OpWriteSupplier)).Post("/", h.createSupplier)
				r.With(h.require(auth.OpWriteSupplier)).Put("/{id}", h.updateSupplier)
				r.With(h.require(auth.OpWriteSupplier)).Delete("/{id}", h.deleteSupplier)
			})

			pr.Route("/purchases", func(r chi.Router) {
				r.With(h.require(auth.OpReadPurchases)).Get("/", h.listPurchases)
				r.With(h.require(auth.OpReadPurchases)).Get("/{id}", h.getPurchase)
				r.With(h.require(auth.OpWritePurchases)).Post("/", h.createPurchase)
				r.With(h.require(auth.OpWritePurchases)).Patch("/{id}", h.updatePurchase)
				r.With(h.require(auth.OpWritePurchases)).Delete("/{id}", h.deletePurchase)
			})

			pr.Route("/sales", func(r chi.Router) {
				r.With(h.require(auth.OpReadSales)).Get("/", h.listSales)
				r.With(h.require(auth.OpReadSales)).Get("/{id}", h.getSale)
				r.With(h.require(auth.OpWriteSales)).Post("/", h.createSale)
				r.With(h.require(auth.OpWriteSales)).Patch("/{id}", h.updateSale)
				r.With(h.require(auth.OpDeleteSales)).Delete("/{id}", h.deleteSale)
			})

			pr.With(h.require(auth.OpViewDashboard)).Get("/dashboard/stats", h.dashboardStats)

			pr.Route("/users", func(r chi.Router) {
				r.Use(h.require(auth.OpManageUsers))
				r.Get("/", h.listUsers)
				r.Post("/", h.createUser)
				r.Put("/{id}", h.updateUser)
				r.Delete("/{id}", h.deleteUser)
				r.Patch("/{id}/status", h.setUserStatus)
				r.Post("/{id}/reset-password", h.resetUserPassword)
			})
		})
	})

	return r, nil
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers

func urlID(r *http.Request, what string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.InvalidInput("invalid %s id", what)
	}
	return id, nil
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.InvalidInput("request body is required")
		}
		return apperror.InvalidInput("invalid request body: %s", strings.TrimPrefix(err.Error(), "json: "))
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    apperror.Kind `json:"kind"`
	Message string        `json:"message"`
}

func respondError(w http.ResponseWriter, status int, kind apperror.Kind, message string) {
	respondJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

// fail maps a service error onto its status and logs anything unexpected.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	respondError(w, status, kind, apperror.Message(err))
}

func queryInt(r *http.Request, key string) (int64, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, true, apperror.InvalidInput("%s must be an integer", key)
	}
	return v, true, nil
}
