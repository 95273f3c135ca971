package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fishermenfirst/fleetquota-backend/api/controllers"
	"github.com/fishermenfirst/fleetquota-backend/api/middleware"
	"github.com/fishermenfirst/fleetquota-backend/internal/allocations"
	"github.com/fishermenfirst/fleetquota-backend/internal/auth"
	"github.com/fishermenfirst/fleetquota-backend/internal/bycatch"
	"github.com/fishermenfirst/fleetquota-backend/internal/harvests"
	"github.com/fishermenfirst/fleetquota-backend/internal/ledger"
	"github.com/fishermenfirst/fleetquota-backend/internal/refdata"
	"github.com/fishermenfirst/fleetquota-backend/internal/reports"
	"github.com/fishermenfirst/fleetquota-backend/internal/transfers"
	"github.com/fishermenfirst/fleetquota-backend/pkg/auth/session"
	"github.com/fishermenfirst/fleetquota-backend/pkg/config"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
	"github.com/fishermenfirst/fleetquota-backend/pkg/metrics"
	pkgredis "github.com/fishermenfirst/fleetquota-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers. Optional entries
// (pubsub, metrics) may be nil.
type Deps struct {
	Sessions       session.AccessSessionChecker
	RedisClient    *pkgredis.Client
	HealthChecks   map[string]controllers.Pinger
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	AuthService        auth.Service
	LedgerService      ledger.Service
	TransfersService   transfers.Service
	AllocationsService allocations.Service
	HarvestsService    harvests.Service
	BycatchService     bycatch.Service
	RefdataService     refdata.Service
	ReportsService     reports.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	admin := string(enums.RoleAdmin)
	manager := string(enums.RoleManager)
	vesselOwner := string(enums.RoleVesselOwner)
	processor := string(enums.RoleProcessor)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthChecks))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		var idemStore pkgredis.IdempotencyStore
		if deps.RedisClient != nil {
			idemStore = deps.RedisClient
		}
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Post("/me/password", controllers.AuthChangePassword(deps.AuthService, logg))

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, admin))
			r.Get("/", controllers.UserList(deps.AuthService, logg))
			r.Post("/", controllers.UserCreate(deps.AuthService, logg))
		})

		r.Route("/ledger", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, admin, manager, processor)).
				Get("/", controllers.LedgerFleet(deps.LedgerService, cfg.Quota, logg))
			r.Get("/{llp}", controllers.LedgerForPermit(deps.LedgerService, cfg.Quota, logg))
			r.Get("/{llp}/{speciesCode}", controllers.LedgerRemaining(deps.LedgerService, cfg.Quota, logg))
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Get("/", controllers.TransferList(deps.TransfersService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin, manager))
				r.Post("/validate", controllers.TransferValidate(deps.TransfersService, cfg.Quota, logg))
				r.Post("/", controllers.TransferCreate(deps.TransfersService, cfg.Quota, logg))
			})
			r.With(middleware.RequireRole(logg, admin)).
				Delete("/{transferId}", controllers.TransferDelete(deps.TransfersService, logg))
		})

		r.Route("/allocations", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, admin, manager))
			r.Get("/", controllers.QuotaAllocationList(deps.AllocationsService, logg))
			r.Post("/", controllers.QuotaAllocationCreate(deps.AllocationsService, logg))
			r.Get("/{allocationId}", controllers.QuotaAllocationGet(deps.AllocationsService, logg))
			r.Patch("/{allocationId}", controllers.QuotaAllocationUpdateAmount(deps.AllocationsService, logg))
			r.Delete("/{allocationId}", controllers.QuotaAllocationDelete(deps.AllocationsService, logg))
		})

		r.Route("/vessel-allocations", func(r chi.Router) {
			r.Get("/", controllers.VesselAllocationList(deps.AllocationsService, cfg.Quota, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin, manager))
				r.Post("/", controllers.VesselAllocationCreate(deps.AllocationsService, cfg.Quota, logg))
				r.Delete("/{allocationId}", controllers.VesselAllocationDelete(deps.AllocationsService, logg))
			})
		})

		r.Route("/harvests", func(r chi.Router) {
			r.Get("/", controllers.HarvestList(deps.HarvestsService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin, manager, processor))
				r.Post("/", controllers.HarvestCreate(deps.HarvestsService, logg))
				r.Post("/import", controllers.HarvestImport(deps.HarvestsService, logg))
			})
			r.With(middleware.RequireRole(logg, admin, manager)).
				Delete("/{harvestId}", controllers.HarvestDelete(deps.HarvestsService, logg))
		})

		r.Route("/bycatch-alerts", func(r chi.Router) {
			r.Get("/", controllers.AlertList(deps.BycatchService, logg))
			r.Get("/pending-count", controllers.AlertPendingCount(deps.BycatchService, logg))
			r.Get("/{alertId}", controllers.AlertGet(deps.BycatchService, logg))
			r.With(middleware.RequireRole(logg, admin, manager, vesselOwner)).
				Post("/", controllers.AlertCreate(deps.BycatchService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin, manager))
				r.Patch("/{alertId}", controllers.AlertUpdate(deps.BycatchService, logg))
				r.Post("/{alertId}/share", controllers.AlertShare(deps.BycatchService, logg))
				r.Post("/{alertId}/dismiss", controllers.AlertDismiss(deps.BycatchService, logg))
			})
		})

		r.Route("/refdata", func(r chi.Router) {
			r.Get("/cooperatives", controllers.CooperativeList(deps.RefdataService, logg))
			r.Get("/seasons", controllers.SeasonList(deps.RefdataService, logg))
			r.Get("/species", controllers.SpeciesList(deps.RefdataService, logg))
			r.Get("/vessels", controllers.VesselList(deps.RefdataService, logg))
			r.Get("/members", controllers.MemberList(deps.RefdataService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin, manager))
				r.Post("/cooperatives", controllers.CooperativeCreate(deps.RefdataService, logg))
				r.Put("/cooperatives/{coopId}", controllers.CooperativeRename(deps.RefdataService, logg))
				r.Post("/seasons", controllers.SeasonCreate(deps.RefdataService, logg))
				r.Post("/seasons/{seasonId}/activate", controllers.SeasonActivate(deps.RefdataService, logg))
				r.Post("/species", controllers.SpeciesCreate(deps.RefdataService, logg))
				r.Post("/vessels", controllers.VesselCreate(deps.RefdataService, logg))
				r.Post("/members", controllers.MemberCreate(deps.RefdataService, logg))
				r.Patch("/members/{memberId}", controllers.MemberUpdate(deps.RefdataService, logg))
				r.Delete("/members/{memberId}", controllers.MemberDelete(deps.RefdataService, logg))
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, admin, manager, processor)).
				Get("/dashboard", controllers.Dashboard(deps.ReportsService, cfg.Quota, logg))
			r.Get("/balances", controllers.BalanceList(deps.ReportsService, logg))
			r.Get("/details", controllers.DetailList(deps.ReportsService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin, manager))
				r.Post("/balances/import", controllers.BalanceImport(deps.ReportsService, logg))
				r.Post("/details/import", controllers.DetailImport(deps.ReportsService, logg))
			})
		})
	})

	return r
}
