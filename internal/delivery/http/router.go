package http

import (
	"net/http"

	"clinic-booking/internal/delivery/http/handler"
	"clinic-booking/internal/delivery/http/middleware"
	"clinic-booking/pkg/metrics"
	"clinic-booking/pkg/response"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	doctorHandler       *handler.DoctorHandler
	serviceHandler      *handler.ServiceHandler
	patientHandler      *handler.PatientHandler
	appointmentHandler  *handler.AppointmentHandler
	availabilityHandler *handler.AvailabilityHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	requestLogger       *middleware.RequestLogger
	loginLimiter        *middleware.RateLimiter
	metrics             *metrics.Metrics
}

func NewRouter(
	authHandler *handler.AuthHandler,
	doctorHandler *handler.DoctorHandler,
	serviceHandler *handler.ServiceHandler,
	patientHandler *handler.PatientHandler,
	appointmentHandler *handler.AppointmentHandler,
	availabilityHandler *handler.AvailabilityHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	requestLogger *middleware.RequestLogger,
	loginLimiter *middleware.RateLimiter,
	m *metrics.Metrics,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		doctorHandler:       doctorHandler,
		serviceHandler:      serviceHandler,
		patientHandler:      patientHandler,
		appointmentHandler:  appointmentHandler,
		availabilityHandler: availabilityHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		requestLogger:       requestLogger,
		loginLimiter:        loginLimiter,
		metrics:             m,
	}
}

// Setup registers every route. Public routes are registered before the
// protected subrouters that share their paths with other methods.
func (r *Router) Setup() http.Handler {
	r.router.Use(r.requestLogger.Handle)

	r.router.HandleFunc("/", r.root).Methods(http.MethodGet)
	r.router.Handle("/metrics", r.metrics.Handler()).Methods(http.MethodGet)

	api := r.router.PathPrefix("/api").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Public routes
	public := api.NewRoute().Subrouter()
	public.Handle("/login", r.loginLimiter.Handle(http.HandlerFunc(r.authHandler.Login))).Methods(http.MethodPost)

	public.HandleFunc("/doctors", r.doctorHandler.GetAllDoctors).Methods(http.MethodGet)
	public.HandleFunc("/doctors/{id:[0-9]+}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)
	public.HandleFunc("/services", r.serviceHandler.GetAllServices).Methods(http.MethodGet)
	public.HandleFunc("/services/{id:[0-9]+}", r.serviceHandler.GetService).Methods(http.MethodGet)

	// "available" must win over {id}
	public.HandleFunc("/appointments/available", r.availabilityHandler.GetAvailableSlots).Methods(http.MethodGet)
	public.HandleFunc("/appointments", r.appointmentHandler.CreateAppointment).Methods(http.MethodPost)
	public.HandleFunc("/appointments/patient/{patient_id:[0-9]+}", r.appointmentHandler.GetAppointmentsByPatient).Methods(http.MethodGet)
	public.HandleFunc("/appointments/email/{email}", r.appointmentHandler.GetAppointmentsByEmail).Methods(http.MethodGet)
	public.HandleFunc("/appointments/{id:[0-9]+}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	public.HandleFunc("/appointments/{id:[0-9]+}", r.appointmentHandler.CancelAppointment).Methods(http.MethodDelete)

	// Auth routes (protected)
	authProtected := api.NewRoute().Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentAdmin).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := api.NewRoute().Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)

	// Appointment management
	admin.HandleFunc("/appointments", r.appointmentHandler.GetAllAppointments).Methods(http.MethodGet)
	admin.HandleFunc("/appointments/{id:[0-9]+}/approve", r.appointmentHandler.ApproveAppointment).Methods(http.MethodPut)
	admin.HandleFunc("/appointments/{id:[0-9]+}/reject", r.appointmentHandler.RejectAppointment).Methods(http.MethodPut)

	// Doctor management
	admin.HandleFunc("/doctors", r.doctorHandler.CreateDoctor).Methods(http.MethodPost)
	admin.HandleFunc("/doctors/{id:[0-9]+}", r.doctorHandler.UpdateDoctor).Methods(http.MethodPut)
	admin.HandleFunc("/doctors/{id:[0-9]+}", r.doctorHandler.DeleteDoctor).Methods(http.MethodDelete)

	// Service management
	admin.HandleFunc("/services", r.serviceHandler.CreateService).Methods(http.MethodPost)
	admin.HandleFunc("/services/{id:[0-9]+}", r.serviceHandler.UpdateService).Methods(http.MethodPut)
	admin.HandleFunc("/services/{id:[0-9]+}", r.serviceHandler.DeleteService).Methods(http.MethodDelete)

	// Patients
	admin.HandleFunc("/patients", r.patientHandler.GetAllPatients).Methods(http.MethodGet)
	admin.HandleFunc("/patients/{id:[0-9]+}", r.patientHandler.GetPatient).Methods(http.MethodGet)

	// Audit logs
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id:[0-9]+}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// CORS wraps the router so preflight requests never reach route matching
	return r.corsMiddleware.Handle(r.router)
}

func (r *Router) root(w http.ResponseWriter, req *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"message": "Clinic Appointment Booking API",
		"version": "1.0.0",
	})
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
