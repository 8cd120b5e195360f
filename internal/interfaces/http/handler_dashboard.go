package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"voicedesk/internal/entities"
	"voicedesk/internal/interfaces"
	"voicedesk/internal/repository"
	"voicedesk/internal/usecases"
)

// DashboardHandler serves the tenant self-service API: auth, call config,
// call history and usage. Every tenant-scoped route reads the tenant id
// from the JWT, never from the request body.
type DashboardHandler struct {
	auth       *usecases.AuthUsecase
	tenantRepo *repository.TenantRepository
	callRepo   *repository.CallRepository
	usageRepo  *repository.UsageRepository
	userRepo   *repository.UserRepository
	cache      interfaces.ConfigCache
	log        zerolog.Logger
}

func NewDashboardHandler(
	auth *usecases.AuthUsecase,
	tenantRepo *repository.TenantRepository,
	callRepo *repository.CallRepository,
	usageRepo *repository.UsageRepository,
	userRepo *repository.UserRepository,
	cache interfaces.ConfigCache,
	log zerolog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		auth:       auth,
		tenantRepo: tenantRepo,
		callRepo:   callRepo,
		usageRepo:  usageRepo,
		userRepo:   userRepo,
		cache:      cache,
		log:        log,
	}
}

// SetupRoutes registers all HTTP routes.
func SetupRoutes(r *gin.Engine, m *Middleware, dashboard *DashboardHandler, voice *VoiceHandler, audioDir string) {
	r.Use(SecurityHeaders())
	r.Use(m.CORSMiddleware())
	r.Use(RequestSizeLimiter(1 << 20)) // 1 MB

	// Telephony gateway webhooks (form-encoded, no JWT; the gateway signs
	// requests at the network layer)
	r.POST("/voice/incoming", voice.HandleIncoming)
	r.POST("/voice/recording", voice.HandleRecording)
	r.POST("/voice/status", voice.HandleStatus)

	// Synthesized audio served back to the gateway
	r.Static("/audio", audioDir)

	r.POST("/auth/register", dashboard.Register)
	r.POST("/auth/login", dashboard.Login)

	api := r.Group("/api")
	api.Use(m.AuthRequired())
	api.Use(m.RateLimitPerUser(rate.Limit(5), 10))
	{
		api.GET("/tenant", dashboard.GetTenant)
		api.PUT("/tenant", dashboard.UpdateTenant)
		api.GET("/calls", dashboard.ListCalls)
		api.GET("/calls/:sid/turns", dashboard.ListTurns)
		api.GET("/usage", dashboard.GetUsage)
	}

	admin := r.Group("/api/admin")
	admin.Use(m.AuthRequired(), m.AdminRequired())
	{
		admin.POST("/tenants", dashboard.CreateTenant)
		admin.PUT("/tenants/:id/active", dashboard.SetTenantActive)
		admin.PUT("/users/:id/tenant", dashboard.BindUserTenant)
	}
}

func (h *DashboardHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Password string `json:"password" binding:"required,min=8,max=72"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: username (3-50 chars) and password (8-72 chars) required"})
		return
	}

	if err := h.auth.Register(SanitizeString(req.Username), req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

func (h *DashboardHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *DashboardHandler) GetTenant(c *gin.Context) {
	tenantID, ok := tenantIDFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "No tenant bound to this account"})
		return
	}

	cfg, err := h.tenantRepo.GetByID(c.Request.Context(), tenantID)
	if err != nil {
		h.log.Error().Err(err).Int("tenant_id", tenantID).Msg("load tenant failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tenant"})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpdateTenant applies dashboard edits to the call configuration and drops
// the cached copy so the next call picks them up.
func (h *DashboardHandler) UpdateTenant(c *gin.Context) {
	tenantID, ok := tenantIDFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "No tenant bound to this account"})
		return
	}

	current, err := h.tenantRepo.GetByID(c.Request.Context(), tenantID)
	if err != nil || current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
		return
	}

	var req entities.TenantCallConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant configuration"})
		return
	}
	if msg := validateTenantConfig(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	// The number itself is admin-managed; edits keep the bound callee.
	req.TenantID = tenantID
	req.CalleeNumber = current.CalleeNumber
	req.CompanyName = SanitizeString(req.CompanyName)
	req.Greeting = SanitizeString(req.Greeting)
	req.CompanyInfo = SanitizeString(req.CompanyInfo)

	if err := h.tenantRepo.Update(c.Request.Context(), &req); err != nil {
		h.log.Error().Err(err).Int("tenant_id", tenantID).Msg("update tenant failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tenant"})
		return
	}

	h.cache.Invalidate(current.CalleeNumber)
	c.JSON(http.StatusOK, gin.H{"message": "Tenant updated"})
}

func (h *DashboardHandler) ListCalls(c *gin.Context) {
	tenantID, ok := tenantIDFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "No tenant bound to this account"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	calls, err := h.callRepo.ListCalls(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.log.Error().Err(err).Int("tenant_id", tenantID).Msg("list calls failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list calls"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

func (h *DashboardHandler) ListTurns(c *gin.Context) {
	tenantID, ok := tenantIDFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "No tenant bound to this account"})
		return
	}

	callSID := c.Param("sid")
	call, err := h.callRepo.GetCall(c.Request.Context(), callSID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load call"})
		return
	}
	if call == nil || call.TenantID != tenantID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Call not found"})
		return
	}

	turns, err := h.callRepo.ListTurns(c.Request.Context(), callSID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list turns"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_sid": callSID, "turns": turns})
}

func (h *DashboardHandler) GetUsage(c *gin.Context) {
	tenantID, ok := tenantIDFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "No tenant bound to this account"})
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 || days > 365 {
		days = 30
	}
	usage, err := h.usageRepo.GetUsageHistory(c.Request.Context(), tenantID, days)
	if err != nil {
		h.log.Error().Err(err).Int("tenant_id", tenantID).Msg("usage history failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usage"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

func (h *DashboardHandler) CreateTenant(c *gin.Context) {
	var req entities.TenantCallConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant configuration"})
		return
	}
	if !ValidPhoneNumber(req.CalleeNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "callee_number must be E.164, e.g. +34910000000"})
		return
	}
	if msg := validateTenantConfig(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	req.CompanyName = SanitizeString(req.CompanyName)
	if err := h.tenantRepo.Create(c.Request.Context(), &req); err != nil {
		h.log.Error().Err(err).Msg("create tenant failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tenant"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tenant_id": req.TenantID})
}

func (h *DashboardHandler) SetTenantActive(c *gin.Context) {
	tenantID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.tenantRepo.SetActive(c.Request.Context(), tenantID, req.Active); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tenant"})
		return
	}

	// Deactivation must take effect before the cache TTL runs out.
	if cfg, err := h.tenantRepo.GetByID(c.Request.Context(), tenantID); err == nil && cfg != nil {
		h.cache.Invalidate(cfg.CalleeNumber)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tenant updated"})
}

func (h *DashboardHandler) BindUserTenant(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	var req struct {
		TenantID int `json:"tenant_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id required"})
		return
	}

	if err := h.userRepo.BindTenant(userID, req.TenantID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to bind tenant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User bound to tenant"})
}

// tenantIDFrom pulls the tenant id planted by AuthRequired. JWT numeric
// claims decode as float64.
func tenantIDFrom(c *gin.Context) (int, bool) {
	v, exists := c.Get("tenant_id")
	if !exists {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok || f <= 0 {
		return 0, false
	}
	return int(f), true
}

func validateTenantConfig(cfg *entities.TenantCallConfig) string {
	if !ValidateLength(cfg.CompanyName, 1, MaxCompanyNameLength) {
		return "company_name is required (max 255 chars)"
	}
	if cfg.Language != "" && !ValidLocale(cfg.Language) {
		return "language must be a locale tag like es-ES"
	}
	if len(cfg.Greeting) > MaxGreetingLength {
		return "greeting too long"
	}
	if len(cfg.CompanyInfo) > MaxCompanyInfoLength {
		return "company_info too long"
	}
	if len(cfg.FAQs) > MaxFAQEntries {
		return "too many FAQ entries"
	}
	if len(cfg.ReferenceDocs) > MaxReferenceDocs {
		return "too many reference documents"
	}
	for _, doc := range cfg.ReferenceDocs {
		if len(doc.Content) > MaxDocContentLength {
			return "reference document too long"
		}
	}
	if cfg.DailyCallCap < 0 {
		return "daily_call_cap must be zero or positive"
	}
	return ""
}
