package entities

// User is a dashboard account. Tenants are owned by users; the voice
// pipeline itself never touches this type.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	TenantID     int    `json:"tenant_id"` // 0 for platform admins
	IsActive     bool   `json:"is_active"`
}
