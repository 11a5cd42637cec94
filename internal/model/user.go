package model

// 用户角色
const (
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User 用户表，对应 users（由身份服务同步，本服务只读）
type User struct {
	UserID   string `gorm:"type:varchar(64);primaryKey"                    json:"user_id"`
	Name     string `gorm:"type:varchar(128);not null"                     json:"name"`
	Email    string `gorm:"type:varchar(255);not null;default:''"          json:"email"`
	Role     string `gorm:"type:varchar(20);not null;default:'instructor'" json:"role"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
