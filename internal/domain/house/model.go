package house

import "time"

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type House struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Address   *string   `gorm:"type:text"`
	OwnerID   int64     `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (House) TableName() string { return "houses" }

type Member struct {
	HouseID  int64     `gorm:"primaryKey"`
	UserID   int64     `gorm:"primaryKey"`
	Role     string    `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (Member) TableName() string { return "house_users" }
