package domain

import (
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	SubRole      string    `json:"subRole"` // 没有子角色的角色此处为空字符串
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
