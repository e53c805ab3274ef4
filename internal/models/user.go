package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a participant or an administrator
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	CPF       string             `bson:"cpf" json:"cpf"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PlayerSummary is a search result row for the admin player search.
type PlayerSummary struct {
	User            *User    `json:"user"`
	TotalNumbers    int      `json:"totalNumbers"`
	TotalApproved   float64  `json:"totalApproved"`
	MatchingNumbers []string `json:"matchingNumbers,omitempty"`
}

// UserHistory is the voucher and win history of a user.
type UserHistory struct {
	Vouchers []*Voucher `json:"vouchers"`
	Wins     []*Winner  `json:"wins"`
}

// DashboardStats aggregates admin dashboard figures.
type DashboardStats struct {
	TotalUsers       int64            `json:"totalUsers"`
	PendingVouchers  int64            `json:"pendingVouchers"`
	ApprovedVouchers int64            `json:"approvedVouchers"`
	RejectedVouchers int64            `json:"rejectedVouchers"`
	OpenRaffles      int64            `json:"openRaffles"`
	TotalRevenue     float64          `json:"totalRevenue"`
	TotalDeposited   float64          `json:"totalDeposited"`
	TopDepositors    []DepositorTotal `json:"topDepositors"`
	RecentVouchers   []*Voucher       `json:"recentVouchers"`
}

// DepositorTotal is a per-user deposit aggregate.
type DepositorTotal struct {
	UserID         primitive.ObjectID `bson:"_id" json:"userId"`
	Name           string             `bson:"-" json:"name"`
	TotalDeposited float64            `bson:"totalDeposited" json:"totalDeposited"`
	TotalApproved  float64            `bson:"totalApproved" json:"totalApproved"`
	PendingCount   int64              `bson:"pendingCount" json:"pendingCount"`
}

// PlayerDetail is the admin view of a single participant.
type PlayerDetail struct {
	User           *User      `json:"user"`
	Vouchers       []*Voucher `json:"vouchers"`
	TotalNumbers   int        `json:"totalNumbers"`
	PendingCount   int64      `json:"pendingCount"`
	TotalDeposited float64    `json:"totalDeposited"`
	TotalApproved  float64    `json:"totalApproved"`
}
