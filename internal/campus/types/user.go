package types

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

type LockStatus string

const (
	LockUnlocked  LockStatus = "unlocked"
	LockLocked    LockStatus = "locked"
	LockStaffOnly LockStatus = "staff_only"
)
