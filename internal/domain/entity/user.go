package entity

// User is a local account resolved from the external identity provider.
//
// SubjectID is a pointer because rows provisioned before a federated
// login exist without one; the unique index must not collide on them.
type User struct {
	ID        int64   `gorm:"primaryKey"`
	SubjectID *string `gorm:"uniqueIndex"`
	Email     string  `gorm:"not null;uniqueIndex"`
	Name      string  `gorm:"not null"`
	CreatedAt int64   `gorm:"not null"`
	UpdatedAt int64   `gorm:"not null;autoUpdateTime:false"`
}

// Subject returns the external subject id, or "" when none is attached yet.
func (u *User) Subject() string {
	if u.SubjectID == nil {
		return ""
	}
	return *u.SubjectID
}
