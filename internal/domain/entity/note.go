package entity

type Note struct {
	ID         int64  `gorm:"primaryKey"`
	Title      string `gorm:"not null"`
	Content    string `gorm:"not null"`
	IsFavorite bool   `gorm:"not null;default:false"`
	UserID     int64  `gorm:"not null;index"` // References: users(id)
	CreatedAt  int64  `gorm:"not null"`
	UpdatedAt  int64  `gorm:"not null;autoUpdateTime:false"`

	// Relations
	User User `gorm:"foreignKey:UserID;references:ID"`
}
