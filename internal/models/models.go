package models

import (
	"time"
)

// User is identified by phone number everywhere: the phone is the login
// handle and the foreign key target for product ownership and comments.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name      string    `gorm:"size:100;not null"            json:"name"`
	Phone     string    `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	Password  string    `gorm:"size:100;not null"            json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserPhone   string         `gorm:"size:20;index;not null"   json:"user_phone"`
	Title       string         `gorm:"size:200;not null"        json:"title"`
	Description string         `gorm:"type:text;not null"       json:"description"`
	Category    string         `gorm:"size:50;not null"         json:"category"`
	Price       float64        `gorm:"not null"                 json:"price"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Images      []ProductImage `gorm:"constraint:OnDelete:CASCADE" json:"images"`
	Comments    []Comment      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type ProductImage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint      `gorm:"index;not null"           json:"product_id"`
	ImageURL  string    `gorm:"size:255;not null"        json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint      `gorm:"index;not null"           json:"product_id"`
	Phone     string    `gorm:"size:20;not null"         json:"phone"`
	Message   string    `gorm:"type:text;not null"       json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
