package models

import "time"

// Post представляет запись в ленте сообщества.
type Post struct {
	ID         string    `json:"id"`
	UserUID    string    `json:"user_uid"`
	Username   string    `json:"username"`
	Content    string    `json:"content"`
	LikesCount int       `json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// DummyPost используется для приёма данных поста из JSON-запроса.
type DummyPost struct {
	Content string `json:"content" validate:"required,max=500"`
}
