// Package model はドメインモデルを定義する。
package model

import "time"

// User はGoogleでログインしたユーザーを表す。
// IDはIdPのsubject識別子をそのまま使用し、ローカルでは採番しない。
type User struct {
	ID              string
	Email           string // IdPが提供しない場合は空文字列
	FirstName       string
	LastName        string
	ProfileImageURL string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Session はユーザーのログインセッションを表す。
// 有効期限は発行時刻から固定で、利用による延長は行わない。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired は指定時刻時点でセッションが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
