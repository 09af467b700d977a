package model

import "time"

// UserType はウェイトリスト登録者の種別を表す。
type UserType string

const (
	// UserTypeCreator はクリエイターとしての登録。
	UserTypeCreator UserType = "creator"
	// UserTypeBrand はブランドとしての登録。
	UserTypeBrand UserType = "brand"
)

// ParseUserType は文字列をUserTypeに変換する。
// 未知の値の場合はfalseを返す。
func ParseUserType(s string) (UserType, bool) {
	switch UserType(s) {
	case UserTypeCreator, UserTypeBrand:
		return UserType(s), true
	default:
		return "", false
	}
}

// WaitlistEntry はウェイトリストへの登録1件を表す。
// ユーザーごと・メールアドレスごとに最大1件で、作成後は変更されない。
type WaitlistEntry struct {
	ID              string
	UserID          string
	UserType        UserType
	Name            string
	Email           string
	CompanyOrHandle string
	Message         string
	CreatedAt       time.Time
}
