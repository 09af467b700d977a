package auth

import "context"

// IdentityAssertion はIdPから取得した認証済みユーザーの属性。
// 認証境界を越えてユーザーストアに渡る唯一の型で、プロバイダー固有のレスポンス形式を外に漏らさない。
type IdentityAssertion struct {
	ID              string // プロバイダーのsubject ID
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// Exchange は認可コードをトークンに交換し、認証済みユーザーの属性を取得する。
	Exchange(ctx context.Context, code string) (*IdentityAssertion, error)
}
