// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はウェイトリストの自由入力欄からマークアップを取り除き、
// 保存されるテキストがHTMLとして解釈されないことを保証する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力のプレーンテキスト化のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize はすべてのHTMLタグを除去し、前後の空白を削除したテキストを返す。
	// script、styleタグは中身ごと除去される。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのStrictPolicyはスレッドセーフで、リクエスト間で共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はタグを除去したプレーンテキストを返す。
// bluemondayはテキストをHTMLエスケープして返すため、保存用にアンエスケープする。
// アンエスケープで現れたタグ（"&lt;script&gt;"など）も除去するため、出力が変わらなくなるまで繰り返す。
// 変化がある場合は必ず文字列が短くなるので、ループは停止する。
func (s *textSanitizer) Sanitize(raw string) string {
	text := raw
	for {
		cleaned := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
		if cleaned == text {
			return cleaned
		}
		text = cleaned
	}
}
