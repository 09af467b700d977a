package app

// Command はcollabifyyバイナリのサブコマンド。
type Command string

const (
	// CommandServe はAPIサーバーを起動する。期限切れセッションの削除ジョブも同じプロセスで動く。
	CommandServe Command = "serve"
	// CommandMigrate はusers、waitlist、sessionsのマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は起動中のサーバーの/healthを確認して終了する。
	// 設定を読み込まず、PORT環境変数のみを参照する。distrolessイメージのHEALTHCHECK用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はos.Args[1:]の先頭からサブコマンドを決定する。
// 2つ目以降の引数は無視する。引数なしや未知のサブコマンドはserveとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandMigrate:
		return CommandMigrate
	case CommandHealthcheck:
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
