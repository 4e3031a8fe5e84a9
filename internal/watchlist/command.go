package watchlist

import (
	"fmt"
	"html"
	"strings"
)

type Kind int

const (
	KindHelp Kind = iota + 1
	KindPause
	KindResume
	KindExclude
	KindUnexclude
	KindListExcluded
)

func (k Kind) String() string {
	switch k {
	case KindHelp:
		return "help"
	case KindPause:
		return "pause"
	case KindResume:
		return "resume"
	case KindExclude:
		return "exclude"
	case KindUnexclude:
		return "unexclude"
	case KindListExcluded:
		return "list_excluded"
	default:
		return "unknown"
	}
}

type Command struct {
	Kind Kind
	Coin string
}

const (
	textHelp         = "/"
	textPause        = "중지"
	textResume       = "다시실행"
	prefixExclude    = "/감시제거 "
	prefixUnexclude  = "/감시복구 "
	textListExcluded = "/제외목록"
)

// Parse maps raw chat text onto the fixed command grammar. Matching is
// case-insensitive; anything unrecognised reports ok=false.
func Parse(text string) (Command, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	switch text {
	case textHelp:
		return Command{Kind: KindHelp}, true
	case textPause:
		return Command{Kind: KindPause}, true
	case textResume:
		return Command{Kind: KindResume}, true
	case textListExcluded:
		return Command{Kind: KindListExcluded}, true
	}
	if coin, ok := argument(text, prefixExclude); ok {
		return Command{Kind: KindExclude, Coin: coin}, true
	}
	if coin, ok := argument(text, prefixUnexclude); ok {
		return Command{Kind: KindUnexclude, Coin: coin}, true
	}
	return Command{}, false
}

func argument(text, prefix string) (string, bool) {
	if !strings.HasPrefix(text, prefix) {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return "", false
	}
	return NormalizeCoin(fields[0]), true
}

// Apply mutates state for cmd and returns the acknowledgement text (HTML).
func Apply(state *State, cmd Command) string {
	switch cmd.Kind {
	case KindHelp:
		return HelpText()
	case KindPause:
		state.SetAlertsEnabled(false)
		return "⛔ 알림이 중지되었습니다."
	case KindResume:
		state.SetAlertsEnabled(true)
		return "✅ 알림이 재개되었습니다."
	case KindExclude:
		list := state.Exclude(cmd.Coin)
		return fmt.Sprintf("🛑 %s 감시 제외됨.\n📉 제외 목록: %s", html.EscapeString(state.ticker(cmd.Coin)), joinCoins(list))
	case KindUnexclude:
		coin := state.ticker(cmd.Coin)
		removed, list := state.Unexclude(coin)
		if !removed {
			return fmt.Sprintf("⚠️ %s 은(는) 제외 목록에 없습니다.", html.EscapeString(coin))
		}
		return fmt.Sprintf("✅ %s 감시 재개됨.\n📉 제외 목록: %s", html.EscapeString(coin), joinCoins(list))
	case KindListExcluded:
		list := state.Excluded()
		if len(list) == 0 {
			return "📋 제외된 코인이 없습니다."
		}
		return "📋 제외된 코인 목록:\n" + joinCoins(list)
	default:
		return ""
	}
}

func HelpText() string {
	return strings.Join([]string{
		"<b>📘 명령어 안내</b>",
		"",
		"▶ <b>중지</b>",
		"  - 현재 감시 및 알림을 일시 중지합니다.",
		"",
		"▶ <b>다시실행</b>",
		"  - 감시를 다시 시작하고 텔레그램 알림을 재개합니다.",
		"",
		"▶ <b>/감시제거 [코인]</b>",
		"  - 특정 코인을 감시 대상에서 제외합니다.",
		"  예: /감시제거 DMC",
		"",
		"▶ <b>/감시복구 [코인]</b>",
		"  - 제외된 코인을 다시 감시 목록에 추가합니다.",
		"  예: /감시복구 DMC",
		"",
		"▶ <b>/제외목록</b>",
		"  - 현재 제외된 코인 목록을 확인합니다.",
	}, "\n")
}

func joinCoins(list []string) string {
	escaped := make([]string, len(list))
	for i, coin := range list {
		escaped[i] = html.EscapeString(coin)
	}
	return strings.Join(escaped, ", ")
}
