package infrastructure

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"voicedesk/internal/entities"
)

// TelegramNotifier sends tenants a short summary when one of their calls
// ends. Delivery is best-effort: a notification failure never affects the
// call path.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewTelegramNotifier returns a disabled notifier (nil bot) when the token
// is missing or rejected, so wiring stays unconditional in main.
func NewTelegramNotifier(token string, log zerolog.Logger) *TelegramNotifier {
	if token == "" {
		return &TelegramNotifier{log: log}
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Warn().Err(err).Msg("telegram notifications disabled")
		return &TelegramNotifier{log: log}
	}
	return &TelegramNotifier{bot: bot, log: log}
}

func (n *TelegramNotifier) NotifyCallEnded(cfg *entities.TenantCallConfig, rec *entities.CallRecord) {
	if n.bot == nil || cfg == nil || cfg.TelegramChat == 0 {
		return
	}

	text := fmt.Sprintf("📞 *Llamada finalizada*\nDe: %s\nDuración: %ds\nEstado: %s",
		rec.CallerNumber, rec.DurationSeconds, rec.Status)
	if excerpt := transcriptExcerpt(rec.Transcript, 400); excerpt != "" {
		text += "\n\n*Transcripción:*\n" + excerpt
	}

	msg := tgbotapi.NewMessage(cfg.TelegramChat, text)
	msg.ParseMode = "Markdown"
	if _, err := n.bot.Send(msg); err != nil {
		n.log.Warn().Err(err).Str("call_sid", rec.CallSID).Int("tenant_id", cfg.TenantID).Msg("telegram notification failed")
	}
}

func transcriptExcerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	// Back up to a rune boundary so a multi-byte character is never split
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
