package logging

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
)

// emoji prefixes for the alert channel, one per level
const (
	emojiDebug    = "🐛🔍"
	emojiInfo     = "ℹ️"
	emojiWarning  = "⚠️"
	emojiError    = "❌"
	emojiCritical = "🚨"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramConfig configures the alert channel. Both BotToken and ChatID must
// be set for the core to be wired.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	// Level is the channel's own minimum level; defaults to info.
	Level string
	// APIBase overrides the Telegram endpoint, for tests.
	APIBase string
}

func (c TelegramConfig) Enabled() bool { return c.BotToken != "" && c.ChatID != "" }

// telegramCore posts formatted records to the Telegram Bot API. Delivery is
// fail-open: a send error goes to stderr and is never propagated into the
// logging call.
type telegramCore struct {
	zapcore.LevelEnabler
	cfg    TelegramConfig
	client *http.Client
	fields []zapcore.Field
}

// NewTelegramCore builds the alert core with its own minimum level.
func NewTelegramCore(cfg TelegramConfig) zapcore.Core {
	return &telegramCore{
		LevelEnabler: parseLevel(cfg.Level, zapcore.InfoLevel),
		cfg:          cfg,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *telegramCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *telegramCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *telegramCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	text := c.formatEntry(ent, append(c.fields, fields...))

	base := c.cfg.APIBase
	if base == "" {
		base = telegramAPIBase
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", base, c.cfg.BotToken)
	form := url.Values{
		"chat_id":                  {c.cfg.ChatID},
		"text":                     {text},
		"parse_mode":               {"html"},
		"disable_web_page_preview": {"true"},
	}
	resp, err := c.client.PostForm(endpoint, form)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to send log to Telegram: %v\n", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "failed to send log to Telegram: %s\n", resp.Status)
	}
	return nil
}

func (c *telegramCore) Sync() error { return nil }

func (c *telegramCore) formatEntry(ent zapcore.Entry, fields []zapcore.Field) string {
	body := html.EscapeString(ent.Message)
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	for k, v := range enc.Fields {
		body += fmt.Sprintf("\n%s=%v", html.EscapeString(k), v)
	}
	return fmt.Sprintf("%s <b>%s</b>\n\n<code>%s</code>\n\n🕒 <code>%s</code>",
		levelEmoji(ent.Level),
		html.EscapeString(ent.Level.CapitalString()),
		body,
		ent.Time.Format(time.RFC3339))
}

func levelEmoji(l zapcore.Level) string {
	switch {
	case l >= zapcore.DPanicLevel:
		return emojiCritical
	case l == zapcore.ErrorLevel:
		return emojiError
	case l == zapcore.WarnLevel:
		return emojiWarning
	case l == zapcore.InfoLevel:
		return emojiInfo
	default:
		return emojiDebug
	}
}
