package telegram

import (
	"errors"
	"fmt"
)

// ProviderID identifies Telegram in the accounts table.
const ProviderID = "telegram"

// TempEmailFunc synthesizes the email key for a Telegram identity. It must be
// deterministic per telegramID; username is empty when Telegram omitted it.
type TempEmailFunc func(telegramID int64, username string) string

type Options struct {
	BotToken  string
	TempEmail TempEmailFunc
	// Redirect overrides the referer origin as the GET flow redirect target.
	Redirect string
}

func (o Options) validate() error {
	if o.BotToken == "" {
		return errors.New("telegram bot token is required")
	}
	if o.TempEmail == nil {
		return errors.New("telegram temp email function is required")
	}
	return nil
}

// DefaultTempEmail returns a TempEmailFunc producing `<id>@<domain>`.
func DefaultTempEmail(domain string) TempEmailFunc {
	return func(telegramID int64, _ string) string {
		return fmt.Sprintf("%d@%s", telegramID, domain)
	}
}
