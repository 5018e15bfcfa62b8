package localstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/pocketledger/internal/models"
	"github.com/mmynk/pocketledger/internal/storage"
)

// DefaultCurrency is used until the user picks one.
const DefaultCurrency = "USD"

const (
	themeDark  = "dark"
	themeLight = "light"
)

// LoadPreferences reads theme and currency, falling back to defaults.
func LoadPreferences(kv storage.KeyValue) models.Preferences {
	prefs := models.Preferences{Currency: DefaultCurrency}
	if theme, ok := kv.Get(ThemeKey); ok {
		prefs.DarkMode = theme == themeDark
	}
	if code, ok := kv.Get(CurrencyKey); ok && code != "" {
		prefs.Currency = code
	}
	return prefs
}

// ErrInvalidCurrency is returned for a currency code that is not three letters.
var ErrInvalidCurrency = errors.New("invalid currency code")

// SavePreferences writes theme and currency.
func SavePreferences(kv storage.KeyValue, prefs models.Preferences) error {
	code := strings.ToUpper(strings.TrimSpace(prefs.Currency))
	if len(code) != 3 {
		return fmt.Errorf("%w %q", ErrInvalidCurrency, prefs.Currency)
	}

	theme := themeLight
	if prefs.DarkMode {
		theme = themeDark
	}
	if err := kv.Set(ThemeKey, theme); err != nil {
		return err
	}
	return kv.Set(CurrencyKey, code)
}
