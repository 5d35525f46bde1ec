package tracker

import "markethours/internal/domain"

// fallbackSymbols is the static dataset used when the feed is unreachable or
// returns invalid data. It is limited to synthetic volatility indices, which
// trade continuously, so marking them open all day is always correct.
var fallbackSymbols = []string{
	"R_10", "R_25", "R_50", "R_75", "R_100",
	"1HZ10V", "1HZ15V", "1HZ25V", "1HZ30V", "1HZ50V",
	"1HZ75V", "1HZ90V", "1HZ100V",
}

// supplementarySymbols are instruments the feed is known to omit from its
// trading-times response. They are synthetic indices and always open; they
// are injected after each refresh without overwriting feed data.
var supplementarySymbols = []string{"1HZ15V", "1HZ30V", "1HZ90V"}

// displayNames maps instrument symbols to human-readable names. Symbols
// absent from this table fall back to the feed-provided name or the raw id.
var displayNames = map[string]string{
	"R_10":      "Volatility 10 Index",
	"R_25":      "Volatility 25 Index",
	"R_50":      "Volatility 50 Index",
	"R_75":      "Volatility 75 Index",
	"R_100":     "Volatility 100 Index",
	"1HZ10V":    "Volatility 10 (1s) Index",
	"1HZ15V":    "Volatility 15 (1s) Index",
	"1HZ25V":    "Volatility 25 (1s) Index",
	"1HZ30V":    "Volatility 30 (1s) Index",
	"1HZ50V":    "Volatility 50 (1s) Index",
	"1HZ75V":    "Volatility 75 (1s) Index",
	"1HZ90V":    "Volatility 90 (1s) Index",
	"1HZ100V":   "Volatility 100 (1s) Index",
	"CRASH500":  "Crash 500 Index",
	"CRASH1000": "Crash 1000 Index",
	"BOOM500":   "Boom 500 Index",
	"BOOM1000":  "Boom 1000 Index",
	"frxEURUSD": "EUR/USD",
	"frxGBPUSD": "GBP/USD",
	"frxUSDJPY": "USD/JPY",
	"frxAUDUSD": "AUD/USD",
	"WLDAUD":    "AUD Basket",
	"WLDEUR":    "EUR Basket",
	"WLDGBP":    "GBP Basket",
	"WLDUSD":    "USD Basket",
	"WLDXAU":    "Gold Basket",
	"OTC_DJI":   "Wall Street 30",
	"OTC_SPC":   "US 500",
	"OTC_NDX":   "US Tech 100",
	"OTC_FTSE":  "UK 100",
	"OTC_GDAXI": "Germany 40",
	"OTC_SX5E":  "Euro 50",
	"OTC_AS51":  "Australia 200",
	"OTC_N225":  "Japan 225",
	"cryBTCUSD": "BTC/USD",
	"cryETHUSD": "ETH/USD",
	"frxXAUUSD": "Gold/USD",
	"frxXAGUSD": "Silver/USD",
}

// fallbackSchedules builds a fresh cache from the static dataset. Every
// instrument is open all day and starts with IsOpen already true, so callers
// see a usable cache even before the first tick.
func fallbackSchedules() map[string]*domain.InstrumentSchedule {
	out := make(map[string]*domain.InstrumentSchedule, len(fallbackSymbols))
	for _, sym := range fallbackSymbols {
		out[sym] = &domain.InstrumentSchedule{
			Symbol:      sym,
			DisplayName: displayNames[sym],
			OpenAllDay:  true,
			IsOpen:      true,
		}
	}
	return out
}
