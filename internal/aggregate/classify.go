package aggregate

import "strings"

// Category names returned by ClassifyTicker.
const (
	CategoryOther = "Other"
)

type prefixRule struct {
	category string
	prefixes []string
}

type keywordRule struct {
	category string
	keywords []string
}

// Rules are checked in order; the first match wins. Prefixes are matched
// against the series part of the ticker, before the first '-'.
var prefixRules = []prefixRule{
	{"NFL Football", []string{"KXNFL", "KXSB", "KXMVENFL"}},
	{"NCAA Football", []string{"KXNCAAF", "KXCFB", "KXCOLLFB"}},
	{"NBA Basketball", []string{"KXNBA", "KXMVENBA"}},
	{"NCAA Basketball", []string{"KXNCAAM", "KXNCAAB", "KXMARCH", "KXCBB"}},
	{"MLB Baseball", []string{"KXMLB"}},
	{"NHL Hockey", []string{"KXNHL"}},
	{"Soccer", []string{"KXSOC", "KXEPL", "KXMLS", "KXUCL", "KXWC"}},
	{"Golf", []string{"KXPGA", "KXGOLF"}},
	{"Motorsports", []string{"KXNASCAR", "KXF1", "KXINDY"}},
	{"Combat Sports", []string{"KXUFC", "KXMMA", "KXBOX"}},
	{"Tennis", []string{"KXTEN", "KXWIMB", "KXUSO", "KXAUS"}},
	{"S&P 500", []string{"INX", "INXD", "INXU"}},
	{"NASDAQ", []string{"NASDAQ", "NDX", "COMP"}},
	{"Dow Jones", []string{"DJIA", "DJI"}},
	{"Bitcoin", []string{"BTC", "BITCOIN", "KXBTC"}},
	{"Ethereum", []string{"ETH", "ETHER", "KXETH"}},
	{"CPI / Inflation", []string{"CPI"}},
	{"Fed / Interest Rates", []string{"FED", "FOMC"}},
}

// Keyword rules match anywhere in the ticker and run after every prefix rule.
var keywordRules = []keywordRule{
	{"Politics", []string{"TRUMP", "BIDEN", "HARRIS", "ELECT", "PRES", "SENAT", "HOUSE", "GOP", "DEM"}},
	{"Weather", []string{"WEATHER", "TEMP", "HURRIC", "SNOW"}},
}

// ClassifyTicker maps a market ticker to a coarse market category, or
// CategoryOther. Matching is case-insensitive.
func ClassifyTicker(ticker string) string {
	upper := strings.ToUpper(ticker)
	series, _, _ := strings.Cut(upper, "-")

	for _, r := range prefixRules {
		for _, p := range r.prefixes {
			if strings.HasPrefix(series, p) {
				return r.category
			}
		}
	}
	for _, r := range keywordRules {
		for _, k := range r.keywords {
			if strings.Contains(upper, k) {
				return r.category
			}
		}
	}
	return CategoryOther
}
