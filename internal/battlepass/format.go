package battlepass

import (
	"fmt"
	"time"

	"github.com/cardastika/battlepass/internal/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is the locale numbers are grouped for unless configured.
const DefaultLocale = "uk-UA"

// SeasonEndedText is shown instead of a countdown once the season is over.
const SeasonEndedText = "season ended"

// Formatter renders numbers and reward previews for one locale.
type Formatter struct {
	p *message.Printer
}

// NewFormatter returns a Formatter for locale, falling back to
// DefaultLocale when it cannot be parsed.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &Formatter{p: message.NewPrinter(tag)}
}

// Number formats n with locale digit grouping. Negative values show as 0.
func (f *Formatter) Number(n int) string {
	return f.p.Sprintf("%d", max(0, n))
}

// Reward describes what r grants, e.g. "+50 silver" or "Stone Shield ×1".
func (f *Formatter) Reward(r catalog.Reward) string {
	switch r.Type {
	case catalog.RewardSilver:
		return "+" + f.Number(r.Amount) + " silver"
	case catalog.RewardGold:
		return "+" + f.Number(r.Amount) + " gold"
	case catalog.RewardDiamonds:
		return "+" + f.Number(r.Amount) + " diamonds"
	case catalog.RewardItem:
		return fmt.Sprintf("%s ×%d", r.ItemName, r.Amount)
	}
	return "Reward"
}

// TrackName is the player-facing name of a track.
func TrackName(t catalog.Track) string {
	if t == catalog.TrackVIP {
		return "VIP"
	}
	return "Free"
}

// Countdown formats the time left until ends as "Nd Nh", truncating both
// parts, or SeasonEndedText once ends has passed.
func Countdown(ends, now time.Time) string {
	left := ends.Sub(now)
	if left <= 0 {
		return SeasonEndedText
	}
	days := int(left / (24 * time.Hour))
	hours := int(left % (24 * time.Hour) / time.Hour)
	return fmt.Sprintf("%dd %dh", days, hours)
}
