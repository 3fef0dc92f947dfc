package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jekabolt/grbpwr-reports/internal/daterange"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const adminSourcePrefix = "admin"

// sourceAliases maps raw referrer labels onto one channel name.
var sourceAliases = map[string]string{
	"fb":              "Facebook",
	"facebook.com":    "Facebook",
	"m.facebook.com":  "Facebook",
	"l.facebook.com":  "Facebook",
	"lm.facebook.com": "Facebook",
	"ig":              "Instagram",
	"instagram.com":   "Instagram",
	"l.instagram.com": "Instagram",
	"google.com":      "Google",
	"www.google.com":  "Google",
	"youtube.com":     "YouTube",
	"m.youtube.com":   "YouTube",
	"tiktok.com":      "TikTok",
	"messenger.com":   "Messenger",
	"(direct)":        "Direct",
	"typein":          "Direct",
	"unknown":         "Unknown",
	"":                "Unknown",
}

// GroupSource returns the channel and the display label of a raw source.
func GroupSource(source string) (entity.SourceChannel, string) {
	raw := strings.TrimSpace(source)
	lower := strings.ToLower(raw)
	titleCaser := cases.Title(language.English)

	if strings.HasPrefix(lower, adminSourcePrefix) {
		rest := strings.Trim(lower[len(adminSourcePrefix):], " _-:")
		if rest == "" {
			return entity.ChannelAdmin, "Admin"
		}
		return entity.ChannelAdmin, titleCaser.String(strings.NewReplacer("_", " ", "-", " ").Replace(rest))
	}
	if alias, ok := sourceAliases[lower]; ok {
		return entity.ChannelWeb, alias
	}
	return entity.ChannelWeb, titleCaser.String(raw)
}

// BuildSourceReport groups raw source counts into channels.
func BuildSourceReport(counts []entity.SourceCount) *entity.SourceReport {
	type key struct {
		channel entity.SourceChannel
		label   string
	}
	grouped := make(map[key]int)
	rep := &entity.SourceReport{
		Web:   []entity.SourceGroup{},
		Admin: []entity.SourceGroup{},
	}
	for _, c := range counts {
		channel, label := GroupSource(c.Source)
		grouped[key{channel, label}] += c.Count
		rep.TotalOrders += c.Count
		if channel == entity.ChannelAdmin {
			rep.AdminOrders += c.Count
		} else {
			rep.WebOrders += c.Count
		}
	}

	for k, n := range grouped {
		g := entity.SourceGroup{
			Label:   k.label,
			Channel: k.channel,
			Orders:  n,
			Percent: percentInt(n, rep.TotalOrders),
		}
		if k.channel == entity.ChannelAdmin {
			rep.Admin = append(rep.Admin, g)
		} else {
			rep.Web = append(rep.Web, g)
		}
	}
	byOrders := func(gs []entity.SourceGroup) func(i, j int) bool {
		return func(i, j int) bool {
			if gs[i].Orders != gs[j].Orders {
				return gs[i].Orders > gs[j].Orders
			}
			return gs[i].Label < gs[j].Label
		}
	}
	sort.Slice(rep.Web, byOrders(rep.Web))
	sort.Slice(rep.Admin, byOrders(rep.Admin))

	rep.WebPercent = percentInt(rep.WebOrders, rep.TotalOrders)
	rep.AdminPercent = percentInt(rep.AdminOrders, rep.TotalOrders)
	return rep
}

// SourceReport returns the order sources of the range grouped by channel.
func (s *Service) SourceReport(ctx context.Context, spec entity.DateRangeSpec) (*entity.SourceReport, error) {
	from, to := daterange.Window(spec.DateRange)
	counts, err := s.repo.Reports().SourceCounts(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("can't get source report: %w", err)
	}
	rep := BuildSourceReport(counts)
	rep.Range = spec
	return rep, nil
}
