package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"studenteats/models"

	"github.com/PuerkitoBio/goquery"
)

type Hall struct {
	Name string
	URL  string
}

// DefaultHalls are the four Grab N Go locations.
var DefaultHalls = []Hall{
	{Name: "Berkshire", URL: "https://umassdining.com/menu/berkshire-grab-n-go-menu"},
	{Name: "Worcester", URL: "https://umassdining.com/menu/worcester-grab-n-go"},
	{Name: "Franklin", URL: "https://umassdining.com/menu/franklin-grab-n-go"},
	{Name: "Hampshire", URL: "https://umassdining.com/menu/hampshire-grab-n-go"},
}

// nutritionAttrs maps data-* attributes on a menu link to nutrition keys.
var nutritionAttrs = map[string]string{
	"calories":          "data-calories",
	"calories_from_fat": "data-calories-from-fat",
	"total_fat":         "data-total-fat",
	"sat_fat":           "data-sat-fat",
	"trans_fat":         "data-trans-fat",
	"cholesterol":       "data-cholesterol",
	"sodium":            "data-sodium",
	"total_carb":        "data-total-carb",
	"dietary_fiber":     "data-dietary-fiber",
	"sugars":            "data-sugars",
	"protein":           "data-protein",
	"serving_size":      "data-serving-size",
}

type DateOption struct {
	Value    string
	Text     string
	Selected bool
}

type Scraper struct {
	Client *http.Client
	// Delay is the pause between page fetches for one hall.
	Delay time.Duration
}

func New() *Scraper {
	return &Scraper{Client: DefaultClient, Delay: time.Second}
}

// ScrapeAll scrapes every hall. A hall that fails is logged and left out;
// the returned errors list one entry per failed hall.
func (s *Scraper) ScrapeAll(ctx context.Context, halls []Hall) (models.MenuUpload, []error) {
	out := models.MenuUpload{}
	var errs []error
	for _, h := range halls {
		days, err := s.ScrapeHall(ctx, h)
		if err != nil {
			slog.Error("scrape hall failed", "hall", h.Name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
			continue
		}
		slog.Info("scraped hall", "hall", h.Name, "days", len(days))
		out[h.Name] = days
	}
	return out, errs
}

// ScrapeHall reads the date picker on the hall's page and fetches the menu for
// each listed date. The page already shows the selected date, so that one is
// parsed without a second request.
func (s *Scraper) ScrapeHall(ctx context.Context, h Hall) ([]models.MenuDay, error) {
	first, err := FetchBody(ctx, s.Client, h.URL)
	if err != nil {
		return nil, err
	}
	dates, err := ParseDates(first)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("no dates listed on %s", h.URL)
	}

	var days []models.MenuDay
	for i, d := range dates {
		body := first
		if !d.Selected {
			if err := s.pause(ctx); err != nil {
				return days, err
			}
			body, err = FetchBody(ctx, s.Client, DateURL(h.URL, d.Value))
			if err != nil {
				slog.Warn("menu fetch failed", "hall", h.Name, "date", d.Text, "err", err)
				continue
			}
		}
		day, err := ParseMenu(body, d.Text)
		if err != nil {
			slog.Warn("menu parse failed", "hall", h.Name, "date", d.Text, "err", err)
			continue
		}
		slog.Debug("parsed menu", "hall", h.Name, "n", i+1, "of", len(dates), "items", day.ItemCount())
		days = append(days, day)
	}
	return days, nil
}

func (s *Scraper) pause(ctx context.Context) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DateURL is the hall page filtered to one picker value, e.g. "11/07/2025".
func DateURL(base, value string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("date", value)
	u.RawQuery = q.Encode()
	return u.String()
}

// ParseDates lists the options of the #upcoming-foodpro picker. When no option
// is marked selected the first one is treated as the page's current date.
func ParseDates(html []byte) ([]DateOption, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}
	var out []DateOption
	anySelected := false
	doc.Find("#upcoming-foodpro option").Each(func(_ int, o *goquery.Selection) {
		value, _ := o.Attr("value")
		text := strings.TrimSpace(o.Text())
		if value == "" && text == "" {
			return
		}
		_, sel := o.Attr("selected")
		anySelected = anySelected || sel
		out = append(out, DateOption{Value: value, Text: text, Selected: sel})
	})
	if !anySelected && len(out) > 0 {
		out[0].Selected = true
	}
	return out, nil
}

// ParseMenu reads one day's menu: each div whose id ends in _menu is a meal,
// each h2.menu_category_name inside #content_text starts a section, and the
// li.lightbox-nutrition siblings up to the next heading are its items.
func ParseMenu(html []byte, date string) (models.MenuDay, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return models.MenuDay{}, err
	}
	day := models.MenuDay{Date: date}
	doc.Find("div[id$='_menu']").Each(func(_ int, meal *goquery.Selection) {
		id, _ := meal.Attr("id")
		name := strings.TrimSpace(meal.Find("h2").Not(".menu_category_name").First().Text())
		if name == "" {
			name = strings.TrimSuffix(id, "_menu")
		}
		mm := models.MealMenu{MealType: name}
		meal.Find("#content_text h2.menu_category_name").Each(func(_ int, cat *goquery.Selection) {
			sec := models.MenuSection{Name: strings.TrimSpace(cat.Text()), Items: []models.MenuItem{}}
			cat.NextUntil("h2.menu_category_name").Filter("li.lightbox-nutrition").Each(func(_ int, li *goquery.Selection) {
				if a := li.Find("a").First(); a.Length() > 0 {
					sec.Items = append(sec.Items, menuItem(a))
				}
			})
			mm.Sections = append(mm.Sections, sec)
		})
		day.Meals = append(day.Meals, mm)
	})
	return day, nil
}

func menuItem(a *goquery.Selection) models.MenuItem {
	it := models.MenuItem{Name: strings.TrimSpace(a.Text()), Nutrition: make(map[string]string, len(nutritionAttrs))}
	for key, attr := range nutritionAttrs {
		it.Nutrition[key] = strings.TrimSpace(a.AttrOr(attr, ""))
	}
	return it
}
