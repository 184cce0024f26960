package tmeparser

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ChannelPreview is what the public t.me page reveals about a channel.
// Used for channel validation at submit time and periodic stats refresh.
type ChannelPreview struct {
	Username    string    `json:"username"`
	Title       string    `json:"title"`
	Subscribers *int      `json:"subscribers,omitempty"`
	AvgViews    *int      `json:"avg_views,omitempty"`
	LangGuess   string    `json:"lang_guess"`
	FetchedAt   time.Time `json:"fetched_at"`
}

type Parser struct {
	httpClient *http.Client
	log        *zap.Logger
	maxRetries int
}

func NewParser(timeoutMS, maxRetries int, log *zap.Logger) *Parser {
	return &Parser{
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
		log:        log,
		maxRetries: maxRetries,
	}
}

// FetchPreview scrapes the public t.me/s page of a channel.
func (p *Parser) FetchPreview(ctx context.Context, username string) (*ChannelPreview, error) {
	url := fmt.Sprintf("https://t.me/s/%s", username)

	var doc *goquery.Document
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		return nil, lastErr
	}

	preview := &ChannelPreview{
		Username:  username,
		Title:     strings.TrimSpace(doc.Find(".tgme_channel_info_header_title").Text()),
		FetchedAt: time.Now(),
	}

	doc.Find(".tgme_channel_info_counter .counter_value").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		label := strings.ToLower(strings.TrimSpace(s.Parent().Find(".counter_type").Text()))
		if strings.Contains(label, "subscriber") || strings.Contains(label, "member") {
			if n := parseCount(text); n > 0 {
				preview.Subscribers = &n
			}
		}
	})
	if preview.Subscribers == nil {
		doc.Find(".tgme_channel_info_header_counter").Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			lower := strings.ToLower(text)
			if strings.Contains(lower, "subscriber") || strings.Contains(lower, "member") {
				if n := parseCount(text); n > 0 {
					preview.Subscribers = &n
				}
			}
		})
	}

	var allText strings.Builder
	total, counted := 0, 0
	doc.Find(".tgme_widget_message_wrap").Each(func(i int, s *goquery.Selection) {
		s.Find(".tgme_widget_message_views").Each(func(_ int, viewEl *goquery.Selection) {
			if n := parseCount(strings.TrimSpace(viewEl.Text())); n > 0 && counted < 20 {
				total += n
				counted++
			}
		})
		text := strings.TrimSpace(s.Find(".tgme_widget_message_text").Text())
		if len(text) > 200 {
			text = text[:200]
		}
		allText.WriteString(text)
		allText.WriteString(" ")
	})
	if counted > 0 {
		avg := total / counted
		preview.AvgViews = &avg
	}

	preview.LangGuess = guessLanguage(allText.String())

	return preview, nil
}

// PostExists fetches a specific post page and reports whether the post is
// still up, returning its text if any. Used to spot-check submitted
// verification links.
func (p *Parser) PostExists(ctx context.Context, username string, messageID int64) (string, bool, error) {
	url := fmt.Sprintf("https://t.me/%s/%d?embed=1", username, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", false, err
	}

	text := strings.TrimSpace(doc.Find(".tgme_widget_message_text").Text())
	if text == "" && doc.Find(".tgme_widget_message").Length() == 0 {
		return "", false, nil
	}

	return text, true, nil
}

var countRE = regexp.MustCompile(`[\d,.]+[KkMm]?`)

func parseCount(text string) int {
	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, ",", "")

	match := countRE.FindString(text)
	if match == "" {
		return 0
	}

	multiplier := 1
	if strings.HasSuffix(match, "K") || strings.HasSuffix(match, "k") {
		multiplier = 1000
		match = match[:len(match)-1]
	} else if strings.HasSuffix(match, "M") || strings.HasSuffix(match, "m") {
		multiplier = 1000000
		match = match[:len(match)-1]
	}

	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return int(f * float64(multiplier))
}

func guessLanguage(text string) string {
	if text == "" {
		return "unknown"
	}

	cyrillic, latin, arabic, cjk, letters := 0, 0, 0, 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Latin, r):
			latin++
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Han, r), unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
			cjk++
		}
	}
	if letters == 0 {
		return "unknown"
	}

	switch {
	case float64(cyrillic)/float64(letters) >= 0.3:
		return "ru"
	case float64(arabic)/float64(letters) >= 0.3:
		return "ar"
	case float64(cjk)/float64(letters) >= 0.3:
		return "zh"
	case float64(latin)/float64(letters) >= 0.3:
		return "en"
	default:
		return "other"
	}
}
