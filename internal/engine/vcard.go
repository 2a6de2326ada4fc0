package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-eventtracker/internal/config"
)

// SourceConfig contains all parameters required to read a vCard collection.
type SourceConfig struct {
	Mode      string // config.SourceModeLocal or config.SourceModeWeb
	LocalPath string // Path to the .vcf file
	WebURL    string // CardDAV or WebDAV URL
	WebUser   string // HTTP Basic Auth Username
	WebPass   string // HTTP Basic Auth Password
}

// Location names the source for logs. Web URLs lose their credentials and
// query string, which may carry tokens.
func (c SourceConfig) Location() string {
	if c.Mode != config.SourceModeWeb {
		return c.LocalPath
	}
	u, err := url.Parse(c.WebURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host + u.Path
}

// VCardReader turns a vCard collection into events.
type VCardReader struct {
	Fetcher VCardFetcher // Interface for network abstraction.
}

// Read acquires the source and parses every card.
// BDAY becomes a Birthday and ANNIVERSARY an Anniversary; a card may yield both.
func (v *VCardReader) Read(ctx context.Context, cfg SourceConfig) ([]Event, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyMode, cfg.Mode,
	)

	reader, err := v.acquireStream(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
	}
	defer func() { _ = reader.Close() }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	events, err := ParseVCards(ctx, reader)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	log.Debug(config.MsgVCardParsed,
		config.LogKeyFound, len(events),
		config.LogKeyDuration, time.Since(start).Milliseconds())
	return events, nil
}

func (v *VCardReader) acquireStream(ctx context.Context, cfg SourceConfig) (io.ReadCloser, error) {
	switch cfg.Mode {
	case config.SourceModeLocal:
		if cfg.LocalPath == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return os.Open(cfg.LocalPath)
	case config.SourceModeWeb:
		if cfg.WebURL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if v.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return v.Fetcher.Fetch(ctx, cfg.WebURL, cfg.WebUser, cfg.WebPass)
	default:
		return nil, fmt.Errorf("unsupported source mode: %q", cfg.Mode)
	}
}

// streamReader keeps the first read failure of the underlying stream so a
// broken transport can be told apart from a malformed card.
type streamReader struct {
	r   io.Reader
	err error
}

func (s *streamReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && s.err == nil {
		s.err = err
	}
	return n, err
}

// ParseVCards decodes a vCard stream. Malformed cards and unparsable dates
// are skipped; a failing stream, or config.MaxCardFailures malformed cards
// in a row, aborts the whole read.
func ParseVCards(ctx context.Context, r io.Reader) ([]Event, error) {
	src := &streamReader{r: r}
	decoder := vcard.NewDecoder(src)
	var events []Event
	failures := 0

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if src.err != nil {
				return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, src.err)
			}
			failures++
			if failures >= config.MaxCardFailures {
				return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
			}
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyError, err)
			continue
		}
		failures = 0

		// Name Strategy: FN (Formatted) > N (Structured) > Fallback
		name := config.FallbackName
		if fn := card.Get(config.VCardFN); fn != nil && strings.TrimSpace(fn.Value) != "" {
			name = fn.Value
		} else if n := card.Get(config.VCardN); n != nil && strings.TrimSpace(n.Value) != "" {
			name = strings.TrimSpace(strings.ReplaceAll(n.Value, ";", " "))
		}

		for _, field := range []struct {
			key      string
			category Category
		}{
			{config.VCardBDAY, Birthday},
			{config.VCardAnniversary, Anniversary},
		} {
			f := card.Get(field.key)
			if f == nil || f.Value == "" {
				continue
			}
			date, yearKnown, err := parseVCardDate(f.Value)
			if err != nil {
				slog.Debug(config.MsgSkippedDate,
					config.LogKeyComponent, config.CompEngine,
					config.LogKeyValue, f.Value)
				continue
			}
			events = append(events, Event{
				Name:      name,
				Date:      date,
				Category:  field.category,
				YearKnown: yearKnown,
			})
		}
	}

	return events, nil
}

// parseVCardDate handles the date forms found in the wild.
func parseVCardDate(value string) (Date, bool, error) {
	// Full dates (Year known)
	formatsWithYear := []string{
		config.DateFormatISO,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formatsWithYear {
		if t, err := time.Parse(f, value); err == nil {
			return DateOf(t), true, nil
		}
	}

	// Truncated dates (Year unknown). A leap placeholder keeps --02-29 valid.
	formatsWithoutYear := []string{config.DateFormatNoYearD, config.DateFormatNoYearB}
	for _, f := range formatsWithoutYear {
		if t, err := time.Parse(f, value); err == nil {
			return Date{Year: config.DefaultLeapYear, Month: t.Month(), Day: t.Day()}, false, nil
		}
	}

	return Date{}, false, errors.New(config.ErrDateParse)
}
