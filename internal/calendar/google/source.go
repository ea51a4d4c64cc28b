// Package google provides a Google Calendar meeting source.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"meet-notes-recorder/internal/models"
	"meet-notes-recorder/internal/observability/logging"
)

// Source lists upcoming meetings from a Google calendar.
type Source struct {
	svc        *gcal.Service
	calendarID string
}

// New builds a Source from an OAuth client credentials file and a
// previously obtained token file. Obtaining and refreshing the token is
// out of scope here; the token file is consumed as-is.
func New(ctx context.Context, credentialsFile, tokenFile, calendarID string) (*Source, error) {
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	conf, err := oauthgoogle.ConfigFromJSON(creds, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}

	raw, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("parsing token file: %w", err)
	}

	svc, err := gcal.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	if calendarID == "" {
		calendarID = "primary"
	}
	return &Source{svc: svc, calendarID: calendarID}, nil
}

// ListUpcoming returns meetings with a join link starting within the
// window. Events without concrete start/end times never surface.
func (s *Source) ListUpcoming(ctx context.Context, window time.Duration) ([]models.Meeting, error) {
	log := logging.WithComponent("calendar")

	now := time.Now().UTC()
	events, err := s.svc.Events.List(s.calendarID).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.Add(window).Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	meetings := make([]models.Meeting, 0, len(events.Items))
	for _, ev := range events.Items {
		if ev.HangoutLink == "" {
			continue
		}
		// All-day events carry only a date, not a dateTime.
		if ev.Start == nil || ev.End == nil || ev.Start.DateTime == "" || ev.End.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			log.Warn().Err(err).Str("eventId", ev.Id).Msg("Unparseable event start, skipping")
			continue
		}
		end, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			log.Warn().Err(err).Str("eventId", ev.Id).Msg("Unparseable event end, skipping")
			continue
		}
		meetings = append(meetings, models.Meeting{
			ID:       ev.Id,
			Title:    ev.Summary,
			Start:    start,
			End:      end,
			JoinLink: ev.HangoutLink,
		})
	}

	log.Debug().Int("count", len(meetings)).Dur("window", window).Msg("Fetched upcoming meetings")
	return meetings, nil
}
