package notification

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/domain"
)

// DiscordService implements NotificationService for Discord webhooks
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	httpClient *http.Client
	now        func() time.Time
}

// NewDiscordService creates a new Discord notification service
func NewDiscordService(log zerolog.Logger, webhookURL string) *DiscordService {
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// SendSuccess sends a title index refresh summary
func (s *DiscordService) SendSuccess(ctx context.Context, stats domain.TitleIndexStats) error {
	if s.webhookURL == "" {
		return nil
	}

	description := "Title index is up to date"
	if stats.Rebuilt {
		description = "Title index rebuilt"
	}

	embed := discordEmbed{
		Title:       "Anime Title Refresh Completed",
		Description: description,
		Color:       0x00ff00,
		Timestamp:   s.now().Format(time.RFC3339),
		Fields: []discordField{
			{
				Name:   "Artifact",
				Value:  fmt.Sprintf("%s (%s)", stats.Artifact, humanize.Bytes(uint64(stats.ArtifactBytes))),
				Inline: true,
			},
			{
				Name:   "Anime",
				Value:  humanize.Comma(int64(stats.AnimeCount)),
				Inline: true,
			},
			{
				Name:   "Titles",
				Value:  humanize.Comma(int64(stats.TitleCount)),
				Inline: true,
			},
			{
				Name:   "Duration",
				Value:  stats.Duration.Round(time.Millisecond).String(),
				Inline: true,
			},
		},
	}

	if stats.Artifact == domain.ArtifactStale {
		embed.Color = 0xffa500
		embed.Description += " from a stale title dump; the download failed"
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

// SendError sends an error notification with error details
func (s *DiscordService) SendError(ctx context.Context, err error) error {
	if s.webhookURL == "" {
		return nil
	}

	embed := discordEmbed{
		Title:       "Anime Title Refresh Failed",
		Description: fmt.Sprintf("Title index refresh failed with error:\n```%s```", err.Error()),
		Color:       0xff0000,
		Timestamp:   s.now().Format(time.RFC3339),
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	s.log.Debug().Msg("Discord notification sent successfully")
	return nil
}

type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}
