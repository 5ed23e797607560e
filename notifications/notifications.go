package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okonma/citymood/collector"
	"github.com/okonma/citymood/config"
	"github.com/okonma/citymood/logger"
)

type NotificationService struct {
	config          *config.Config
	client          *http.Client
	telegramAPIBase string
}

func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{
		config:          cfg,
		client:          &http.Client{Timeout: 15 * time.Second},
		telegramAPIBase: "https://api.telegram.org",
	}
}

// NotifyCycleComplete reports a finished collection cycle to every
// configured channel.
func (ns *NotificationService) NotifyCycleComplete(stats collector.CycleStats) {
	if !ns.config.Notifications.Enabled || !ns.config.Notifications.NotifyOnCycle {
		return
	}

	message := formatCycleMessage(stats)

	if ns.config.Notifications.DiscordWebhook != "" {
		ns.sendDiscordNotification(message, stats)
	}

	if ns.config.Notifications.TelegramBotToken != "" && ns.config.Notifications.TelegramChatID != "" {
		ns.sendTelegramNotification(message)
	}
}

func formatCycleMessage(stats collector.CycleStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Collection cycle finished in %s: %d posts and %d comments scored across %d cities.",
		stats.Duration.Round(time.Second), stats.Posts, stats.Comments, stats.Cities)
	if stats.CitiesFailed > 0 {
		fmt.Fprintf(&b, " %d cities failed.", stats.CitiesFailed)
	}
	if stats.Skipped > 0 {
		fmt.Fprintf(&b, " %d items skipped as too short.", stats.Skipped)
	}
	return b.String()
}

func (ns *NotificationService) sendDiscordNotification(message string, stats collector.CycleStats) {
	type DiscordEmbed struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Color       int    `json:"color"`
		Timestamp   string `json:"timestamp"`
		Footer      struct {
			Text string `json:"text"`
		} `json:"footer"`
	}

	type DiscordWebhookPayload struct {
		Embeds []DiscordEmbed `json:"embeds"`
	}

	embedColor := 3066993 // Green
	if stats.CitiesFailed > 0 {
		embedColor = 15158332 // Red
	}

	embed := DiscordEmbed{
		Title:       "City Mood Collection",
		Description: message,
		Color:       embedColor,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	embed.Footer.Text = fmt.Sprintf("Started at %s", stats.Started.Format(time.RFC3339))

	payload := DiscordWebhookPayload{Embeds: []DiscordEmbed{embed}}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		logger.Logger.Printf("Failed to marshal Discord payload: %v", err)
		return
	}

	resp, err := ns.client.Post(ns.config.Notifications.DiscordWebhook,
		"application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		logger.Logger.Printf("Failed to send Discord notification: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.Logger.Printf("Discord webhook returned status: %d", resp.StatusCode)
	}
}

func (ns *NotificationService) sendTelegramNotification(message string) {
	url := fmt.Sprintf("%s/bot%s/sendMessage",
		ns.telegramAPIBase, ns.config.Notifications.TelegramBotToken)

	type TelegramPayload struct {
		ChatID string `json:"chat_id"`
		Text   string `json:"text"`
	}
	payload := TelegramPayload{
		ChatID: ns.config.Notifications.TelegramChatID,
		Text:   message,
	}
	jsonPayload, _ := json.Marshal(payload)

	resp, err := ns.client.Post(url, "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		logger.Logger.Printf("Failed to send Telegram notification: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.Logger.Printf("Telegram API returned status: %d", resp.StatusCode)
	}
}
