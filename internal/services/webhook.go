package services

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// WebhookService delivers completion announcements to a board's Discord
// webhook. Delivery is fire-and-forget: a failed POST is logged and dropped,
// it never affects the completion state that triggered it.
type WebhookService struct {
	client *http.Client
}

// Global webhook service instance
var Webhook = &WebhookService{
	client: &http.Client{Timeout: 10 * time.Second},
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

// SendTileCompletion announces a team's auto-completed tile. No-op when the
// board has no webhook configured.
func (w *WebhookService) SendTileCompletion(webhookURL *string, boardTitle, teamName, tileTitle string) {
	if webhookURL == nil || *webhookURL == "" {
		return
	}
	w.send(*webhookURL, discordPayload{
		Embeds: []discordEmbed{{
			Title:       "Tile completed!",
			Description: teamName + " completed \"" + tileTitle + "\" on " + boardTitle,
			Color:       0x57F287,
		}},
	})
}

// SendSubmissionReceived announces a new pending submission for review.
func (w *WebhookService) SendSubmissionReceived(webhookURL *string, boardTitle, teamName, tileTitle string) {
	if webhookURL == nil || *webhookURL == "" {
		return
	}
	w.send(*webhookURL, discordPayload{
		Embeds: []discordEmbed{{
			Title:       "New submission",
			Description: teamName + " submitted evidence for \"" + tileTitle + "\" on " + boardTitle,
			Color:       0x5865F2,
		}},
	})
}

func (w *WebhookService) send(url string, payload discordPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("webhook: marshal payload: %v", err)
		return
	}

	resp, err := w.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("webhook: post failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("webhook: post returned status %d", resp.StatusCode)
	}
}
