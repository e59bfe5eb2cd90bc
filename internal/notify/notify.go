// Package notify sends best-effort Telegram messages when a task history
// entry is created. Dispatch never blocks and never fails the request that
// triggered it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"workdesk/internal/logger"
	"workdesk/internal/task"
)

var statusEmoji = map[task.HistoryStatus]string{
	task.HistoryMaking:     "🔵",
	task.HistoryConfirming: "🟡",
	task.HistoryInProgress: "🟠",
	task.HistoryCompleted:  "🟢",
	task.HistoryOnHold:     "⚪",
	task.HistoryCancelled:  "🔴",
}

var statusLabel = map[task.HistoryStatus]string{
	task.HistoryMaking:     "making",
	task.HistoryConfirming: "confirming",
	task.HistoryInProgress: "in progress",
	task.HistoryCompleted:  "completed",
	task.HistoryOnHold:     "on hold",
	task.HistoryCancelled:  "cancelled",
}

const maxContentLen = 200

type Dispatcher struct {
	BotToken string
	ChatID   string
	APIBase  string

	// TaskBaseURL, when set, is appended as a link back to the board.
	TaskBaseURL string

	Client *http.Client

	events chan task.HistoryEvent
}

func NewDispatcher(botToken, chatID, apiBase, taskBaseURL string) *Dispatcher {
	return &Dispatcher{
		BotToken:    botToken,
		ChatID:      chatID,
		APIBase:     apiBase,
		TaskBaseURL: taskBaseURL,
		Client:      &http.Client{Timeout: 10 * time.Second},
		events:      make(chan task.HistoryEvent, 64),
	}
}

func (d *Dispatcher) Enabled() bool { return d.BotToken != "" && d.ChatID != "" }

// Publish queues an event without blocking. When the buffer is full the
// event is dropped and logged; there is no retry queue.
func (d *Dispatcher) Publish(ev task.HistoryEvent) {
	if !d.Enabled() {
		return
	}
	select {
	case d.events <- ev:
	default:
		logger.Warn("notify.dropped", "task_number", ev.TaskNumber, "title", ev.Title)
	}
}

// Run drains the queue until ctx is cancelled. One attempt per event.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			if err := d.send(ctx, ev); err != nil {
				logger.Error("notify.failed", "task_number", ev.TaskNumber, "err", err)
				continue
			}
			logger.Debug("notify.sent", "task_number", ev.TaskNumber)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, ev task.HistoryEvent) error {
	body, err := json.Marshal(map[string]any{
		"chat_id":    d.ChatID,
		"text":       d.Message(ev),
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", d.APIBase, d.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram responded %d", resp.StatusCode)
	}
	return nil
}

// Message renders the HTML notification text.
func (d *Dispatcher) Message(ev task.HistoryEvent) string {
	emoji, label := statusEmoji[ev.Status], statusLabel[ev.Status]
	if emoji == "" {
		emoji, label = "📋", string(ev.Status)
	}

	var b bytes.Buffer
	b.WriteString("🔔 <b>New work history entry</b>\n\n")
	fmt.Fprintf(&b, "<b>Task:</b> #%d %s\n", ev.TaskNumber, ev.TaskTitle)
	fmt.Fprintf(&b, "<b>Status:</b> %s %s\n", emoji, label)
	fmt.Fprintf(&b, "<b>Title:</b> %s\n", ev.Title)

	if ev.Content != "" {
		content := ev.Content
		if len([]rune(content)) > maxContentLen {
			content = string([]rune(content)[:maxContentLen]) + "..."
		}
		fmt.Fprintf(&b, "<b>Details:</b>\n%s\n", content)
	}

	fmt.Fprintf(&b, "\n<b>Author:</b> %s\n", ev.AuthorName)

	if d.TaskBaseURL != "" {
		fmt.Fprintf(&b, "\n🔗 <a href=%q>Open the board</a>", d.TaskBaseURL)
	}
	return b.String()
}
