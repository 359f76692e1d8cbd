// Package announce delivers in-channel announcements asynchronously.
// Command handlers reply to the sender immediately; anything addressed to
// the whole channel goes through this queue so a slow or failing chat API
// call never blocks command processing. Delivery is fire-and-forget with
// bounded retry.
package announce

import (
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

// Sender is the chat API surface the announcer needs.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type announcement struct {
	chatID int64
	text   string
}

// Announcer is a buffered announcement queue with one delivery worker.
type Announcer struct {
	sender     Sender
	queue      chan announcement
	done       chan struct{}
	maxRetries int
}

// New creates an Announcer. Call Start to begin delivery.
func New(sender Sender, queueSize, maxRetries int) *Announcer {
	if queueSize <= 0 {
		queueSize = 256
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Announcer{
		sender:     sender,
		queue:      make(chan announcement, queueSize),
		done:       make(chan struct{}),
		maxRetries: maxRetries,
	}
}

// Start launches the delivery worker.
func (a *Announcer) Start() {
	go a.run()
}

// Stop drains the queue and stops the worker.
func (a *Announcer) Stop() {
	close(a.queue)
	<-a.done
}

// Announce enqueues an in-channel announcement. The channel id is the
// engine's opaque string form of the chat id. Never blocks: if the queue
// is full the announcement is dropped and logged.
func (a *Announcer) Announce(channelID, text string) {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		log.Warn().Str("channel_id", channelID).Msg("Dropping announcement for non-numeric channel id")
		return
	}

	select {
	case a.queue <- announcement{chatID: chatID, text: text}:
	default:
		log.Warn().Int64("chat_id", chatID).Msg("Announcement queue full, dropping message")
	}
}

func (a *Announcer) run() {
	defer close(a.done)

	for msg := range a.queue {
		a.deliver(msg)
	}
}

func (a *Announcer) deliver(msg announcement) {
	var err error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		_, err = a.sender.Send(tele.ChatID(msg.chatID), msg.text)
		if err == nil {
			return
		}
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}

	log.Error().
		Err(err).
		Int64("chat_id", msg.chatID).
		Int("attempts", a.maxRetries).
		Msg("Failed to deliver announcement")
}
