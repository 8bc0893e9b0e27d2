// internal/adapters/telegram/bot.go
package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"property_bot/internal/domain"
)

// Updater is the inbound half of the Bot API.
type Updater interface {
	GetUpdates(ctx context.Context, offset int64) ([]Update, error)
	AnswerCallbackQuery(ctx context.Context, id string) error
}

type BotOptions struct {
	Workers       int
	UpdateTimeout time.Duration
	// Offsets is optional; without it the cursor lives in memory only.
	Offsets domain.OffsetStore
}

// Bot long-polls for updates and dispatches each one on its own goroutine.
type Bot struct {
	in      Updater
	router  *Router
	offsets domain.OffsetStore
	sem     *semaphore.Weighted
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewBot(in Updater, router *Router, opts BotOptions) *Bot {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.UpdateTimeout <= 0 {
		opts.UpdateTimeout = 60 * time.Second
	}
	return &Bot{
		in:      in,
		router:  router,
		offsets: opts.Offsets,
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		timeout: opts.UpdateTimeout,
	}
}

// Run polls until ctx is cancelled, then waits for in-flight updates.
func (b *Bot) Run(ctx context.Context) error {
	defer b.wg.Wait()

	offset := b.loadOffset(ctx)
	log.Info().Int64("offset", offset).Msg("telegram bot polling")

	backoff := 2 * time.Second
	for {
		if ctx.Err() != nil {
			log.Info().Msg("telegram bot stopping")
			return nil
		}

		updates, err := b.in.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Warn().Err(err).Dur("backoff", backoff).Msg("getUpdates failed")
			if !sleepCtx(ctx, backoff) {
				continue
			}
			if backoff < 15*time.Second {
				backoff = min(backoff*2, 15*time.Second)
			}
			continue
		}
		backoff = 2 * time.Second

		next := offset
		for _, upd := range updates {
			// acquire before launching the goroutine; release inside it
			if err := b.sem.Acquire(ctx, 1); err != nil {
				break
			}
			if upd.UpdateID >= next {
				next = upd.UpdateID + 1
			}
			b.wg.Add(1)
			go func(u Update) {
				defer b.wg.Done()
				defer b.sem.Release(1)
				b.handle(ctx, u)
			}(upd)
		}

		if next > offset {
			offset = next
			b.saveOffset(context.WithoutCancel(ctx), offset)
		}
	}
}

func (b *Bot) handle(parent context.Context, u Update) {
	l := log.With().
		Str("request_id", uuid.NewString()).
		Int64("update_id", u.UpdateID).
		Logger()
	// in-flight updates finish on shutdown, bounded by the per-update timeout
	ctx, cancel := context.WithTimeout(l.WithContext(context.WithoutCancel(parent)), b.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			l.Error().Interface("panic", rec).Msg("update handler panicked")
		}
	}()

	var (
		chatID int64
		cmd    Command
		args   []string
	)
	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		if err := b.in.AnswerCallbackQuery(ctx, cq.ID); err != nil {
			l.Debug().Err(err).Msg("answer callback failed")
		}
		if cq.Message == nil {
			return
		}
		chatID, cmd = cq.Message.Chat.ID, ParseCallback(cq.Data)
	case u.Message != nil:
		text := strings.TrimSpace(u.Message.Text)
		if text == "" {
			return
		}
		chatID = u.Message.Chat.ID
		cmd, args = ParseCommand(text)
	default:
		return
	}
	if chatID == 0 {
		return
	}

	start := time.Now()
	err := b.router.Dispatch(ctx, chatID, cmd, args)
	ev := l.Info()
	if err != nil {
		ev = l.Warn().Err(err)
	}
	ev.Int64("chat_id", chatID).
		Str("command", cmd.String()).
		Dur("duration", time.Since(start)).
		Msg("telegram_update")
}

func (b *Bot) loadOffset(ctx context.Context) int64 {
	if b.offsets == nil {
		return 0
	}
	off, err := b.offsets.LoadOffset(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("load poll offset failed, starting from 0")
		return 0
	}
	return off
}

func (b *Bot) saveOffset(ctx context.Context, offset int64) {
	if b.offsets == nil {
		return
	}
	if err := b.offsets.SaveOffset(ctx, offset); err != nil {
		log.Warn().Err(err).Int64("offset", offset).Msg("save poll offset failed")
	}
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
