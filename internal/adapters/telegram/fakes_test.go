package telegram_test

import (
	"context"
	"sync"

	"property_bot/internal/adapters/telegram"
	"property_bot/internal/app"
)

type sent struct {
	chatID  int64
	text    string
	kb      *telegram.InlineKeyboardMarkup
	photo   []byte
	caption string
}

type fakeMessenger struct {
	mu      sync.Mutex
	msgs    []sent
	actions []string
	failOn  int // 1-based message index that fails, 0 = never
	err     error
}

func (f *fakeMessenger) SendMessage(ctx context.Context, chatID int64, text string, kb *telegram.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn > 0 && len(f.msgs)+1 == f.failOn {
		return f.err
	}
	f.msgs = append(f.msgs, sent{chatID: chatID, text: text, kb: kb})
	return nil
}

func (f *fakeMessenger) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{chatID: chatID, photo: png, caption: caption})
	return nil
}

func (f *fakeMessenger) SendChatAction(ctx context.Context, chatID int64, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeMessenger) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.msgs...)
}

type fakePipeline struct {
	text          string
	top           app.TopReport
	err           error
	complaintsOn  bool
	lastID        string
	lastN         int
	complaintsHit int
}

func (p *fakePipeline) Ratings(ctx context.Context) (string, error) { return p.text, p.err }
func (p *fakePipeline) Catalog(ctx context.Context) (string, error) { return p.text, p.err }
func (p *fakePipeline) Property(ctx context.Context, id string) (string, error) {
	p.lastID = id
	return p.text, p.err
}
func (p *fakePipeline) Top(ctx context.Context, n int) (app.TopReport, error) {
	p.lastN = n
	return p.top, p.err
}
func (p *fakePipeline) Complaints(ctx context.Context, id string) (string, error) {
	p.lastID = id
	p.complaintsHit++
	return p.text, p.err
}
func (p *fakePipeline) HasComplaints() bool { return p.complaintsOn }
