// internal/adapters/telegram/router.go
package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"property_bot/internal/adapters/observability"
	"property_bot/internal/app"
	"property_bot/internal/domain"
)

// Pipeline is the slice of app.PropertyService the router needs.
type Pipeline interface {
	Ratings(ctx context.Context) (string, error)
	Catalog(ctx context.Context) (string, error)
	Property(ctx context.Context, id string) (string, error)
	Top(ctx context.Context, n int) (app.TopReport, error)
	Complaints(ctx context.Context, propertyID string) (string, error)
	HasComplaints() bool
}

// Messenger is the outbound half of the Bot API.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, kb *InlineKeyboardMarkup) error
	SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
}

const (
	welcomeText = "👋 Welcome to the Property Management Bot!\n\n" +
		"I can help you with:\n" +
		"• View property ratings (Airbnb & Booking)\n" +
		"• Browse the list of properties\n" +
		"• Check complaints for any property\n\n" +
		"Use the menu below or type commands directly:"
	menuText = "📌 Main Menu\n\nChoose an option below:"
	helpText = "🤖 Available commands\n\n" +
		"/start - welcome message with interactive menu\n" +
		"/menu - show the main menu\n" +
		"/ratings - ratings of all properties\n" +
		"/top5 - top 5 rated properties with chart\n" +
		"/top20 - top 20 rated properties with chart\n" +
		"/properties - list all properties\n" +
		"/property <id> - details for one property\n" +
		"/complaints <property_id> - complaints for one property"
	catalogHints       = "💡 Use /property <id> for details\n💡 Use /complaints <id> to see complaints"
	propertyUsage      = "Usage: /property <id>\nExample: /property 1"
	complaintsUsage    = "Usage: /complaints <property_id>\nExample: /complaints 1\n\nThis will show all complaints for the specified property."
	propertyHelpText   = "🔍 Property Details\n\nTo view details for a specific property, use:\n/property <id>\n\nExample: /property 1"
	complaintsHelpText = "📋 View Complaints\n\nTo see complaints for a specific property, use:\n/complaints <property_id>\n\nExample: /complaints 1"
	complaintsOffText  = "Complaints feature is not configured.\nPlease set COMPLAINTS_URL in environment variables."
)

// Router turns commands into pipeline calls and replies.
type Router struct {
	svc    Pipeline
	out    Messenger
	maxLen int
}

func NewRouter(svc Pipeline, out Messenger, maxLen int) *Router {
	return &Router{svc: svc, out: out, maxLen: maxLen}
}

// Dispatch handles one command. Pipeline failures become chat replies; only
// failures to talk to Telegram itself are returned.
func (r *Router) Dispatch(ctx context.Context, chatID int64, cmd Command, args []string) error {
	l := zerolog.Ctx(ctx)
	var (
		text string
		err  error
	)
	switch cmd {
	case CmdStart:
		observability.ObserveCommand(cmd.String(), "ok")
		return r.out.SendMessage(ctx, chatID, welcomeText, mainMenu())
	case CmdMenu:
		observability.ObserveCommand(cmd.String(), "ok")
		return r.out.SendMessage(ctx, chatID, menuText, mainMenu())
	case CmdPropertyHelp:
		text = propertyHelpText
	case CmdComplaintsHelp:
		text = complaintsHelpText

	case CmdRatings:
		r.typing(ctx, chatID, ActionTyping)
		text, err = r.svc.Ratings(ctx)

	case CmdProperties:
		r.typing(ctx, chatID, ActionTyping)
		text, err = r.svc.Catalog(ctx)
		if err == nil {
			text = app.JoinBlocks(text, catalogHints)
		}

	case CmdProperty:
		if len(args) == 0 {
			text = propertyUsage
			break
		}
		r.typing(ctx, chatID, ActionTyping)
		text, err = r.svc.Property(ctx, args[0])

	case CmdComplaints:
		if len(args) == 0 {
			text = complaintsUsage
			break
		}
		if !r.svc.HasComplaints() {
			text = complaintsOffText
			break
		}
		r.typing(ctx, chatID, ActionTyping)
		text, err = r.svc.Complaints(ctx, args[0])

	case CmdTop5, CmdTop20:
		return r.top(ctx, chatID, cmd)

	default:
		text = helpText
	}

	if err != nil {
		l.Warn().Err(err).Str("command", cmd.String()).Msg("command failed")
		text = errorMessage(cmd, args, err)
	}
	observability.ObserveCommand(cmd.String(), outcome(err))
	return r.reply(ctx, chatID, text)
}

func (r *Router) top(ctx context.Context, chatID int64, cmd Command) error {
	n := 5
	if cmd == CmdTop20 {
		n = 20
	}
	r.typing(ctx, chatID, ActionTyping)
	rep, err := r.svc.Top(ctx, n)
	observability.ObserveCommand(cmd.String(), outcome(err))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("command", cmd.String()).Msg("command failed")
		return r.reply(ctx, chatID, errorMessage(cmd, nil, err))
	}
	if err := r.reply(ctx, chatID, rep.Text); err != nil {
		return err
	}
	r.typing(ctx, chatID, ActionUploadPhoto)
	return r.out.SendPhoto(ctx, chatID, rep.Chart, rep.Caption)
}

// reply sends text in chunks that fit one message, stopping at the first failure.
func (r *Router) reply(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range messageChunks(text, r.maxLen) {
		if err := r.out.SendMessage(ctx, chatID, chunk, nil); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) typing(ctx context.Context, chatID int64, action string) {
	if err := r.out.SendChatAction(ctx, chatID, action); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("send chat action failed")
	}
}

func errorMessage(cmd Command, args []string, err error) string {
	var fe *domain.FetchError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if len(args) > 0 {
			return fmt.Sprintf("Property with id %s not found.", args[0])
		}
		return "Property not found."
	case errors.Is(err, domain.ErrNoData):
		switch cmd {
		case CmdTop5, CmdTop20:
			return "Could not calculate ratings: no property has a rating yet."
		case CmdComplaints:
			return complaintsOffText
		}
		return "No property data available."
	case errors.As(err, &fe):
		switch fe.Kind {
		case domain.BadStatus:
			return fmt.Sprintf("⚠️ The property service answered with status %d. Please try again later.", fe.Status)
		case domain.MalformedBody:
			return "⚠️ The property service sent data I could not read. Please try again later."
		}
		return "⚠️ The property service is unreachable right now. Please try again later."
	}
	return "⚠️ Something went wrong. Please try again later."
}

func outcome(err error) string {
	var fe *domain.FetchError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNoData):
		return "no_data"
	case errors.As(err, &fe):
		switch fe.Kind {
		case domain.BadStatus:
			return "bad_status"
		case domain.MalformedBody:
			return "malformed"
		}
		return "unreachable"
	}
	return "error"
}
