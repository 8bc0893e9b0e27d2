package telegram

import "strings"

// Command is the closed set of things a user can ask for.
type Command int

const (
	CmdUnknown Command = iota
	CmdStart
	CmdMenu
	CmdRatings
	CmdTop5
	CmdTop20
	CmdProperties
	CmdProperty
	CmdComplaints
	CmdPropertyHelp
	CmdComplaintsHelp
)

var commandNames = map[Command]string{
	CmdUnknown:        "unknown",
	CmdStart:          "start",
	CmdMenu:           "menu",
	CmdRatings:        "ratings",
	CmdTop5:           "top5",
	CmdTop20:          "top20",
	CmdProperties:     "properties",
	CmdProperty:       "property",
	CmdComplaints:     "complaints",
	CmdPropertyHelp:   "property_help",
	CmdComplaintsHelp: "complaints_help",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return "unknown"
}

var slashCommands = map[string]Command{
	"start":      CmdStart,
	"menu":       CmdMenu,
	"help":       CmdMenu,
	"ratings":    CmdRatings,
	"top5":       CmdTop5,
	"top20":      CmdTop20,
	"properties": CmdProperties,
	"property":   CmdProperty,
	"complaints": CmdComplaints,
}

var callbackCommands = map[string]Command{
	"action_top5":            CmdTop5,
	"action_top20":           CmdTop20,
	"action_ratings":         CmdRatings,
	"action_properties":      CmdProperties,
	"action_property_help":   CmdPropertyHelp,
	"action_complaints_help": CmdComplaintsHelp,
}

// ParseCommand reads "/name[@bot] args..." from a message text.
// Anything else is CmdUnknown.
func ParseCommand(text string) (Command, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return CmdUnknown, nil
	}
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	cmd, ok := slashCommands[strings.ToLower(name)]
	if !ok {
		return CmdUnknown, nil
	}
	return cmd, fields[1:]
}

func ParseCallback(data string) Command {
	return callbackCommands[strings.TrimSpace(data)]
}

func mainMenu() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{{Text: "🏆 Top 5", CallbackData: "action_top5"}, {Text: "📈 Top 20", CallbackData: "action_top20"}},
		{{Text: "📊 All Ratings", CallbackData: "action_ratings"}, {Text: "🏠 Properties", CallbackData: "action_properties"}},
		{{Text: "🔍 Property Details", CallbackData: "action_property_help"}, {Text: "📋 Complaints", CallbackData: "action_complaints_help"}},
	}}
}
