package bot

import "strings"

// ShouldHandle reports whether the event qualifies for an assistant turn:
// an explicit talk command, the bot addressed by name in the raw text, or a
// conversation already in assistant mode (sticky activation). Pure; no
// qualifying signal simply means the turn is not ours.
func ShouldHandle(c *Context, botName string) bool {
	if c.HasCommand(CommandTalk) {
		return true
	}
	if botName != "" && strings.Contains(c.RawText, botName) {
		return true
	}
	return c.Source.Bot.IsActivated
}
