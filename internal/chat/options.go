package chat

import (
	"strings"
	"time"
)

const (
	DefaultSessionID   = "default"
	DefaultTemperature = 0.8
)

// Options configures a Processor. Start from DefaultOptions; blank strings
// fall back to the defaults, but a zero Temperature is honored.
type Options struct {
	// DefaultSessionID is used when the caller omits a session id.
	DefaultSessionID string
	// Temperature is forwarded to the model on every call.
	Temperature float64
	// Timeout bounds one model call; zero means no deadline beyond the caller's context.
	Timeout time.Duration
	// SystemPrompt and WelcomeMessage seed empty sessions.
	SystemPrompt   string
	WelcomeMessage string
	// DisableSeed keeps empty sessions empty, as the terminal client does.
	DisableSeed bool
}

// DefaultOptions returns the RoboEmpath server defaults.
func DefaultOptions() Options {
	return Options{
		DefaultSessionID: DefaultSessionID,
		Temperature:      DefaultTemperature,
		SystemPrompt:     SystemPrompt,
		WelcomeMessage:   WelcomeMessage,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if strings.TrimSpace(o.DefaultSessionID) == "" {
		o.DefaultSessionID = d.DefaultSessionID
	}
	if o.Temperature < 0 {
		o.Temperature = d.Temperature
	}
	if strings.TrimSpace(o.SystemPrompt) == "" {
		o.SystemPrompt = d.SystemPrompt
	}
	if strings.TrimSpace(o.WelcomeMessage) == "" {
		o.WelcomeMessage = d.WelcomeMessage
	}
	if o.Timeout < 0 {
		o.Timeout = 0
	}
	return o
}
