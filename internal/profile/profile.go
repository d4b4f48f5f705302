// Package profile resolves who the assistant is working for. Identity
// is detected from the host (passwd entry, hostname, timezone) and
// merged with values persisted in the config document; persisted values
// always win so the user can correct the detection.
package profile

import (
	"os"
	"os/user"
	"strings"
	"time"
	"unicode"

	"github.com/nbdavies/ant/internal/config"
)

// Profile describes the user across a session.
type Profile struct {
	Username    string
	FullName    string
	Nickname    string
	HomeDir     string
	Hostname    string
	Shell       string
	Timezone    string
	Preferences map[string]string
}

// defaultPreferences seed the preference map on first run.
func defaultPreferences() map[string]string {
	return map[string]string{
		"code_style":          "auto",
		"communication_style": "friendly",
		"detail_level":        "balanced",
	}
}

// Detect builds a profile from the host environment alone.
func Detect() *Profile {
	p := &Profile{
		Username:    os.Getenv("USER"),
		Shell:       os.Getenv("SHELL"),
		Timezone:    detectTimezone(),
		Preferences: defaultPreferences(),
	}

	if u, err := user.Current(); err == nil {
		p.Username = u.Username
		p.HomeDir = u.HomeDir
		// GECOS: full name is the first comma-separated field
		if name, _, _ := strings.Cut(u.Name, ","); name != "" {
			p.FullName = name
		}
	}
	if p.Username == "" {
		p.Username = "user"
	}
	if p.FullName == "" {
		p.FullName = p.Username
	}
	if p.Shell == "" {
		p.Shell = "/bin/sh"
	}
	if host, err := os.Hostname(); err == nil {
		p.Hostname = formatHostname(host)
	}

	return p
}

// Resolve merges a detected profile with persisted user config.
// Persisted values win; missing ones fall back to detection.
func Resolve(u config.UserConfig) *Profile {
	p := Detect()

	if u.Username != "" {
		p.Username = u.Username
	}
	if u.FullName != "" {
		p.FullName = u.FullName
	}
	if u.Nickname != "" {
		p.Nickname = u.Nickname
	}
	if u.Timezone != "" {
		p.Timezone = u.Timezone
	}
	for k, v := range u.Preferences {
		p.Preferences[k] = v
	}

	return p
}

// Fill writes resolved values into empty fields of the user config so
// they persist across runs without clobbering user edits.
func (p *Profile) Fill(u *config.UserConfig) {
	if u.Username == "" {
		u.Username = p.Username
	}
	if u.FullName == "" {
		u.FullName = p.FullName
	}
	if u.Timezone == "" {
		u.Timezone = p.Timezone
	}
	if u.Preferences == nil {
		u.Preferences = make(map[string]string, len(p.Preferences))
	}
	for k, v := range p.Preferences {
		if _, ok := u.Preferences[k]; !ok {
			u.Preferences[k] = v
		}
	}
}

// DisplayName returns the name Ant addresses the user by: nickname,
// then full name, then username, capitalized for display.
func (p *Profile) DisplayName() string {
	for _, name := range []string{p.Nickname, p.FullName, p.Username} {
		if name != "" {
			return capitalize(name)
		}
	}
	return "User"
}

// Preference returns a preference value, or def when unset.
func (p *Profile) Preference(key, def string) string {
	if v, ok := p.Preferences[key]; ok {
		return v
	}
	return def
}

// TimeOfDay buckets an hour into morning/afternoon/evening/night for
// greeting text.
func TimeOfDay(t time.Time) string {
	switch hour := t.Hour(); {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}

func detectTimezone() string {
	if data, err := os.ReadFile("/etc/timezone"); err == nil {
		if tz := strings.TrimSpace(string(data)); tz != "" {
			return tz
		}
	}
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}
	return "UTC"
}

func formatHostname(host string) string {
	if host == "" {
		return host
	}
	host, _, _ = strings.Cut(host, ".")
	return capitalize(host)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
