package wizard

import (
	"strings"

	"ticket-bot/storage"
)

// Digits accepts a trimmed reply composed entirely of decimal digits
// (channel and role identifiers).
func Digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Link accepts an https URL.
func Link(s string) bool {
	return strings.HasPrefix(s, "https://")
}

// NonEmpty accepts any non-empty text.
func NonEmpty(s string) bool {
	return s != ""
}

// TicketSetupQuestions is the full guided setup run by the setup
// command: every identifier the ticket system can consume.
func TicketSetupQuestions() []Question {
	return []Question{
		{
			Prompt:   "Ticket transcripts channel ID (numbers only):",
			Validate: Digits,
			Assign:   func(s *storage.GuildSetup, v string) { s.TranscriptsChannel = v },
		},
		{
			Prompt:   "Middleman role ID (numbers only):",
			Validate: Digits,
			Assign:   func(s *storage.GuildSetup, v string) { s.MiddlemanRole = v },
		},
		{
			Prompt:    "Index staff role ID (numbers only, or \"skip\"):",
			Skippable: true,
			Validate:  Digits,
			Assign:    func(s *storage.GuildSetup, v string) { s.IndexStaffRole = v },
		},
		{
			Prompt:    "Ticket category ID (numbers only, or \"skip\"):",
			Skippable: true,
			Validate:  Digits,
			Assign:    func(s *storage.GuildSetup, v string) { s.TicketCategory = v },
		},
		{
			Prompt:    "Co-owner role ID (numbers only, or \"skip\"):",
			Skippable: true,
			Validate:  Digits,
			Assign:    func(s *storage.GuildSetup, v string) { s.CoOwnerRole = v },
		},
		{
			Prompt:    "Verification link (https://...) or \"skip\":",
			Skippable: true,
			Validate:  Link,
			Assign:    func(s *storage.GuildSetup, v string) { s.VerificationLink = v },
		},
		{
			Prompt:   "Recruit role ID (numbers only):",
			Validate: Digits,
			Assign:   func(s *storage.GuildSetup, v string) { s.RecruitRole = v },
		},
		{
			Prompt:   "Guide channel ID (numbers only):",
			Validate: Digits,
			Assign:   func(s *storage.GuildSetup, v string) { s.GuideChannel = v },
		},
		{
			Prompt:   "Staff role ID (numbers only):",
			Validate: Digits,
			Assign:   func(s *storage.GuildSetup, v string) { s.StaffRole = v },
		},
	}
}

// MiddlemanSetupQuestions is the shorter run for middleman-mode users:
// only the fields the middleman features consume.
func MiddlemanSetupQuestions() []Question {
	return []Question{
		{
			Prompt:   "Middleman role ID (numbers only):",
			Validate: Digits,
			Assign:   func(s *storage.GuildSetup, v string) { s.MiddlemanRole = v },
		},
		{
			Prompt:    "Index staff role ID (numbers only, or \"skip\"):",
			Skippable: true,
			Validate:  Digits,
			Assign:    func(s *storage.GuildSetup, v string) { s.IndexStaffRole = v },
		},
		{
			Prompt:   "Recruit role ID (numbers only):",
			Validate: Digits,
			Assign:   func(s *storage.GuildSetup, v string) { s.RecruitRole = v },
		},
		{
			Prompt:   "Guide channel ID (numbers only):",
			Validate: Digits,
			Assign:   func(s *storage.GuildSetup, v string) { s.GuideChannel = v },
		},
		{
			Prompt:    "Verification link (https://...) or \"skip\":",
			Skippable: true,
			Validate:  Link,
			Assign:    func(s *storage.GuildSetup, v string) { s.VerificationLink = v },
		},
	}
}
