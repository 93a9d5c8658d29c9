// Package tui is the rendering layer for adminctl: interactive prompts,
// lipgloss-styled terminal output and the live dashboard view. It consumes
// orchestrator snapshots and facade envelopes; it never talks to the
// backends itself.
package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/paylinehq/adminctl/internal/auth"
)

// PromptForCredentials interactively collects login inputs. Used by the
// login command when flags are omitted.
func PromptForCredentials(identifier string) (auth.Credentials, error) {
	creds := auth.Credentials{Identifier: identifier}

	fields := []huh.Field{}
	if creds.Identifier == "" {
		fields = append(fields, huh.NewInput().
			Title("Identifier").
			Placeholder("email or username").
			Value(&creds.Identifier))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&creds.Secret))

	form := huh.NewForm(huh.NewGroup(fields...))
	if err := form.Run(); err != nil {
		return auth.Credentials{}, fmt.Errorf("prompt failed: %w", err)
	}

	if creds.Identifier == "" || creds.Secret == "" {
		return auth.Credentials{}, fmt.Errorf("identifier and password are required")
	}
	return creds, nil
}

// PromptForRealm selects the backend realm to authenticate against.
func PromptForRealm() (auth.Realm, error) {
	var realm auth.Realm

	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[auth.Realm]().
			Title("Realm").
			Options(
				huh.NewOption("Agency administration", auth.RealmAgence),
				huh.NewOption("Client services", auth.RealmUser),
			).
			Value(&realm),
	))
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return realm, nil
}

// PromptForConfirmation displays a yes/no confirmation prompt.
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(message).Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

// PromptForComment collects an optional reviewer comment.
func PromptForComment(title string) (string, error) {
	var comment string

	form := huh.NewForm(huh.NewGroup(
		huh.NewText().Title(title).CharLimit(500).Value(&comment),
	))
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return comment, nil
}
