// Package tui holds the interactive prompts used by atl commands.
package tui

import (
	"errors"
	"fmt"
	"os"

	"allthingslinux/atl/internal/tui/styles"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned when the user cancels or declines a prompt.
var ErrAborted = errors.New("aborted by user")

// ConfirmDestroy asks the user to confirm destroying every resource in the
// environment's Terraform workspace.
func ConfirmDestroy(environment string) error {
	accessible := os.Getenv("ACCESSIBLE") != ""

	confirm := false
	note := huh.NewNote().
		Title("Destroy infrastructure").
		Description(styles.WarningText.Render(
			fmt.Sprintf("Every resource in the %q workspace will be destroyed.", environment)))

	field := huh.NewConfirm().
		Title("Are you sure you want to continue?").
		Affirmative("Yes, destroy").
		Negative("Cancel").
		Value(&confirm)

	if err := runForm(accessible, huh.NewGroup(note, field)); err != nil {
		return err
	}
	if !confirm {
		return ErrAborted
	}
	return nil
}

func runForm(accessible bool, groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithAccessible(accessible).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}
