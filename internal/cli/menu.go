package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/naoray/subtreesync/internal/subtree"
	"github.com/naoray/subtreesync/internal/ui"
)

const (
	scopeOne      = "one"
	scopeSelected = "selected"
	scopeAll      = "all"
)

var errMenuNeedsTerminal = errors.New("the interactive menu needs a terminal")

// runMenu lets the user pick an operation, then runs it with prompts for the rest.
func runMenu(cmd *cobra.Command) error {
	if !ui.IsInteractive() {
		return errMenuNeedsTerminal
	}

	app, err := OpenApp(cmd)
	if err != nil {
		return err
	}
	prompter := ui.NewHuhPrompter()
	ctx := cmd.Context()

	op, err := prompter.Select("What do you want to do?", []ui.Option{
		{Label: "Add a subtree", Value: "add"},
		{Label: "Pull updates", Value: "pull"},
		{Label: "Push changes", Value: "push"},
		{Label: "Split history", Value: "split"},
		{Label: "List subtrees", Value: "list"},
		{Label: "Remove a subtree", Value: "remove"},
	})
	if err != nil {
		return err
	}

	if op == "add" {
		_, err := app.Service.Add(ctx, subtree.AddOptions{Yes: app.Yes})
		return err
	}
	if op == "list" {
		_, err := app.Service.List(subtree.ListOptions{Verbose: true})
		return err
	}

	scope := scopeOne
	if len(app.Service.Entries()) > 1 {
		if scope, err = prompter.Select("Which subtrees?", []ui.Option{
			{Label: "A single subtree", Value: scopeOne},
			{Label: "Selected subtrees", Value: scopeSelected},
			{Label: "All subtrees", Value: scopeAll},
		}); err != nil {
			return err
		}
	}

	var names []string
	if scope == scopeSelected {
		if names, err = app.Service.SelectEntries("Select the subtrees to " + op); err != nil {
			return err
		}
	}
	batch := scope != scopeOne

	switch op {
	case "pull":
		opts := subtree.PullOptions{Names: names, Yes: app.Yes}
		if batch {
			_, err = app.Service.PullAll(ctx, opts)
			return err
		}
		return app.Service.Pull(ctx, opts)
	case "push":
		opts := subtree.PushOptions{Names: names, Rejoin: app.Settings.Push.Rejoin, Yes: app.Yes}
		if batch {
			_, err = app.Service.PushAll(ctx, opts)
			return err
		}
		return app.Service.Push(ctx, opts)
	case "split":
		opts := subtree.SplitOptions{Names: names, Rejoin: app.Settings.Push.Rejoin, Yes: app.Yes}
		if batch {
			_, err = app.Service.SplitAll(ctx, opts)
			return err
		}
		return app.Service.Split(ctx, opts)
	default:
		opts := subtree.RemoveOptions{Names: names, Yes: app.Yes}
		if batch {
			_, err = app.Service.RemoveAll(ctx, opts)
			return err
		}
		return app.Service.Remove(ctx, opts)
	}
}
