package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"casefile/internal/config"
)

func savesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saves",
		Short: "Manage save slots",
	}
	cmd.AddCommand(savesListCmd())
	cmd.AddCommand(savesDeleteCmd())
	return cmd
}

func savesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List save slots",
		Args:  cobra.NoArgs,
		RunE:  runSavesList,
	}
}

func savesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slot>",
		Short: "Delete a save slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSavesDelete(args[0])
		},
	}
}

func runSavesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	saves, err := db.ListSaves(ctx)
	if err != nil {
		return err
	}
	if len(saves) == 0 {
		fmt.Fprintln(os.Stdout, "No saves found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tSTORY\tUSER\tSTAGE\tEVIDENCE\tUPDATED")
	for _, save := range saves {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			save.Slot, save.Story, save.Username, save.Stage, save.Evidence,
			save.UpdatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func runSavesDelete(slot string) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := db.DeleteSave(ctx, slot); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Deleted %s.\n", slot)
	return nil
}
