package cli

import (
	"github.com/spf13/cobra"
)

var dbIndexCmd = &cobra.Command{
	Use:   "db-index",
	Short: "Manage the secondary weight indexes",
	Long: `The secondary indexes on weight(term_id) and weight(doc_id) speed up
retrieval. They never change results.`,
}

var dbIndexCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the secondary indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app) error {
			if err := printHasIndex(cmd, a); err != nil {
				return err
			}
			if err := a.db.CreateSecondaryIndex(); err != nil {
				return err
			}
			cmd.Println("Done, index created")
			return nil
		})
	},
}

var dbIndexDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the secondary indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app) error {
			if err := printHasIndex(cmd, a); err != nil {
				return err
			}
			if err := a.db.DropSecondaryIndex(); err != nil {
				return err
			}
			cmd.Println("Done, index dropped")
			return nil
		})
	},
}

var dbIndexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the secondary indexes exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app) error {
			return printHasIndex(cmd, a)
		})
	},
}

func init() {
	dbIndexCmd.AddCommand(dbIndexCreateCmd, dbIndexDropCmd, dbIndexStatusCmd)
	rootCmd.AddCommand(dbIndexCmd)
}

func printHasIndex(cmd *cobra.Command, a *app) error {
	hasIndex, err := a.db.HasSecondaryIndex()
	if err != nil {
		return err
	}
	cmd.Printf("Has index: %t\n", hasIndex)
	return nil
}
