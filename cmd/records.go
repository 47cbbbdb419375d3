package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lienwise/bidengine/internal/model"
	"github.com/lienwise/bidengine/internal/store"
)

var (
	recordsParcel   string
	recordsRec      string
	recordsApproval bool
	recordsLimit    int
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect stored decision records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List decision records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		filter := store.DecisionFilter{
			ParcelID:       recordsParcel,
			Recommendation: model.Recommendation(recordsRec),
			Limit:          recordsLimit,
		}
		if cmd.Flags().Changed("needs-approval") {
			filter.NeedsApproval = &recordsApproval
		}

		records, err := st.ListDecisions(ctx, filter)
		if err != nil {
			return err
		}
		return printJSON(records)
	},
}

var recordsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one decision record by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		record, err := st.GetDecision(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(record)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}

func init() {
	recordsListCmd.Flags().StringVar(&recordsParcel, "parcel", "", "filter by parcel id")
	recordsListCmd.Flags().StringVar(&recordsRec, "recommendation", "", "filter by recommendation (BID/REVIEW/SKIP)")
	recordsListCmd.Flags().BoolVar(&recordsApproval, "needs-approval", false, "filter by manual-approval marker")
	recordsListCmd.Flags().IntVar(&recordsLimit, "limit", 50, "max records to return")
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsGetCmd)
	rootCmd.AddCommand(recordsCmd)
}
