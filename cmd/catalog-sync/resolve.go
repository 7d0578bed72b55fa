package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slabworks/catalog-sync/sync/model"
)

var (
	resolveItemID      int
	resolveStrategy    string
	resolveTitle       string
	resolveDescription string
	resolvePrice       float64
	resolveQuantity    int
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a sync conflict for an inventory item",
	Long: `Resolve applies one of three strategies to an inventory item whose
sync failed: use_local queues the local state for push, use_shopify
overwrites local state with the remote product, and manual_merge
applies the provided field overrides and queues the result.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		// Only flags the caller actually set become merge overrides
		var md *model.MergeData
		if resolveStrategy == model.ResolutionManualMerge {
			md = &model.MergeData{}
			if cmd.Flags().Changed("title") {
				md.Title = &resolveTitle
			}
			if cmd.Flags().Changed("description") {
				md.Description = &resolveDescription
			}
			if cmd.Flags().Changed("price") {
				md.Price = &resolvePrice
			}
			if cmd.Flags().Changed("quantity") {
				md.Quantity = &resolveQuantity
			}
		}

		rr, err := a.resolver.Resolve(ctx, resolveItemID, resolveStrategy, md)
		if err != nil {
			return err
		}

		fmt.Println(rr.Message)

		return nil
	},
}

func init() {
	resolveCmd.Flags().IntVar(&resolveItemID, "item", 0, "inventory item id")
	resolveCmd.Flags().StringVar(&resolveStrategy, "resolution", "",
		"resolution strategy: use_local, use_shopify or manual_merge")
	resolveCmd.Flags().StringVar(&resolveTitle, "title", "", "merge: title override")
	resolveCmd.Flags().StringVar(&resolveDescription, "description", "", "merge: description override")
	resolveCmd.Flags().Float64Var(&resolvePrice, "price", 0, "merge: price override")
	resolveCmd.Flags().IntVar(&resolveQuantity, "quantity", 0, "merge: quantity override")
	_ = resolveCmd.MarkFlagRequired("item")
	_ = resolveCmd.MarkFlagRequired("resolution")
	rootCmd.AddCommand(resolveCmd)
}
