package main

import (
	"encoding/json"
	"strconv"

	"github.com/dealdesk/core/internal/modules/inventory/hierarchy"
	"github.com/dealdesk/core/internal/modules/system/licensecode"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type reportRow struct {
	step, counter string
	value         int64
}

func reconcileRows(r hierarchy.ReconcileReport) []reportRow {
	return []reportRow{
		{"reconcile", "homepages created", r.HomepagesCreated},
		{"reconcile", "positions attached", r.PositionsAttached},
		{"reconcile", "positions skipped", r.PositionsSkipped},
		{"reconcile", "default positions created", r.DefaultPositionsCreated},
		{"reconcile", "deals backfilled", r.DealsBackfilled},
	}
}

func licenseRows(r licensecode.Report) []reportRow {
	return []reportRow{
		{"licenses", "brands scanned", r.BrandsScanned},
		{"licenses", "brands updated", r.BrandsUpdated},
		{"licenses", "submissions scanned", r.SubmissionsScanned},
		{"licenses", "submissions updated", r.SubmissionsUpdated},
		{"licenses", "submissions skipped", r.SubmissionsSkipped},
	}
}

func renderReport(report any) string {
	var rows []reportRow
	switch r := report.(type) {
	case hierarchy.ReconcileReport:
		rows = reconcileRows(r)
	case licensecode.Report:
		rows = licenseRows(r)
	case allReport:
		rows = append(reconcileRows(r.Reconcile), licenseRows(r.Licenses)...)
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Step", "Counter", "Rows"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row.step, row.counter, strconv.FormatInt(row.value, 10)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
