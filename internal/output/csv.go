package output

import (
	"bytes"
	"encoding/csv"

	"github.com/shopspring/decimal"
)

// CSVFormatter writes the cost and savings lines as metric,value rows
type CSVFormatter struct{}

func (CSVFormatter) Name() string { return "csv" }

func (CSVFormatter) Format(r *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	rows := [][]string{{"metric", "value"}}
	add := func(name string, v decimal.Decimal) {
		rows = append(rows, []string{name, v.StringFixed(2)})
	}

	plan := r.Plan
	if s := plan.SystemSpecs; s != nil {
		add("system_size_kwp", s.SystemSizeKWp)
		add("annual_generation_kwh", s.AnnualGeneration)
	}
	if c := plan.Costs; c != nil {
		add("total_system_cost", c.TotalSystemCost)
		add("total_grants", c.TotalGrants)
		add("final_price", c.FinalPrice)
		add("monthly_financing", c.MonthlyFinancing)
	}
	if s := plan.Savings; s != nil {
		add("total_annual_savings", s.TotalAnnualSavings)
		add("payback_years", s.PaybackYears)
		add("lifetime_savings", s.LifetimeSavings)
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
