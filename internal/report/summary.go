package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/internal/kpi"
)

var printer = message.NewPrinter(language.English)

// money 1234567.8 → "USD 1,234,568"
func (w *Writer) money(v float64) string {
	return printer.Sprintf("%s %.0f", w.meta.Currency, v)
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func optPct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return pct(*v)
}

func (w *Writer) heading(b *strings.Builder, title string) {
	fmt.Fprintf(b, "%s\n%s\n", w.meta.CompanyName, w.meta.Title)
	fmt.Fprintf(b, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
}

// ForecastSummaryText forecast_summary.txt
func (w *Writer) ForecastSummaryText(s contracts.ForecastSummary, failures []contracts.UnitFailure) string {
	var b strings.Builder
	w.heading(&b, "Revenue Forecast Summary")

	if s.ForecastRecords == 0 {
		b.WriteString("No forecasts produced\n")
	} else {
		fmt.Fprintf(&b, "Forecast Period: %s to %s\n", w.date(s.PeriodStart), w.date(s.PeriodEnd))
		fmt.Fprintf(&b, "Total Forecast Revenue: %s\n", w.money(s.TotalForecastRevenue))
		fmt.Fprintf(&b, "Avg Monthly Forecast: %s\n", w.money(s.AvgMonthlyForecast))
		fmt.Fprintf(&b, "Business Units Forecasted: %d\n", s.UnitsForecasted)
		fmt.Fprintf(&b, "Forecast Records: %d\n", s.ForecastRecords)
	}

	if len(failures) > 0 {
		fmt.Fprintf(&b, "\nExcluded Units: %d\n", len(failures))
		for _, f := range failures {
			fmt.Fprintf(&b, "  - %s (%s): %s\n", f.BusinessUnit, f.Model, f.Reason)
		}
	}
	return b.String()
}

// KPISummaryText kpi_summary.txt listing the first topAlerts alerts
func (w *Writer) KPISummaryText(d *kpi.Dashboard, topAlerts int) string {
	var b strings.Builder
	w.heading(&b, "KPI Dashboard Summary")

	s := d.Summary
	b.WriteString("Summary Metrics:\n")
	fmt.Fprintf(&b, "  Month: %s\n", w.date(s.Month))
	fmt.Fprintf(&b, "  Total Revenue: %s\n", w.money(s.TotalRevenue))
	fmt.Fprintf(&b, "  Revenue Growth YoY: %s\n", optPct(s.RevenueGrowthYoY))
	fmt.Fprintf(&b, "  Revenue Growth MoM: %s\n", optPct(s.RevenueGrowthMoM))
	fmt.Fprintf(&b, "  Total Customers: %s\n", printer.Sprintf("%d", s.TotalCustomers))
	fmt.Fprintf(&b, "  Revenue Per Customer: %s\n", w.money(s.RevenuePerCustomer))
	fmt.Fprintf(&b, "  Profit Margin: %s\n", pct(s.ProfitMargin))
	fmt.Fprintf(&b, "  Marketing ROI: %.2f\n", s.MarketingROI)

	fmt.Fprintf(&b, "\nPerformance Alerts: %d issues identified\n", len(d.Alerts))
	for i, a := range d.Alerts {
		if i >= topAlerts {
			break
		}
		fmt.Fprintf(&b, "  - %s: %s\n", a.Type, a.Message)
	}
	return b.String()
}

// DataSummaryText data_summary.txt
func (w *Writer) DataSummaryText(s kpi.DataSummary) string {
	var b strings.Builder
	w.heading(&b, "Data Summary")

	fmt.Fprintf(&b, "Revenue Records: %d\n", s.RevenueRecords)
	fmt.Fprintf(&b, "KPI Records: %d\n", s.KPIRecords)
	fmt.Fprintf(&b, "Business Units: %d\n", s.BusinessUnits)
	if s.RevenueRecords > 0 {
		fmt.Fprintf(&b, "Date Range: %s to %s\n", w.date(s.StartDate), w.date(s.EndDate))
	}
	fmt.Fprintf(&b, "Total Revenue: %s\n", w.money(s.TotalRevenue))
	fmt.Fprintf(&b, "Avg Monthly Revenue: %s\n", w.money(s.AvgMonthlyRevenue))
	fmt.Fprintf(&b, "Revenue Growth Rate: %s\n", optPct(s.AvgYoYGrowth))
	return b.String()
}
