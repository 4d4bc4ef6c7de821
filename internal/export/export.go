package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rfarrakhov/chainarb/internal/backtest"
	"github.com/rfarrakhov/chainarb/internal/scanner"
)

// Format represents the export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Options configures the export behavior
type Options struct {
	Format        Format
	StartTime     time.Time
	EndTime       time.Time
	NetworkFilter string // Filter by chain
	KindFilter    scanner.Kind
	OnlySuccess   bool // Only export profitable simulations
	OnlyViable    bool // Only export opportunities that cleared the profit gate
	OutputDir     string
}

// Exporter writes simulated trade outcomes to disk
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new outcome exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{
		logger: logger,
	}
}

// ExportOutcomes exports outcomes based on the provided options
func (e *Exporter) ExportOutcomes(outcomes []backtest.TradeOutcome, options Options) (string, error) {
	filtered := e.filterOutcomes(outcomes, options)

	if len(filtered) == 0 {
		return "", fmt.Errorf("no outcomes match the export criteria")
	}

	// Sort by timestamp
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	filename := e.generateFilename("outcomes", options)
	outputPath := filepath.Join(options.OutputDir, filename)

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = e.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = e.exportToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}

	if err != nil {
		return "", err
	}

	e.logger.Info("Outcomes exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// filterOutcomes applies filters to the outcome list
func (e *Exporter) filterOutcomes(outcomes []backtest.TradeOutcome, options Options) []backtest.TradeOutcome {
	var filtered []backtest.TradeOutcome

	for _, outcome := range outcomes {
		// Time filter
		if !options.StartTime.IsZero() && outcome.Timestamp.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && outcome.Timestamp.After(options.EndTime) {
			continue
		}

		// Network filter
		if options.NetworkFilter != "" && outcome.Opportunity.Network != options.NetworkFilter {
			continue
		}

		// Kind filter
		if options.KindFilter != "" && outcome.Opportunity.Kind != options.KindFilter {
			continue
		}

		// Success filter
		if options.OnlySuccess && !outcome.Success {
			continue
		}

		filtered = append(filtered, outcome)
	}

	return filtered
}

// generateFilename creates a filename based on the export subject and options
func (e *Exporter) generateFilename(subject string, options Options) string {
	timestamp := time.Now().Format("20060102_150405")

	prefix := subject + "_all"
	if options.KindFilter != "" {
		prefix = fmt.Sprintf("%s_%s", subject, options.KindFilter)
	}
	if options.NetworkFilter != "" {
		prefix += "_" + options.NetworkFilter
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

// exportToCSV exports outcomes to CSV format
func (e *Exporter) exportToCSV(outcomes []backtest.TradeOutcome, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(backtest.CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i := range outcomes {
		if err := writer.Write(outcomes[i].ToCSV()); err != nil {
			return fmt.Errorf("failed to write outcome: %w", err)
		}
	}

	return nil
}

// exportToJSON exports outcomes to JSON format with a summary block
func (e *Exporter) exportToJSON(outcomes []backtest.TradeOutcome, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime   time.Time               `json:"export_time"`
		OutcomeCount int                     `json:"outcome_count"`
		Outcomes     []backtest.TradeOutcome `json:"outcomes"`
		Summary      Summary                 `json:"summary"`
	}{
		ExportTime:   time.Now().UTC(),
		OutcomeCount: len(outcomes),
		Outcomes:     outcomes,
		Summary:      e.calculateSummary(outcomes),
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// calculateSummary calculates summary statistics for the export
func (e *Exporter) calculateSummary(outcomes []backtest.TradeOutcome) Summary {
	summary := Summary{
		TotalOutcomes: len(outcomes),
	}

	if len(outcomes) == 0 {
		return summary
	}

	summary.StartDate = outcomes[0].Timestamp
	summary.EndDate = outcomes[len(outcomes)-1].Timestamp

	networkSet := make(map[string]bool)
	pairSet := make(map[string]bool)

	for _, outcome := range outcomes {
		networkSet[outcome.Opportunity.Network] = true
		pairSet[outcome.Opportunity.Pair] = true

		if outcome.Success {
			summary.WinCount++
		} else {
			summary.LossCount++
		}
		summary.TotalPnLUSD += outcome.RealizedProfitUSD
	}

	summary.UniqueNetworks = len(networkSet)
	summary.UniquePairs = len(pairSet)
	summary.WinRate = float64(summary.WinCount) / float64(summary.TotalOutcomes) * 100
	summary.AvgPnLUSD = summary.TotalPnLUSD / float64(summary.TotalOutcomes)

	return summary
}

// Summary contains summary statistics for exported outcomes
type Summary struct {
	TotalOutcomes  int       `json:"total_outcomes"`
	WinCount       int       `json:"win_count"`
	LossCount      int       `json:"loss_count"`
	UniqueNetworks int       `json:"unique_networks"`
	UniquePairs    int       `json:"unique_pairs"`
	WinRate        float64   `json:"win_rate"`
	TotalPnLUSD    float64   `json:"total_pnl_usd"`
	AvgPnLUSD      float64   `json:"avg_pnl_usd"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
}

// ExportOpportunities exports detected opportunities based on the provided options
func (e *Exporter) ExportOpportunities(opportunities []scanner.Opportunity, options Options) (string, error) {
	filtered := e.filterOpportunities(opportunities, options)

	if len(filtered) == 0 {
		return "", fmt.Errorf("no opportunities match the export criteria")
	}

	// Sort by timestamp
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	filename := e.generateFilename("opportunities", options)
	outputPath := filepath.Join(options.OutputDir, filename)

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = e.exportOpportunitiesToCSV(filtered, outputPath)
	case FormatJSON:
		err = e.exportOpportunitiesToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}

	if err != nil {
		return "", err
	}

	e.logger.Info("Opportunities exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// filterOpportunities applies filters to the opportunity list
func (e *Exporter) filterOpportunities(opportunities []scanner.Opportunity, options Options) []scanner.Opportunity {
	var filtered []scanner.Opportunity

	for _, opp := range opportunities {
		// Time filter
		if !options.StartTime.IsZero() && opp.Timestamp.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && opp.Timestamp.After(options.EndTime) {
			continue
		}

		// Network filter
		if options.NetworkFilter != "" && opp.Network != options.NetworkFilter {
			continue
		}

		// Kind filter
		if options.KindFilter != "" && opp.Kind != options.KindFilter {
			continue
		}

		// Viability filter
		if options.OnlyViable && !opp.Viable {
			continue
		}

		filtered = append(filtered, opp)
	}

	return filtered
}

// exportOpportunitiesToCSV exports opportunities to CSV format
func (e *Exporter) exportOpportunitiesToCSV(opportunities []scanner.Opportunity, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(scanner.CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i := range opportunities {
		if err := writer.Write(opportunities[i].ToCSV()); err != nil {
			return fmt.Errorf("failed to write opportunity: %w", err)
		}
	}

	return nil
}

// exportOpportunitiesToJSON exports opportunities to JSON format with a summary block
func (e *Exporter) exportOpportunitiesToJSON(opportunities []scanner.Opportunity, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime       time.Time             `json:"export_time"`
		OpportunityCount int                   `json:"opportunity_count"`
		Opportunities    []scanner.Opportunity `json:"opportunities"`
		Summary          OpportunitySummary    `json:"summary"`
	}{
		ExportTime:       time.Now().UTC(),
		OpportunityCount: len(opportunities),
		Opportunities:    opportunities,
		Summary:          e.calculateOpportunitySummary(opportunities),
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// calculateOpportunitySummary calculates summary statistics for the export
func (e *Exporter) calculateOpportunitySummary(opportunities []scanner.Opportunity) OpportunitySummary {
	summary := OpportunitySummary{
		TotalOpportunities: len(opportunities),
	}

	if len(opportunities) == 0 {
		return summary
	}

	summary.StartDate = opportunities[0].Timestamp
	summary.EndDate = opportunities[len(opportunities)-1].Timestamp
	summary.BestNetProfitPct = opportunities[0].NetProfitPct

	networkSet := make(map[string]bool)
	pairSet := make(map[string]bool)

	var netSum float64
	for _, opp := range opportunities {
		networkSet[opp.Network] = true
		pairSet[opp.Pair] = true

		if opp.Viable {
			summary.ViableCount++
		}
		netSum += opp.NetProfitPct
		if opp.NetProfitPct > summary.BestNetProfitPct {
			summary.BestNetProfitPct = opp.NetProfitPct
		}
	}

	summary.UniqueNetworks = len(networkSet)
	summary.UniquePairs = len(pairSet)
	summary.AvgNetProfitPct = netSum / float64(summary.TotalOpportunities)

	return summary
}

// OpportunitySummary contains summary statistics for exported opportunities
type OpportunitySummary struct {
	TotalOpportunities int       `json:"total_opportunities"`
	ViableCount        int       `json:"viable_count"`
	UniqueNetworks     int       `json:"unique_networks"`
	UniquePairs        int       `json:"unique_pairs"`
	AvgNetProfitPct    float64   `json:"avg_net_profit_pct"`
	BestNetProfitPct   float64   `json:"best_net_profit_pct"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
}

// ExportDailyReport exports a per-day summary report as JSON
func (e *Exporter) ExportDailyReport(outcomes []backtest.TradeOutcome, date time.Time, outputDir string) (string, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	options := Options{
		Format:    FormatJSON,
		StartTime: startOfDay,
		EndTime:   endOfDay,
		OutputDir: outputDir,
	}

	filtered := e.filterOutcomes(outcomes, options)
	if len(filtered) == 0 {
		e.logger.Info("No outcomes for daily report",
			zap.Time("date", startOfDay))
		return "", nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("daily_report_%s.json", startOfDay.Format("20060102"))
	outputPath := filepath.Join(outputDir, filename)

	report := DailyReport{
		Date:            startOfDay,
		OutcomeCount:    len(filtered),
		Outcomes:        filtered,
		Summary:         e.calculateSummary(filtered),
		HourlyBreakdown: e.calculateHourlyBreakdown(filtered),
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	e.logger.Info("Daily report exported",
		zap.String("file", outputPath),
		zap.Time("date", startOfDay),
		zap.Int("outcomes", len(filtered)))

	return outputPath, nil
}

// DailyReport represents one day of simulated trading
type DailyReport struct {
	Date            time.Time               `json:"date"`
	OutcomeCount    int                     `json:"outcome_count"`
	Summary         Summary                 `json:"summary"`
	HourlyBreakdown []HourlyStats           `json:"hourly_breakdown"`
	Outcomes        []backtest.TradeOutcome `json:"outcomes"`
}

// HourlyStats represents simulation statistics for an hour
type HourlyStats struct {
	Hour         int     `json:"hour"`
	OutcomeCount int     `json:"outcome_count"`
	WinCount     int     `json:"win_count"`
	LossCount    int     `json:"loss_count"`
	PnLUSD       float64 `json:"pnl_usd"`
}

// calculateHourlyBreakdown calculates hourly statistics
func (e *Exporter) calculateHourlyBreakdown(outcomes []backtest.TradeOutcome) []HourlyStats {
	hourlyMap := make(map[int]*HourlyStats)

	for _, outcome := range outcomes {
		hour := outcome.Timestamp.Hour()

		stats, exists := hourlyMap[hour]
		if !exists {
			stats = &HourlyStats{Hour: hour}
			hourlyMap[hour] = stats
		}

		stats.OutcomeCount++
		stats.PnLUSD += outcome.RealizedProfitUSD
		if outcome.Success {
			stats.WinCount++
		} else {
			stats.LossCount++
		}
	}

	var breakdown []HourlyStats
	for hour := 0; hour < 24; hour++ {
		if stats, exists := hourlyMap[hour]; exists {
			breakdown = append(breakdown, *stats)
		}
	}

	return breakdown
}
