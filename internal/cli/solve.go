package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/arvergara/Hualpen-sub001/internal/config"
	"github.com/arvergara/Hualpen-sub001/pkg/logger"
	"github.com/arvergara/Hualpen-sub001/pkg/model"
	"github.com/arvergara/Hualpen-sub001/pkg/roster"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/search"
)

var (
	inputPath  string
	outputJSON bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run one optimization from an input file and print the roster",
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input file with horizon, services and parameters (yaml/json)")
	solveCmd.Flags().BoolVar(&outputJSON, "json", false, "print the full result as JSON")
	solveCmd.MarkFlagRequired("input")
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Logging)

	in, err := loadInput(inputPath)
	if err != nil {
		return err
	}
	if in.HourlyRate == 0 {
		in.HourlyRate = cfg.Engine.HourlyRate
	}

	engine := roster.NewEngine(engineSearchConfig(cfg), nil)
	result, err := engine.Run(cmd.Context(), *in)
	if err != nil {
		return err
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	printResult(result)
	if result.Status == roster.StatusFailed {
		return fmt.Errorf("run failed: %s (attempted %s)", result.Reason, result.AttemptedRange)
	}
	return nil
}

func loadInput(path string) (*roster.Input, error) {
	k := koanf.New(".")
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = kyaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		return nil, fmt.Errorf("unsupported input format: %s", path)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load input: %w", err)
	}

	in := &roster.Input{Params: model.DefaultParameters()}
	if err := k.UnmarshalWithConf("", in, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshal input: %w", err)
	}
	return in, nil
}

func printResult(result *roster.Result) {
	fmt.Printf("Run %s: %s (%.1fs)\n", result.RunID, result.Status, result.Elapsed.Seconds())
	fmt.Printf("Lower bound: %d drivers, attempts: %d\n", result.LowerBound, len(result.Attempts))
	if result.Status != roster.StatusSuccess {
		return
	}
	m := result.Report.Metrics
	fmt.Printf("Drivers used: %d | total hours: %.1f | utilization: %.0f%% | multi-shift days: %d\n",
		m.DriversUsed, m.TotalHours, m.AvgUtilization*100, m.MultiShiftDays)
	if m.EstimatedCost > 0 {
		fmt.Printf("Estimated cost: %.2f\n", m.EstimatedCost)
	}
	for _, w := range result.Report.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, d := range result.Report.Drivers {
		fmt.Printf("\nDriver %d (%.1fh over %d days):\n", d.Driver, d.TotalHours, d.DaysWorked)
		for _, a := range d.Shifts {
			fmt.Printf("  %s  %-14s vehicle %d shift %d  %02d:%02d-%02d:%02d (%.1fh)\n",
				a.Date, a.ServiceID, a.Vehicle, a.Number,
				a.StartMin/60, a.StartMin%60, (a.EndMin/60)%24, a.EndMin%60, a.DurationHours)
		}
	}
}

// engineSearchConfig maps the application config onto the search driver.
func engineSearchConfig(cfg *config.Config) search.Config {
	sc := search.DefaultConfig()
	sc.AttemptBudget = cfg.Engine.AttemptBudget
	sc.Workers = cfg.Engine.Workers
	sc.Seed = cfg.Engine.Seed
	sc.CeilingFactor = cfg.Engine.CeilingFactor
	sc.Build.MultiShiftBonus = cfg.Engine.MultiShiftBonus
	return sc
}
