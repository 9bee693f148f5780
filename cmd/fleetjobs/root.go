package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/fleetjobs/internal/common"
	"github.com/ternarybob/fleetjobs/internal/jobs"
	"github.com/ternarybob/fleetjobs/internal/services/normalizer"
	"github.com/ternarybob/fleetjobs/internal/services/wizard"
)

// defaultConfigFile is picked up from the working directory when no --config is given
const defaultConfigFile = "fleetjobs.toml"

// cliState carries the resolved configuration and services shared by all commands
type cliState struct {
	configFiles []string
	logLevel    string
	logDegraded bool
	showBanner  bool

	config     *common.Config
	logger     arbor.ILogger
	validator  *wizard.Validator
	drafts     *jobs.Service
	normalizer *normalizer.Service
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	root := &cobra.Command{
		Use:   "fleetjobs",
		Short: "Validate, build and normalize fleet deployment jobs",
		Long: `fleetjobs - job configuration and normalization for fleet deployments.

Validates job and policy drafts authored as TOML, YAML or JSON files, builds
the submission payloads the backend expects, inspects policy execution flows
and reconciles backend job records into one canonical shape.

Examples:
  fleetjobs validate job.toml               # Check a job draft
  fleetjobs validate --payload job.yaml     # Print the submission payload
  fleetjobs validate --policy policy.toml   # Check a policy draft
  fleetjobs flow policy.toml                # Show the execution flow
  fleetjobs normalize jobs.json             # Normalize backend job records
  fleetjobs describe job.toml               # Describe the schedule and next run
  fleetjobs convert job.toml --to yaml      # Re-encode a job draft`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.init(cmd.OutOrStdout())
		},
	}

	root.PersistentFlags().StringArrayVarP(&state.configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	root.PersistentFlags().StringVar(&state.logLevel, "log-level", "", "Log level (overrides config)")
	root.PersistentFlags().BoolVar(&state.logDegraded, "log-degraded", false, "Log every defaulted field while normalizing")
	root.PersistentFlags().BoolVar(&state.showBanner, "banner", false, "Print the startup banner")

	root.AddCommand(newValidateCmd(state))
	root.AddCommand(newFlowCmd(state))
	root.AddCommand(newNormalizeCmd(state))
	root.AddCommand(newDescribeCmd(state))
	root.AddCommand(newConvertCmd(state))
	root.AddCommand(newVersionCmd())

	return root
}

// init follows the startup order: config files, env, flags, logger, banner, services
func (s *cliState) init(out io.Writer) error {
	if len(s.configFiles) == 0 {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			s.configFiles = append(s.configFiles, defaultConfigFile)
		}
	}

	config, err := common.LoadFromFiles(s.configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	common.ApplyFlagOverrides(config, s.logLevel, s.logDegraded)
	s.config = config

	s.logger = common.InitLogger(config)

	if s.showBanner {
		common.PrintBanner(out, config, s.configFiles)
	}

	s.logger.Debug().
		Strs("config_files", s.configFiles).
		Str("environment", config.Environment).
		Str("log_level", config.Logging.Level).
		Bool("log_degraded", config.Normalizer.LogDegraded).
		Int("max_name_length", config.Wizard.MaxNameLength).
		Msg("Configuration loaded")

	s.validator = wizard.NewValidator(&config.Wizard, s.logger)
	s.drafts = jobs.NewService(s.validator, s.logger)
	s.normalizer = normalizer.NewService(&config.Normalizer, s.logger)
	return nil
}

// readInput reads a file, or stdin when path is "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
