package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner followed by the settings this
// run resolved to
func PrintBanner(w io.Writer, config *Config, configFiles []string) {
	banner.Print("FleetJobs", GetVersion())
	for _, line := range bannerDetails(config, configFiles) {
		fmt.Fprintln(w, line)
	}
}

func bannerDetails(config *Config, configFiles []string) []string {
	source := "defaults"
	if len(configFiles) > 0 {
		source = strings.Join(configFiles, ", ")
	}

	return []string{
		fmt.Sprintf("Environment:   %s", config.Environment),
		fmt.Sprintf("Config:        %s", source),
		fmt.Sprintf("Log level:     %s (%s)", config.Logging.Level, strings.Join(config.Logging.Output, ", ")),
		fmt.Sprintf("Wizard limits: name %d, description %d", config.Wizard.MaxNameLength, config.Wizard.MaxDescriptionLength),
	}
}
