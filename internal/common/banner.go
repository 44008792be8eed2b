package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner for the serve command.
func PrintBanner(config *Config, logger arbor.ILogger) {
	version := GetVersion()
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(72)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("FASTSIDE")
	b.PrintCenteredText("Privacy mirror redirector")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Listen", serviceURL, 15)
	b.PrintKeyValue("Catalog", config.Catalog.Source, 15)
	b.PrintKeyValue("Ping interval", config.Crawler.PingInterval, 15)
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("version", version).
		Str("service_url", serviceURL).
		Str("catalog_source", config.Catalog.Source).
		Str("ping_interval", config.Crawler.PingInterval).
		Msg("fastside starting")
}

// PrintShutdownBanner displays the shutdown banner.
func PrintShutdownBanner(logger arbor.ILogger) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("SHUTTING DOWN")
	b.PrintCenteredText("FASTSIDE")
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Msg("fastside shutting down")
}

// PrintSuccess prints a success message in green and logs it.
func PrintSuccess(message string) {
	logger := GetLogger()
	fmt.Printf("%s✓ %s%s\n", banner.ColorGreen, message, banner.ColorReset)
	logger.Info().Str("type", "success").Msg(message)
}

// PrintError prints an error message in red and logs it.
func PrintError(message string) {
	logger := GetLogger()
	fmt.Printf("%s✗ %s%s\n", banner.ColorRed, message, banner.ColorReset)
	logger.Error().Str("type", "error").Msg(message)
}

// PrintWarning prints a warning message in yellow and logs it.
func PrintWarning(message string) {
	logger := GetLogger()
	fmt.Printf("%s⚠ %s%s\n", banner.ColorYellow, message, banner.ColorReset)
	logger.Warn().Str("type", "warning").Msg(message)
}
