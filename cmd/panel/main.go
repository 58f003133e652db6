package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/crawler-panel/internal/adapter/mediacrawler"
	"github.com/user/crawler-panel/pkg/config"
)

var version = "dev"

var (
	configPath string
	apiURL     string
	proxyURL   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "panel",
		Short:   "Web control panel for the MediaCrawler API",
		Version: version,
		Long: `panel serves a browser control panel for a MediaCrawler API: pick a
platform and a mode (search, detail or creator), fill in the parameters and
run the job synchronously or in the background. The same calls are
available from the command line.`,
		Example: `  # Serve the panel on :3000 against a local API
  panel serve

  # Check the API and list its platforms
  panel status --api-url http://10.0.0.5:8000

  # Start a background keyword search on Xiaohongshu
  panel search xhs "编程副业,Python学习" --async`,
		RunE:         runServe,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("PANEL_CONFIG"), "Config file (yaml, json or env), defaults to PANEL_CONFIG env var")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Crawler API base URL, overrides API_URL")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "Proxy for crawler API calls (socks5:// or http://), overrides PROXY_URL")

	rootCmd.AddCommand(
		newServeCmd(),
		newStatusCmd(),
		newPlatformsCmd(),
		newJobCmd(jobSearch),
		newJobCmd(jobDetail),
		newJobCmd(jobCreator),
		newQuickSearchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies the command line overrides on top of the loaded config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if proxyURL != "" {
		cfg.ProxyURL = proxyURL
	}
	return cfg, nil
}

func newAPIClient(cfg *config.Config) (*mediacrawler.Client, error) {
	transport, err := mediacrawler.NewTransport(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}
	return mediacrawler.New(cfg.APIURL, mediacrawler.WithHTTPClient(&http.Client{Transport: transport}))
}
