package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ptstats/ptine/internal/cache"
	"github.com/ptstats/ptine/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ptine configuration",
	Long:  `Read and write ptine configuration stored in config.json.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		tmpl := config.Template()
		if err := config.WriteFile(path, tmpl); err != nil {
			return err
		}
		fmt.Printf("✓ Created %s\n", path)
		fmt.Println("  Edit it to change the language, cache location or TTLs.")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"get"},
	Short:   "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(globalFlags.Lang)
		if err != nil {
			return err
		}

		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}

		format := cfg.Format
		if globalFlags.Format != "" {
			format = globalFlags.Format
		}

		metaTTL := cfg.MetadataTTL
		if metaTTL <= 0 {
			metaTTL = cache.DefaultMetadataTTL
		}
		dataTTL := cfg.DataTTL
		if dataTTL <= 0 {
			dataTTL = cache.DefaultDataTTL
		}

		if format == "json" {
			type configOut struct {
				Language    string  `json:"language"`
				Format      string  `json:"default_format"`
				Timeout     string  `json:"timeout"`
				Concurrency int     `json:"concurrency"`
				Rate        float64 `json:"rate"`
				BaseURL     string  `json:"base_url"`
				CacheDir    string  `json:"cache_dir"`
				MetadataTTL string  `json:"metadata_ttl"`
				DataTTL     string  `json:"data_ttl"`
				ConfigFile  string  `json:"config_file"`
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(configOut{
				Language:    cfg.Language,
				Format:      cfg.Format,
				Timeout:     cfg.Timeout.String(),
				Concurrency: cfg.Concurrency,
				Rate:        cfg.Rate,
				BaseURL:     cfg.BaseURL,
				CacheDir:    cfg.CacheDir,
				MetadataTTL: metaTTL.String(),
				DataTTL:     dataTTL.String(),
				ConfigFile:  src,
			})
		}

		rows := [][]string{
			{"language", cfg.Language},
			{"default_format", cfg.Format},
			{"timeout", cfg.Timeout.String()},
			{"concurrency", fmt.Sprintf("%d", cfg.Concurrency)},
			{"rate", fmt.Sprintf("%.1f req/s", cfg.Rate)},
			{"base_url", cfg.BaseURL},
			{"cache_dir", cfg.CacheDir},
			{"metadata_ttl", metaTTL.String()},
			{"data_ttl", dataTTL.String()},
			{"config_file", src},
		}
		printKVTableTo(cmd.OutOrStdout(), rows)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		val := args[1]

		// Load existing file or start from template
		var f config.File
		existing, path, err := loadConfigFile()
		if err != nil {
			path = config.DefaultConfigFile
			f = config.Template()
		} else {
			f = *existing
		}

		switch key {
		case "language", "lang":
			f.Language = strings.ToUpper(val)
		case "default_format", "format":
			f.DefaultFormat = val
		case "timeout":
			f.Timeout = val
		case "concurrency":
			var n int
			if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
				return fmt.Errorf("concurrency must be an integer")
			}
			f.Concurrency = n
		case "rate":
			var r float64
			if _, err := fmt.Sscanf(val, "%f", &r); err != nil {
				return fmt.Errorf("rate must be a number")
			}
			f.Rate = r
		case "base_url":
			f.BaseURL = val
		case "cache_dir":
			f.CacheDir = val
		case "metadata_ttl":
			f.MetadataTTL = val
		case "data_ttl":
			f.DataTTL = val
		default:
			return fmt.Errorf("unknown config key: %q\n\nValid keys: language, default_format, timeout, concurrency, rate, base_url, cache_dir, metadata_ttl, data_ttl", key)
		}

		if err := config.WriteFile(path, f); err != nil {
			return err
		}
		fmt.Printf("✓ Set %s in %s\n", key, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// loadConfigFile reads config.json from cwd; used by configSetCmd.
func loadConfigFile() (*config.File, string, error) {
	path := config.DefaultConfigFile
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	var f config.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", err
	}
	return &f, path, nil
}
