package main

import (
	"fmt"
	"os"

	"privacy-checkout/internal/config"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := &config.Storefront{}
	if err := env.Parse(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:     "storefront",
		Short:   "Privacy storefront checkout driver",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Checkout API base URL")
	rootCmd.PersistentFlags().StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "Catalog YAML file (built-in when empty)")
	rootCmd.PersistentFlags().StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the attribution store (in-memory when empty)")

	rootCmd.AddCommand(plansCmd(cfg))
	rootCmd.AddCommand(landCmd(cfg))
	rootCmd.AddCommand(checkoutCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
