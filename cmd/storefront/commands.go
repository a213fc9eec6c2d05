package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"privacy-checkout/internal/catalog"
	"privacy-checkout/internal/checkout"
	"privacy-checkout/internal/config"
	"privacy-checkout/internal/logger"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func plansCmd(cfg *config.Storefront) *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List plans and order bumps",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}

			fmt.Println("Plans:")
			for _, p := range c.Plans {
				fmt.Printf("  %-12s R$ %s\n", p.Name, p.Price.StringFixed(2))
			}
			fmt.Println("\nOrder bumps:")
			for _, b := range c.OrderBumps {
				fmt.Printf("  %-14s R$ %s  %s\n", b.ID, b.Price.StringFixed(2), b.Name)
			}
			return nil
		},
	}
}

func landCmd(cfg *config.Storefront) *cobra.Command {
	var visitor string

	cmd := &cobra.Command{
		Use:   "land [url]",
		Short: "Record the UTM parameters of a landing URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore := openStore(cfg, visitor)
			defer closeStore()

			utm, err := checkout.CaptureAttribution(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			if utm.IsEmpty() {
				fmt.Println("No UTM parameters in URL")
				return nil
			}
			fmt.Printf("Stored: %+v\n", utm)
			return nil
		},
	}

	cmd.Flags().StringVar(&visitor, "visitor", "default", "Visitor id scoping the attribution store")
	return cmd
}

func checkoutCmd(cfg *config.Storefront) *cobra.Command {
	var (
		plan       string
		bumps      []string
		email      string
		landingURL string
		visitor    string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Create a PIX charge and wait for payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}

			store, closeStore := openStore(cfg, visitor)
			defer closeStore()

			if landingURL != "" {
				if _, err := checkout.CaptureAttribution(ctx, store, landingURL); err != nil {
					return err
				}
			}

			paid := make(chan string, 1)
			navigator := checkout.NavigatorFunc(func(url string) {
				paid <- url
			})

			session := checkout.NewSession(checkout.Config{
				API:          checkout.NewAPIClient(cfg.APIURL, nil),
				Catalog:      c,
				Store:        store,
				Navigator:    navigator,
				Logger:       logger.New(cfg.Log, "storefront"),
				PollInterval: cfg.PollInterval,
				ThankYouURL:  cfg.ThankYouURL,
			})
			defer session.Close()

			if err := session.SelectPlan(plan); err != nil {
				return err
			}
			for _, id := range bumps {
				if err := session.ToggleBump(id); err != nil {
					return err
				}
			}
			if err := session.SetEmail(email); err != nil {
				return err
			}

			fmt.Printf("Total: R$ %s\n", session.Total().StringFixed(2))
			if err := session.Submit(ctx); err != nil {
				var vErr *checkout.ValidationError
				if errors.As(err, &vErr) {
					return vErr
				}
				return fmt.Errorf("process payment: %w", err)
			}

			fmt.Printf("Transaction: %s\n", session.TransactionID())
			fmt.Printf("PIX copia e cola:\n%s\n", session.PixPayload())
			fmt.Printf("QR code: %s\n", session.QRCodeURL())
			fmt.Println("Waiting for payment...")

			waitCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()

			for {
				select {
				case url := <-paid:
					fmt.Printf("Payment confirmed, redirecting to %s\n", url)
					return nil
				case <-ticker.C:
					if session.State() == checkout.Failed {
						return session.Err()
					}
				case <-waitCtx.Done():
					return fmt.Errorf("payment not confirmed: %w", waitCtx.Err())
				}
			}
		},
	}

	cmd.Flags().StringVarP(&plan, "plan", "p", "1 mês", "Plan name")
	cmd.Flags().StringSliceVarP(&bumps, "bump", "b", nil, "Order bump ids to add")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Buyer email")
	cmd.Flags().StringVar(&landingURL, "landing-url", "", "Landing URL to capture UTM parameters from")
	cmd.Flags().StringVar(&visitor, "visitor", "default", "Visitor id scoping the attribution store")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "How long to wait for payment")

	return cmd
}

func openStore(cfg *config.Storefront, visitor string) (checkout.AttributionStore, func()) {
	if cfg.RedisAddr == "" {
		return checkout.NewMemoryStore(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return checkout.NewRedisStore(rdb, visitor, cfg.AttributionTTL), func() { _ = rdb.Close() }
}
