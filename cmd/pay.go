package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/thorbis/fieldsync/internal/models"
	"github.com/thorbis/fieldsync/internal/output"
)

var payCmd = &cobra.Command{
	Use:     "pay",
	Short:   "Process a payment (queued locally when offline)",
	GroupID: "core",
	Example: `  fieldsync pay --amount 42.50 --method card
  fieldsync pay                  # interactive form`,
	RunE: func(cmd *cobra.Command, args []string) error {
		amountStr, _ := cmd.Flags().GetString("amount")
		currency, _ := cmd.Flags().GetString("currency")
		methodStr, _ := cmd.Flags().GetString("method")
		customerID, _ := cmd.Flags().GetString("customer")
		asJSON, _ := cmd.Flags().GetBool("json")

		// No --amount means interactive entry.
		if amountStr == "" {
			if err := runPayForm(&amountStr, &methodStr, &customerID); err != nil {
				return err
			}
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(amountStr))
		if err != nil {
			output.Error("invalid amount %q", amountStr)
			return err
		}
		payment := &models.Payment{
			Amount:     amount,
			Currency:   strings.ToUpper(currency),
			Method:     models.PaymentMethod(methodStr),
			CustomerID: customerID,
		}
		if err := payment.Validate(); err != nil {
			output.Error("%v", err)
			return err
		}

		ctx := context.Background()
		m, cleanup, err := openManager(ctx)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		result, err := m.ProcessPayment(ctx, payment)
		if err != nil {
			output.Error("payment failed: %v", err)
			return err
		}

		if asJSON {
			return output.JSON(result)
		}
		if result.Offline {
			output.Warning("server unreachable, payment queued for sync (id %s)", result.ID)
		} else {
			output.Success("payment processed (id %s)", result.ID)
		}
		return nil
	},
}

// runPayForm collects payment fields interactively.
func runPayForm(amount, method, customer *string) error {
	methodOptions := []huh.Option[string]{
		huh.NewOption("Card", string(models.MethodCard)),
		huh.NewOption("Cash", string(models.MethodCash)),
		huh.NewOption("Check", string(models.MethodCheck)),
		huh.NewOption("ACH", string(models.MethodACH)),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Amount").
				Value(amount).
				Placeholder("42.50").
				Validate(func(s string) error {
					_, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("enter a decimal amount")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Payment method").
				Options(methodOptions...).
				Value(method),
			huh.NewInput().
				Title("Customer ID (optional)").
				Value(customer),
		),
	)
	return form.Run()
}

func init() {
	payCmd.Flags().String("amount", "", "payment amount, e.g. 42.50")
	payCmd.Flags().String("currency", "USD", "ISO currency code")
	payCmd.Flags().String("method", string(models.MethodCard), "payment method (card, cash, check, ach)")
	payCmd.Flags().String("customer", "", "customer ID")
	payCmd.Flags().Bool("json", false, "JSON output")
	rootCmd.AddCommand(payCmd)
}
