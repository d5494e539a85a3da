package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"builders-pos/internal/mirror"
	"builders-pos/internal/order"
	"builders-pos/internal/payment"
	"builders-pos/internal/user"

	"github.com/spf13/cobra"
)

func cartCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the logged-in customer's cart",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			id, err := user.RequireRole(ctx, user.RoleCustomer)
			if err != nil {
				return err
			}
			items, err := c.app.carts.Get(ctx, id.ID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), items)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("product id: %w", err)
			}
			qty := 1
			if len(args) == 2 {
				if qty, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("quantity: %w", err)
				}
			}

			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			id, err := user.RequireRole(ctx, user.RoleCustomer)
			if err != nil {
				return err
			}
			items, err := c.app.carts.Add(ctx, id.ID, productID, qty)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), items)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Change a cart line's quantity; zero removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("product id: %w", err)
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity: %w", err)
			}
			ctx, customerID, err := c.customer(cmd)
			if err != nil {
				return err
			}
			items, err := c.app.carts.UpdateQuantity(ctx, customerID, productID, qty)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), items)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <product-id>",
		Short: "Drop a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("product id: %w", err)
			}
			ctx, customerID, err := c.customer(cmd)
			if err != nil {
				return err
			}
			items, err := c.app.carts.Remove(ctx, customerID, productID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), items)
		},
	})

	return cmd
}

// customer logs in and requires the customer role.
func (c *cli) customer(cmd *cobra.Command) (context.Context, int64, error) {
	ctx, err := c.session(cmd.Context())
	if err != nil {
		return nil, 0, err
	}
	id, err := user.RequireRole(ctx, user.RoleCustomer)
	if err != nil {
		return nil, 0, err
	}
	return ctx, id.ID, nil
}

func checkoutCmd(c *cli) *cobra.Command {
	var method, phone string

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an online order from the customer's cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			o, err := c.app.orders.Checkout(ctx, order.CheckoutInput{
				Method: payment.Method(method),
				Phone:  phone,
			})
			if err != nil {
				return err
			}
			c.app.audit(ctx, mirror.AuditEntry{
				Action:     "CREATE_ORDER",
				EntityType: "order",
				EntityID:   o.ID,
				NewValue:   string(o.Status),
			})
			return writeJSON(cmd.OutOrStdout(), o)
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "payment method: cash, card, mobile, bank_transfer, cheque")
	cmd.Flags().StringVar(&phone, "phone", "", "paying phone number")
	return cmd
}

func saleCmd(c *cli) *cobra.Command {
	var (
		lines    []string
		method   string
		pin      string
		customer string
	)

	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Complete an in-store sale at the till",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			saleLines, err := parseLines(lines)
			if err != nil {
				return err
			}
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			o, err := c.app.orders.CompleteSale(ctx, order.SaleInput{
				Lines:        saleLines,
				Method:       payment.Method(method),
				PIN:          pin,
				CustomerName: customer,
			})
			if err != nil {
				return err
			}
			c.app.audit(ctx, mirror.AuditEntry{
				Action:     "IN_STORE_SALE",
				EntityType: "order",
				EntityID:   o.ID,
				NewValue:   strconv.FormatInt(o.Total, 10),
			})
			return writeJSON(cmd.OutOrStdout(), o)
		},
	}
	cmd.Flags().StringArrayVar(&lines, "line", nil, "product-id:quantity, repeatable")
	cmd.Flags().StringVar(&method, "method", string(payment.DefaultMethod), "payment method")
	cmd.Flags().StringVar(&pin, "pin", "", "mock PIN for mobile money and bank transfer")
	cmd.Flags().StringVar(&customer, "customer", "", "customer name for the receipt")
	return cmd
}

// parseLines reads "id:qty" pairs; a bare id means one unit.
func parseLines(raw []string) ([]order.SaleLine, error) {
	out := make([]order.SaleLine, 0, len(raw))
	for _, r := range raw {
		idPart, qtyPart, hasQty := strings.Cut(r, ":")
		id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %q: bad product id", r)
		}
		qty := 1
		if hasQty {
			if qty, err = strconv.Atoi(strings.TrimSpace(qtyPart)); err != nil {
				return nil, fmt.Errorf("line %q: bad quantity", r)
			}
		}
		out = append(out, order.SaleLine{ProductID: id, Quantity: qty})
	}
	return out, nil
}

func releaseCmd(c *cli) *cobra.Command {
	var (
		token      string
		verifyOnly bool
	)

	cmd := &cobra.Command{
		Use:   "release [order-id]",
		Short: "Verify a collection token or release a paid order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (token == "") == (len(args) == 0) {
				return fmt.Errorf("give either an order id or --token")
			}
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}

			orders := c.app.orders
			var o *order.Order
			switch {
			case verifyOnly && token != "":
				o, err = orders.VerifyToken(ctx, token)
			case verifyOnly:
				return fmt.Errorf("--verify-only needs --token")
			case token != "":
				o, err = orders.ReleaseByToken(ctx, token)
			default:
				o, err = orders.Release(ctx, args[0])
			}
			if err != nil {
				return err
			}

			if !verifyOnly {
				c.app.audit(ctx, mirror.AuditEntry{
					Action:     "RELEASE_ORDER",
					EntityType: "order",
					EntityID:   o.ID,
					OldValue:   string(order.StatusPaid),
					NewValue:   string(o.Status),
				})
			}
			return writeJSON(cmd.OutOrStdout(), o)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "collection token from the customer")
	cmd.Flags().BoolVar(&verifyOnly, "verify-only", false, "check the token without releasing")
	return cmd
}
