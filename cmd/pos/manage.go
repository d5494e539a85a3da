package main

import (
	"fmt"
	"strconv"
	"strings"

	"builders-pos/internal/mirror"
	"builders-pos/internal/product"
	"builders-pos/internal/quotation"
	"builders-pos/internal/supplier"
	"builders-pos/internal/user"

	"github.com/spf13/cobra"
)

var (
	managers  = []user.Role{user.RoleManager, user.RoleAdmin}
	stockDesk = []user.Role{user.RoleManager, user.RoleAdmin, user.RoleStaff}
)

func productCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the catalog and record stock movements",
	}

	var add product.NewProductInput
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := user.RequireRole(ctx, managers...); err != nil {
				return err
			}
			p, err := c.app.products.Add(ctx, add)
			if err != nil {
				return err
			}
			c.app.audit(ctx, mirror.AuditEntry{
				Action:     "ADD_PRODUCT",
				EntityType: "product",
				EntityID:   strconv.FormatInt(p.ID, 10),
				NewValue:   p.Name,
			})
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	addCmd.Flags().StringVar(&add.Name, "name", "", "product name")
	addCmd.Flags().StringVar(&add.Category, "category", "", "category")
	addCmd.Flags().Int64Var(&add.Price, "price", 0, "unit price")
	addCmd.Flags().IntVar(&add.Stock, "stock", 0, "opening stock")
	addCmd.Flags().IntVar(&add.LowStockThreshold, "threshold", 0, "low stock threshold")

	var edit product.EditInput
	editCmd := &cobra.Command{
		Use:   "edit <product-id>",
		Short: "Change a product's name, price, stock or threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("product id: %w", err)
			}
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := user.RequireRole(ctx, managers...); err != nil {
				return err
			}

			current, err := findProduct(c, cmd, id)
			if err != nil {
				return err
			}
			// unset flags keep the current values
			in := product.EditInput{
				ID:                id,
				Name:              current.Name,
				Price:             current.Price,
				Stock:             current.Stock,
				LowStockThreshold: current.LowStockThreshold,
			}
			fs := cmd.Flags()
			if fs.Changed("name") {
				in.Name = edit.Name
			}
			if fs.Changed("price") {
				in.Price = edit.Price
			}
			if fs.Changed("stock") {
				in.Stock = edit.Stock
			}
			if fs.Changed("threshold") {
				in.LowStockThreshold = edit.LowStockThreshold
			}

			p, err := c.app.products.Edit(ctx, in)
			if err != nil {
				return err
			}
			c.app.audit(ctx, mirror.AuditEntry{
				Action:     "EDIT_PRODUCT",
				EntityType: "product",
				EntityID:   args[0],
				OldValue:   fmt.Sprintf("price=%d stock=%d", current.Price, current.Stock),
				NewValue:   fmt.Sprintf("price=%d stock=%d", p.Price, p.Stock),
			})
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	editCmd.Flags().StringVar(&edit.Name, "name", "", "new name")
	editCmd.Flags().Int64Var(&edit.Price, "price", 0, "new unit price")
	editCmd.Flags().IntVar(&edit.Stock, "stock", 0, "new stock level")
	editCmd.Flags().IntVar(&edit.LowStockThreshold, "threshold", 0, "new low stock threshold")

	var (
		txType string
		reason string
	)
	txCmd := &cobra.Command{
		Use:   "tx <product-id> <quantity>",
		Short: "Record a purchase, sale, adjustment, damage or return",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("product id: %w", err)
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity: %w", err)
			}
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			who, err := user.RequireRole(ctx, stockDesk...)
			if err != nil {
				return err
			}

			p, err := c.app.products.RecordTransaction(ctx, product.Transaction{
				ProductID: id,
				Type:      product.TransactionType(txType),
				Quantity:  qty,
				Reason:    reason,
				StaffID:   who.ID,
				Date:      c.app.now(),
			})
			if err != nil {
				return err
			}
			c.app.audit(ctx, mirror.AuditEntry{
				Action:     "INVENTORY_" + strings.ToUpper(txType),
				EntityType: "product",
				EntityID:   args[0],
				NewValue:   strconv.Itoa(p.Stock),
			})
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	txCmd.Flags().StringVar(&txType, "type", string(product.TxPurchase), "purchase, sale, adjustment, damage or return")
	txCmd.Flags().StringVar(&reason, "reason", "", "free-text reason")

	cmd.AddCommand(addCmd, editCmd, txCmd)
	return cmd
}

func findProduct(c *cli, cmd *cobra.Command, id int64) (product.Product, error) {
	all, err := c.app.products.List(cmd.Context())
	if err != nil {
		return product.Product{}, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, nil
		}
	}
	return product.Product{}, product.ErrProductNotFound
}

func supplierCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "supplier",
		Short: "Add or remove suppliers",
	}

	var in supplier.NewSupplierInput
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a supplier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			s, err := c.app.suppliers.Add(ctx, in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), s)
		},
	}
	addCmd.Flags().StringVar(&in.Name, "name", "", "company name")
	addCmd.Flags().StringVar(&in.Contact, "contact", "", "contact person")
	addCmd.Flags().StringVar(&in.Phone, "phone", "", "phone, 10 digits starting with 0")
	addCmd.Flags().StringVar(&in.Email, "email", "", "email")
	addCmd.Flags().StringVar(&in.Products, "products", "", "products supplied")

	deleteCmd := &cobra.Command{
		Use:   "delete <supplier-id>",
		Short: "Remove a supplier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("supplier id: %w", err)
			}
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.app.suppliers.Delete(ctx, id); err != nil {
				return err
			}
			c.app.audit(ctx, mirror.AuditEntry{
				Action:     "DELETE_SUPPLIER",
				EntityType: "supplier",
				EntityID:   args[0],
			})
			left, err := c.app.suppliers.List(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), left)
		},
	}

	cmd.AddCommand(addCmd, deleteCmd)
	return cmd
}

func feedbackCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Rate the store or list your past feedback",
	}

	var comment string
	submitCmd := &cobra.Command{
		Use:   "submit <rating>",
		Short: "Leave a 1-5 rating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("rating: %w", err)
			}
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			fb, err := c.app.feedback.Submit(ctx, rating, comment)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), fb)
		},
	}
	submitCmd.Flags().StringVar(&comment, "comment", "", "comment")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your feedback, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			mine, err := c.app.feedback.ListMine(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), mine)
		},
	}

	cmd.AddCommand(submitCmd, listCmd)
	return cmd
}

func quoteCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Request a quotation or list quotations",
	}

	var in quotation.RequestInput
	submitCmd := &cobra.Command{
		Use:   "submit <description>",
		Short: "Ask the store for a quotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			in.Description = args[0]
			q, err := c.app.quotations.Request(ctx, in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), q)
		},
	}
	submitCmd.Flags().Int64Var(&in.Budget, "budget", 0, "budget")
	submitCmd.Flags().StringVar(&in.Phone, "phone", "", "contact phone")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Customers see their own quotations, managers see all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			var qs []quotation.Quotation
			if _, mgrErr := user.RequireRole(ctx, managers...); mgrErr == nil {
				qs, err = c.app.quotations.List(ctx)
			} else {
				qs, err = c.app.quotations.ListMine(ctx)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), qs)
		},
	}

	cmd.AddCommand(submitCmd, listCmd)
	return cmd
}

func notificationCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notification",
		Short: "Work the staff notification queue",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <notification-id>",
		Short: "Mark a notification verified without releasing its order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := user.RequireRole(ctx, stockDesk...); err != nil {
				return err
			}
			changed, err := c.app.notifications.MarkVerified(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "changed": changed})
		},
	})
	return cmd
}

func accountCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Register a customer account or reset a password",
	}

	var reg user.RegisterInput
	registerCmd := &cobra.Command{
		Use:   "register <username> <password>",
		Short: "Create a customer account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg.Username, reg.Password = args[0], args[1]
			u, err := c.app.users.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			u.Password = ""
			return writeJSON(cmd.OutOrStdout(), u)
		},
	}
	registerCmd.Flags().StringVar(&reg.Name, "name", "", "full name")
	registerCmd.Flags().StringVar(&reg.Email, "email", "", "email")
	registerCmd.Flags().StringVar(&reg.Phone, "phone", "", "phone")

	forgotCmd := &cobra.Command{
		Use:   "forgot <username-or-email>",
		Short: "Issue a reset code; there is no mail server, so it is printed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := c.app.users.RequestPasswordReset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), req)
		},
	}

	var password, confirm string
	resetCmd := &cobra.Command{
		Use:   "reset <code>",
		Short: "Set a new password with a reset code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			username, err := c.app.users.VerifyResetCode(ctx, args[0])
			if err != nil {
				return err
			}
			if err := c.app.users.ResetPassword(ctx, username, password, confirm); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{"username": username})
		},
	}
	resetCmd.Flags().StringVar(&password, "new-password", "", "new password")
	resetCmd.Flags().StringVar(&confirm, "confirm", "", "repeat the new password")

	cmd.AddCommand(registerCmd, forgotCmd, resetCmd)
	return cmd
}
