package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/cart"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/checkout"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/client"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/orders"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/redirect"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type buyOptions struct {
	items    []string
	draft    checkout.Draft
	shipping string
}

func newBuyCmd() *cobra.Command {
	var opts buyOptions
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Build a cart, pay, and confirm the order",
		Example: `  shopctl buy --item "hat:Cowboy Hat:20.00:5:2" --item "belt:Belt:5:10" \
    --email ann@example.com --name Ann --address "1 Trail Rd" --city Austin --state TX --zip 73301`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuy(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&opts.items, "item", nil, "cart line as id:name:price:stock[:qty] (repeatable)")
	f.StringVar(&opts.draft.Email, "email", "", "customer email")
	f.StringVar(&opts.draft.Name, "name", "", "customer name")
	f.StringVar(&opts.draft.Address, "address", "", "shipping address")
	f.StringVar(&opts.draft.City, "city", "", "shipping city")
	f.StringVar(&opts.draft.State, "state", "", "shipping state")
	f.StringVar(&opts.draft.Zip, "zip", "", "shipping zip")
	f.StringVar(&opts.shipping, "shipping", "10", "shipping shown to the shopper")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func runBuy(cmd *cobra.Command, opts buyOptions) error {
	out := cmd.OutOrStdout()
	store := cart.New()
	store.Subscribe(func(s cart.Snapshot) {
		fmt.Fprintf(cmd.ErrOrStderr(), "cart: %d item(s), subtotal %s\n", s.ItemCount, s.Subtotal.StringFixed(2))
	})
	for _, raw := range opts.items {
		p, qty, err := parseItem(raw)
		if err != nil {
			return err
		}
		store.Add(p, qty)
	}

	shipping, err := decimal.NewFromString(opts.shipping)
	if err != nil {
		return fmt.Errorf("shipping: %w", err)
	}
	c := client.New(apiURL, nil)
	h, err := c.Checkout(cmd.Context(), checkout.Request{
		CartItems:    store.Lines(),
		CustomerInfo: opts.draft,
		Amounts: checkout.Amounts{
			Subtotal: store.Subtotal(),
			Shipping: shipping,
			Total:    store.Subtotal().Add(shipping),
		},
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Pay here: %s\n", h.URL)
	fmt.Fprintln(out, "Paste the URL the payment page sent you back to:")

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	conf, err := confirmFromRedirect(cmd, c, strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "cart kept (%d item(s))\n", store.TotalItemCount())
		return err
	}
	store.Clear()
	printConfirmation(out, conf)
	return nil
}

func confirmFromRedirect(cmd *cobra.Command, c *client.Client, raw string) (orders.Confirmation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return orders.Confirmation{}, fmt.Errorf("redirect url: %w", err)
	}
	t := redirect.NewTrigger(c.Confirm)
	conf, err := t.Handle(cmd.Context(), u)
	if errors.Is(err, redirect.ErrNoSessionID) {
		return orders.Confirmation{}, errors.New("no session_id in redirect url, nothing to confirm")
	}
	return conf, err
}

func printConfirmation(w io.Writer, c orders.Confirmation) {
	o := c.Order
	fmt.Fprintf(w, "Order %s (%s)\n", c.OrderNumber, o.Status)
	for _, it := range o.Items {
		fmt.Fprintf(w, "  %d x %s @ %s\n", it.Quantity, it.ProductName, it.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(w, "Subtotal %s  Tax %s  Shipping %s  Total %s\n",
		o.Subtotal.StringFixed(2), o.Tax.StringFixed(2), o.Shipping.StringFixed(2), o.Total.StringFixed(2))
}

// parseItem reads id:name:price:stock[:qty]; qty defaults to 1.
func parseItem(raw string) (cart.Product, int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 4 && len(parts) != 5 {
		return cart.Product{}, 0, fmt.Errorf("item %q: want id:name:price:stock[:qty]", raw)
	}
	price, err := decimal.NewFromString(parts[2])
	if err != nil {
		return cart.Product{}, 0, fmt.Errorf("item %q: price: %w", raw, err)
	}
	stock, err := strconv.Atoi(parts[3])
	if err != nil {
		return cart.Product{}, 0, fmt.Errorf("item %q: stock: %w", raw, err)
	}
	qty := 1
	if len(parts) == 5 {
		if qty, err = strconv.Atoi(parts[4]); err != nil {
			return cart.Product{}, 0, fmt.Errorf("item %q: qty: %w", raw, err)
		}
	}
	return cart.Product{ID: parts[0], Name: parts[1], Price: price, Stock: stock}, qty, nil
}
