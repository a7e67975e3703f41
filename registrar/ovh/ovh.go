// Package ovh implements the registrar client against the OVH ordering
// API. Availability is established with a disposable cart probe: if the
// provider accepts the domain as a cart line item it is purchasable,
// and the probe cart is discarded afterwards on every exit path.
package ovh

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	govh "github.com/ovh/go-ovh/ovh"

	"domainsniper/registrar"
)

// releaseWindow approximates the OVH post-expiry lifecycle (30 days of
// grace plus 45 days of redemption) used to estimate when an expired
// domain drops back into the open pool.
const releaseWindow = 75 * 24 * time.Hour

type Options struct {
	// Endpoint is an OVH endpoint alias (ovh-eu, ovh-ca, ...) or a
	// full base URL.
	Endpoint    string
	AppKey      string
	AppSecret   string
	ConsumerKey string

	// Subsidiary selects the OVH subsidiary carts are created for.
	Subsidiary string

	// Timeout bounds every HTTP round trip to the API.
	Timeout time.Duration

	// SettleDelay is the pause between assigning a purchase cart and
	// checking it out; OVH needs a moment before the cart is billable.
	SettleDelay time.Duration
}

type Client struct {
	api         *govh.Client
	subsidiary  string
	settleDelay time.Duration
	timeout     time.Duration
}

func NewClient(opts Options) (*Client, error) {
	opts.AppKey = strings.TrimSpace(opts.AppKey)
	opts.AppSecret = strings.TrimSpace(opts.AppSecret)
	opts.ConsumerKey = strings.TrimSpace(opts.ConsumerKey)
	if opts.AppKey == "" || opts.AppSecret == "" || opts.ConsumerKey == "" {
		return nil, fmt.Errorf("ovh: missing credentials (set OVH_APP_KEY, OVH_APP_SECRET and OVH_CONSUMER_KEY)")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = govh.OvhEU
	}
	if opts.Subsidiary == "" {
		opts.Subsidiary = "FR"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.SettleDelay == 0 {
		opts.SettleDelay = 2 * time.Second
	} else if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}

	api, err := govh.NewClient(opts.Endpoint, opts.AppKey, opts.AppSecret, opts.ConsumerKey)
	if err != nil {
		return nil, fmt.Errorf("ovh: %w", err)
	}
	api.Timeout = opts.Timeout
	api.Client.Timeout = opts.Timeout

	return &Client{
		api:         api,
		subsidiary:  opts.Subsidiary,
		settleDelay: opts.SettleDelay,
		timeout:     opts.Timeout,
	}, nil
}

type cart struct {
	CartID string `json:"cartId"`
	Assign bool   `json:"assign"`
}

type cartItem struct {
	ItemID int64 `json:"itemId"`
}

type price struct {
	Value        float64 `json:"value"`
	Text         string  `json:"text"`
	CurrencyCode string  `json:"currencyCode"`
}

type checkoutOrder struct {
	OrderID int64 `json:"orderId"`
	Prices  struct {
		WithTax price `json:"withTax"`
	} `json:"prices"`
}

type identity struct {
	Nichandle string `json:"nichandle"`
	Email     string `json:"email"`
}

type prepaidAccount struct {
	OvhAccountID string `json:"ovhAccountId"`
	Balance      price  `json:"balance"`
}

type serviceInfos struct {
	Expiration string `json:"expiration"`
	Creation   string `json:"creation"`
}

func (c *Client) CheckAvailability(ctx context.Context, domain string) (registrar.Availability, error) {
	domain = normalize(domain)
	if domain == "" {
		return registrar.Indeterminate, fmt.Errorf("ovh: empty domain")
	}

	var probe cart
	err := c.api.PostWithContext(ctx, "/order/cart", map[string]any{
		"ovhSubsidiary": c.subsidiary,
	}, &probe)
	if err != nil {
		return registrar.Indeterminate, fmt.Errorf("ovh: create probe cart: %w", err)
	}
	defer c.discardCart(probe.CartID)

	var item cartItem
	err = c.api.PostWithContext(ctx, "/order/cart/"+probe.CartID+"/domain", map[string]any{
		"domain":   domain,
		"duration": "P1Y",
	}, &item)
	if err == nil {
		return registrar.Available, nil
	}
	if classify(err) == registrar.ReasonNotAvailable {
		return registrar.Unavailable, nil
	}
	return registrar.Indeterminate, fmt.Errorf("ovh: probe %s: %w", domain, err)
}

func (c *Client) Purchase(ctx context.Context, domain string) (registrar.PurchaseResult, error) {
	domain = normalize(domain)
	if domain == "" {
		return registrar.PurchaseResult{}, fmt.Errorf("ovh: empty domain")
	}

	// Availability can change between detection and purchase, so
	// re-verify right before committing.
	avail, err := c.CheckAvailability(ctx, domain)
	if err != nil {
		return registrar.PurchaseResult{}, err
	}
	if avail != registrar.Available {
		return registrar.PurchaseResult{
			Reason:  registrar.ReasonNotAvailable,
			Message: fmt.Sprintf("%s is no longer available", domain),
		}, nil
	}

	// A pre-assigned cart skips the explicit assign step; older
	// accounts reject assign-on-create, so fall back to a plain cart.
	var ct cart
	err = c.api.PostWithContext(ctx, "/order/cart", map[string]any{
		"ovhSubsidiary": c.subsidiary,
		"assign":        true,
	}, &ct)
	if err != nil {
		if err = c.api.PostWithContext(ctx, "/order/cart", map[string]any{
			"ovhSubsidiary": c.subsidiary,
		}, &ct); err != nil {
			return registrar.PurchaseResult{}, fmt.Errorf("ovh: create order cart: %w", err)
		}
	}

	committed := false
	defer func() {
		if !committed {
			c.discardCart(ct.CartID)
		}
	}()

	var item cartItem
	err = c.api.PostWithContext(ctx, "/order/cart/"+ct.CartID+"/domain", map[string]any{
		"domain":   domain,
		"duration": "P1Y",
	}, &item)
	if err != nil {
		return registrar.PurchaseResult{
			Reason:  classify(err),
			Message: vendorMessage(err),
		}, nil
	}

	var info cart
	if err := c.api.GetWithContext(ctx, "/order/cart/"+ct.CartID, &info); err == nil && !info.Assign {
		// Assignment occasionally races with pre-assigned carts;
		// checkout is what decides, so a failure here is not fatal.
		_ = c.api.PostWithContext(ctx, "/order/cart/"+ct.CartID+"/assign", nil, nil)
	}

	if !sleepCtx(ctx, c.settleDelay) {
		return registrar.PurchaseResult{}, ctx.Err()
	}

	var order checkoutOrder
	if err := c.api.PostWithContext(ctx, "/order/cart/"+ct.CartID+"/checkout", nil, &order); err != nil {
		return registrar.PurchaseResult{
			Reason:  classify(err),
			Message: vendorMessage(err),
		}, nil
	}

	committed = true
	value := order.Prices.WithTax.Value
	return registrar.PurchaseResult{
		Success:   true,
		OrderID:   strconv.FormatInt(order.OrderID, 10),
		Price:     &value,
		PriceText: order.Prices.WithTax.Text,
	}, nil
}

func (c *Client) AccountBalance(ctx context.Context) (*registrar.Balance, error) {
	var acct prepaidAccount
	if err := c.api.GetWithContext(ctx, "/me/prepaidAccount", &acct); err != nil {
		return nil, fmt.Errorf("ovh: prepaid account: %w", err)
	}
	return &registrar.Balance{
		Amount:   acct.Balance.Value,
		Currency: acct.Balance.CurrencyCode,
		Text:     acct.Balance.Text,
	}, nil
}

func (c *Client) TestConnection(ctx context.Context) registrar.ConnectionStatus {
	var me identity
	if err := c.api.GetWithContext(ctx, "/me", &me); err != nil {
		return registrar.ConnectionStatus{Error: err.Error()}
	}
	return registrar.ConnectionStatus{OK: true, Identity: me.Nichandle}
}

func (c *Client) ExpirationInfo(ctx context.Context, domain string) (*registrar.ExpirationInfo, error) {
	domain = normalize(domain)
	var si serviceInfos
	if err := c.api.GetWithContext(ctx, "/domain/"+domain+"/serviceInfos", &si); err != nil {
		var apiErr *govh.APIError
		if errors.As(err, &apiErr) && apiErr.Code == 404 {
			// Not managed at OVH; nothing to report.
			return nil, nil
		}
		return nil, fmt.Errorf("ovh: service infos %s: %w", domain, err)
	}

	expiry, err := time.Parse("2006-01-02", si.Expiration)
	if err != nil {
		return nil, fmt.Errorf("ovh: parse expiration %q: %w", si.Expiration, err)
	}
	return &registrar.ExpirationInfo{
		ExpiryDate:           expiry,
		EstimatedReleaseDate: expiry.Add(releaseWindow),
		DaysUntilExpiry:      int(time.Until(expiry).Hours() / 24),
		Registrar:            "OVH",
	}, nil
}

// discardCart releases a probe or abandoned cart. It runs on its own
// context so a cancelled caller still cleans up.
func (c *Client) discardCart(cartID string) {
	if cartID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	_ = c.api.DeleteWithContext(ctx, "/order/cart/"+cartID, nil)
}

// classify maps a vendor error to the stable failure taxonomy. Only
// documented OVH status codes and error classes participate; anything
// else stays unknown rather than being guessed at.
func classify(err error) registrar.FailureReason {
	var apiErr *govh.APIError
	if !errors.As(err, &apiErr) {
		return registrar.ReasonUnknown
	}
	switch apiErr.Code {
	case 401, 403:
		return registrar.ReasonPermissionDenied
	case 404:
		return registrar.ReasonNotAvailable
	case 400:
		msg := strings.ToLower(apiErr.Message)
		if strings.Contains(msg, "not available") ||
			strings.Contains(msg, "not orderable") ||
			strings.Contains(msg, "already registered") {
			return registrar.ReasonNotAvailable
		}
		return registrar.ReasonMalformedRequest
	}
	return registrar.ReasonUnknown
}

func vendorMessage(err error) string {
	var apiErr *govh.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func normalize(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
