package ovh

import (
	"fmt"
	"strings"

	govh "github.com/ovh/go-ovh/ovh"
)

// RequestConsumerKey asks OVH for a new consumer key scoped to what
// the sniper actually does: domain lookups, cart ordering and
// account/billing reads. The key is unusable until the operator opens
// the returned validation URL and authorizes it.
func RequestConsumerKey(endpoint, appKey, appSecret string) (*govh.CkValidationState, error) {
	appKey = strings.TrimSpace(appKey)
	appSecret = strings.TrimSpace(appSecret)
	if appKey == "" || appSecret == "" {
		return nil, fmt.Errorf("ovh: missing application credentials (set OVH_APP_KEY and OVH_APP_SECRET)")
	}
	if endpoint == "" {
		endpoint = govh.OvhEU
	}

	api, err := govh.NewClient(endpoint, appKey, appSecret, "")
	if err != nil {
		return nil, fmt.Errorf("ovh: %w", err)
	}

	ck := api.NewCkRequest()
	// Domain availability lookups.
	ck.AddRecursiveRules(govh.ReadOnly, "/domain")
	ck.AddRecursiveRules(govh.ReadOnly, "/order/domain")
	// Probe and purchase carts.
	ck.AddRecursiveRules([]string{"GET", "POST", "DELETE"}, "/order/cart")
	// Placed orders.
	ck.AddRecursiveRules(govh.ReadOnly, "/me/order")
	// Identity, billing and balance.
	ck.AddRules(govh.ReadOnly, "/me")
	ck.AddRecursiveRules(govh.ReadOnly, "/me/bill")
	ck.AddRules(govh.ReadOnly, "/me/prepaidAccount")
	ck.AddRecursiveRules(govh.ReadOnly, "/me/payment/method")

	state, err := ck.Do()
	if err != nil {
		return nil, fmt.Errorf("ovh: request consumer key: %w", err)
	}
	return state, nil
}
