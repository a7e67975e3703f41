// The getconsumerkey binary bootstraps OVH access. It requests a
// consumer key scoped to the operations the sniper performs and
// prints the validation link that finishes provisioning.
package main

import (
	"fmt"
	"os"

	"domainsniper/config"
	ovhclient "domainsniper/registrar/ovh"
)

func main() {
	cfg := config.Load()
	if cfg.OVHAppKey == "" || cfg.OVHAppSecret == "" {
		fmt.Fprintln(os.Stderr, "OVH_APP_KEY and OVH_APP_SECRET must be set")
		os.Exit(1)
	}

	state, err := ovhclient.RequestConsumerKey(cfg.OVHEndpoint, cfg.OVHAppKey, cfg.OVHAppSecret)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Consumer key:    %s\n", state.ConsumerKey)
	fmt.Printf("Validation link: %s\n", state.ValidationURL)
	fmt.Println()
	fmt.Println("Open the validation link, sign in to your OVH account and authorize")
	fmt.Println("the application, then set OVH_CONSUMER_KEY to the key above.")
	fmt.Println("The key expires if it is not validated within 24 hours.")
}
