// pkg/wifi/wifi.go
// Package wifi reads saved wireless profiles and visible networks from the
// Windows netsh tool. Other platforms get ErrUnsupported.
package wifi

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrUnsupported is returned on platforms without netsh.
var ErrUnsupported = errors.New("wifi commands require windows (netsh)")

// keyFetchConcurrency bounds parallel netsh invocations; each spawns a
// process, so unbounded fan-out is wasteful on hosts with many profiles.
const keyFetchConcurrency = 4

// Profile is a saved wireless profile and, when requested, its key.
type Profile struct {
	Name string `json:"name"`
	Key  string `json:"key,omitempty"`
}

// Network is a currently visible wireless network.
type Network struct {
	SSID           string `json:"ssid"`
	Authentication string `json:"authentication"`
	Signal         string `json:"signal"`
}

// execNetsh runs netsh and returns its combined output. The indirection lets
// tests substitute canned transcripts; the real implementation is chosen per
// platform at build time.
var execNetsh = runNetsh

// Profiles returns the saved wireless profile names.
func Profiles(ctx context.Context) ([]Profile, error) {
	out, err := execNetsh(ctx, "wlan", "show", "profiles")
	if err != nil {
		return nil, err
	}

	names := parseProfileNames(out)
	profiles := make([]Profile, 0, len(names))
	for _, name := range names {
		profiles = append(profiles, Profile{Name: name})
	}
	return profiles, nil
}

// ProfilesWithKeys returns every saved profile with its stored key. Keys are
// fetched concurrently, one netsh call per profile.
func ProfilesWithKeys(ctx context.Context) ([]Profile, error) {
	profiles, err := Profiles(ctx)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(keyFetchConcurrency)
	for i := range profiles {
		g.Go(func() error {
			out, err := execNetsh(ctx, "wlan", "show", "profile",
				"name="+profiles[i].Name, "key=clear")
			if err != nil {
				return err
			}
			profiles[i].Key = parseKeyContent(out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Networks returns the wireless networks currently in range.
func Networks(ctx context.Context) ([]Network, error) {
	out, err := execNetsh(ctx, "wlan", "show", "networks", "mode=bssid")
	if err != nil {
		return nil, err
	}
	return parseNetworks(out), nil
}

// parseProfileNames extracts profile names from `netsh wlan show profiles`.
func parseProfileNames(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "All User Profile") {
			continue
		}
		if name := valueAfterColon(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// parseKeyContent extracts the clear-text key from
// `netsh wlan show profile name=X key=clear`. Open networks have no key
// content line; the empty string is returned for them.
func parseKeyContent(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Key Content") {
			return valueAfterColon(line)
		}
	}
	return ""
}

// parseNetworks extracts visible networks from
// `netsh wlan show networks mode=bssid`. Only the first authentication and
// signal line per SSID block is kept.
func parseNetworks(out string) []Network {
	var networks []Network
	var current *Network

	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "SSID "):
			if current != nil {
				networks = append(networks, *current)
			}
			current = &Network{SSID: valueAfterColon(trimmed)}
		case current == nil:
			// Header lines before the first SSID block.
		case strings.HasPrefix(trimmed, "Authentication") && current.Authentication == "":
			current.Authentication = valueAfterColon(trimmed)
		case strings.HasPrefix(trimmed, "Signal") && current.Signal == "":
			current.Signal = valueAfterColon(trimmed)
		}
	}
	if current != nil {
		networks = append(networks, *current)
	}
	return networks
}

func valueAfterColon(line string) string {
	_, value, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(value)
}
