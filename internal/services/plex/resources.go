package plex

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
)

type resourceContainer struct {
	Devices []resourceDevice `xml:"Device"`
}

type resourceDevice struct {
	Name        string               `xml:"name,attr"`
	Provides    string               `xml:"provides,attr"`
	Connections []resourceConnection `xml:"Connection"`
}

type resourceConnection struct {
	Protocol string `xml:"protocol,attr"`
	Address  string `xml:"address,attr"`
	Port     string `xml:"port,attr"`
	URI      string `xml:"uri,attr"`
	Local    string `xml:"local,attr"`
}

// ResourceConnection is one advertised way to reach a device.
type ResourceConnection struct {
	Device   string
	Protocol string
	Address  string
	Port     string
	URI      string
}

// FetchResources lists the connections of every device the token can see.
func (c *Connector) FetchResources(ctx context.Context, token string) ([]ResourceConnection, error) {
	req, err := http.NewRequest(http.MethodGet, c.settings.ResourcesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build resources request: %w", err)
	}
	body, err := c.do(ctx, c.client, req, token)
	if err != nil {
		return nil, err
	}

	var container resourceContainer
	if err := xml.Unmarshal(body, &container); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}
	var out []ResourceConnection
	for _, device := range container.Devices {
		for _, conn := range device.Connections {
			out = append(out, ResourceConnection{
				Device:   device.Name,
				Protocol: strings.ToLower(strings.TrimSpace(conn.Protocol)),
				Address:  strings.TrimSpace(conn.Address),
				Port:     strings.TrimSpace(conn.Port),
				URI:      strings.TrimSpace(conn.URI),
			})
		}
	}
	return out, nil
}

// SchemeForHost returns the protocol of the first connection whose address
// matches host, or "http" when none does.
func SchemeForHost(connections []ResourceConnection, host string) (string, bool) {
	host = strings.TrimSpace(host)
	for _, conn := range connections {
		if conn.Address == "" || !strings.EqualFold(conn.Address, host) {
			continue
		}
		if conn.Protocol == "http" || conn.Protocol == "https" {
			return conn.Protocol, true
		}
	}
	return "http", false
}
