package rola

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/walletauth/internal/netx"
)

// OwnerKeysFetcher reads the owner_keys metadata of an on-ledger entity.
// ok is false when the entity has no owner_keys set.
type OwnerKeysFetcher interface {
	OwnerKeyHashes(ctx context.Context, address string) (hashes []string, ok bool, err error)
}

// GatewayClient queries a network gateway's entity details endpoint.
type GatewayClient struct {
	baseURL string
	client  *http.Client
}

func NewGatewayClient(baseURL string, client *http.Client) *GatewayClient {
	return &GatewayClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type entityDetailsRequest struct {
	Addresses        []string       `json:"addresses"`
	AggregationLevel string         `json:"aggregation_level"`
	OptIns           map[string]any `json:"opt_ins"`
}

type entityDetailsResponse struct {
	Items []struct {
		Address          string `json:"address"`
		ExplicitMetadata struct {
			Items []struct {
				Key   string `json:"key"`
				Value struct {
					Typed struct {
						Type   string `json:"type"`
						Values []struct {
							KeyHashType string `json:"key_hash_type"`
							HashHex     string `json:"hash_hex"`
						} `json:"values"`
					} `json:"typed"`
				} `json:"value"`
			} `json:"items"`
		} `json:"explicit_metadata"`
	} `json:"items"`
}

// OwnerKeyHashes returns the hex public key hashes listed in owner_keys.
func (g *GatewayClient) OwnerKeyHashes(ctx context.Context, address string) ([]string, bool, error) {
	req := entityDetailsRequest{
		Addresses:        []string{address},
		AggregationLevel: "Vault",
		OptIns:           map[string]any{"explicit_metadata": []string{"owner_keys"}},
	}

	var resp entityDetailsResponse
	if err := netx.DoJSON(ctx, g.client, http.MethodPost, g.baseURL+"/state/entity/details", nil, req, &resp); err != nil {
		return nil, false, err
	}

	for _, item := range resp.Items {
		if item.Address != "" && item.Address != address {
			continue
		}
		for _, md := range item.ExplicitMetadata.Items {
			if md.Key != "owner_keys" {
				continue
			}
			hashes := make([]string, 0, len(md.Value.Typed.Values))
			for _, v := range md.Value.Typed.Values {
				hashes = append(hashes, strings.ToLower(v.HashHex))
			}
			return hashes, true, nil
		}
	}
	return nil, false, nil
}
