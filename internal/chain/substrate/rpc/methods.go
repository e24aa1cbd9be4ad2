package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

func (c *Client) GetBlockHash(ctx context.Context, number uint64) (string, error) {
	result, err := c.call(ctx, "chain_getBlockHash", []interface{}{number})
	if err != nil {
		return "", fmt.Errorf("chain_getBlockHash(%d): %w", number, err)
	}
	if string(result) == "null" {
		return "", fmt.Errorf("chain_getBlockHash(%d): block not found", number)
	}

	var hash string
	if err := json.Unmarshal(result, &hash); err != nil {
		return "", fmt.Errorf("unmarshal block hash: %w", err)
	}
	return hash, nil
}

func (c *Client) GetGenesisHash(ctx context.Context) (string, error) {
	hash, err := c.GetBlockHash(ctx, 0)
	if err != nil {
		return "", fmt.Errorf("get genesis hash: %w", err)
	}
	return hash, nil
}

// GetMetadata returns the hex-encoded runtime metadata at the best block.
func (c *Client) GetMetadata(ctx context.Context) (string, error) {
	result, err := c.call(ctx, "state_getMetadata", nil)
	if err != nil {
		return "", fmt.Errorf("state_getMetadata: %w", err)
	}

	var metadata string
	if err := json.Unmarshal(result, &metadata); err != nil {
		return "", fmt.Errorf("unmarshal metadata: %w", err)
	}
	return metadata, nil
}

func (c *Client) GetRuntimeVersion(ctx context.Context) (*RuntimeVersion, error) {
	result, err := c.call(ctx, "state_getRuntimeVersion", nil)
	if err != nil {
		return nil, fmt.Errorf("state_getRuntimeVersion: %w", err)
	}

	var version RuntimeVersion
	if err := json.Unmarshal(result, &version); err != nil {
		return nil, fmt.Errorf("unmarshal runtime version: %w", err)
	}
	return &version, nil
}

func (c *Client) GetSystemChain(ctx context.Context) (string, error) {
	result, err := c.call(ctx, "system_chain", nil)
	if err != nil {
		return "", fmt.Errorf("system_chain: %w", err)
	}

	var name string
	if err := json.Unmarshal(result, &name); err != nil {
		return "", fmt.Errorf("unmarshal chain name: %w", err)
	}
	return name, nil
}
