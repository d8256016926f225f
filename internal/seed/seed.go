// Package seed loads the bundled dApp registry fixtures and writes them to a
// registry store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

//go:embed dapps.yaml
var defaultData []byte

// Store is the write side of the registry used by Apply.
type Store interface {
	UpsertDApp(ctx context.Context, d models.DApp) error
	UpsertInterface(ctx context.Context, iface models.DAppInterface) error
	UpsertPool(ctx context.Context, p models.Pool) error
}

type file struct {
	DApps []entry `yaml:"dapps"`
}

type entry struct {
	models.DApp `yaml:",inline"`
	Interfaces  []interfaceEntry `yaml:"interfaces"`
	Pools       []poolEntry      `yaml:"pools"`
}

type interfaceEntry struct {
	ActionType        string    `yaml:"actionType"`
	InputSchema       yaml.Node `yaml:"inputSchema"`
	OutputSchema      yaml.Node `yaml:"outputSchema"`
	ContractInterface yaml.Node `yaml:"contractInterface"`
	ExampleUsage      string    `yaml:"exampleUsage"`
}

type poolEntry struct {
	PoolAddress string  `yaml:"poolAddress"`
	Token0      string  `yaml:"token0"`
	Token1      string  `yaml:"token1"`
	Reserve0    string  `yaml:"reserve0"`
	Reserve1    string  `yaml:"reserve1"`
	Fee         float64 `yaml:"fee"`
	Liquidity   string  `yaml:"liquidity"`
}

// Data is a parsed seed document ready to be applied.
type Data struct {
	DApps      []models.DApp
	Interfaces []models.DAppInterface
	Pools      []models.Pool
}

// Summary counts the rows written by Apply.
type Summary struct {
	DApps      int `json:"dapps"`
	Interfaces int `json:"interfaces"`
	Pools      int `json:"pools"`
}

// Default parses the embedded fixtures.
func Default() (*Data, error) {
	return Parse(defaultData)
}

// Parse decodes a seed document. Schema blocks keep their key order when
// converted to JSON, since field order drives form layout.
func Parse(data []byte) (*Data, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if len(f.DApps) == 0 {
		return nil, errors.New("seed contains no dapps")
	}

	out := &Data{}
	seen := make(map[string]struct{}, len(f.DApps))
	for i, e := range f.DApps {
		d := e.DApp
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			return nil, fmt.Errorf("dapp %d: id is required", i)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("dapp %s: duplicate id", d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.Name == "" {
			return nil, fmt.Errorf("dapp %s: name is required", d.ID)
		}
		if !d.Category.Valid() {
			return nil, fmt.Errorf("dapp %s: unknown category %q", d.ID, d.Category)
		}
		if d.ContractAddresses == nil {
			d.ContractAddresses = []string{}
		}
		out.DApps = append(out.DApps, d)

		actions := make(map[models.ActionType]struct{}, len(e.Interfaces))
		for _, ie := range e.Interfaces {
			iface, err := ie.build(d.ID)
			if err != nil {
				return nil, fmt.Errorf("dapp %s: %w", d.ID, err)
			}
			if _, dup := actions[iface.ActionType]; dup {
				return nil, fmt.Errorf("dapp %s: duplicate interface %q", d.ID, iface.ActionType)
			}
			actions[iface.ActionType] = struct{}{}
			out.Interfaces = append(out.Interfaces, iface)
		}

		for _, pe := range e.Pools {
			if pe.PoolAddress == "" || pe.Token0 == "" || pe.Token1 == "" {
				return nil, fmt.Errorf("dapp %s: pool needs poolAddress, token0 and token1", d.ID)
			}
			out.Pools = append(out.Pools, models.Pool{
				DAppID:      d.ID,
				PoolAddress: pe.PoolAddress,
				Token0:      pe.Token0,
				Token1:      pe.Token1,
				Reserve0:    orZero(pe.Reserve0),
				Reserve1:    orZero(pe.Reserve1),
				Fee:         pe.Fee,
				Liquidity:   pe.Liquidity,
			})
		}
	}
	return out, nil
}

func (ie interfaceEntry) build(dappID string) (models.DAppInterface, error) {
	action := models.ActionType(strings.ToLower(strings.TrimSpace(ie.ActionType)))
	if action == "" {
		return models.DAppInterface{}, errors.New("interface actionType is required")
	}
	if ie.InputSchema.Kind != yaml.MappingNode {
		return models.DAppInterface{}, fmt.Errorf("interface %q: inputSchema must be a mapping", action)
	}
	input, err := nodeToJSON(&ie.InputSchema)
	if err != nil {
		return models.DAppInterface{}, fmt.Errorf("interface %q inputSchema: %w", action, err)
	}
	output := json.RawMessage(`{}`)
	if ie.OutputSchema.Kind != 0 {
		if output, err = nodeToJSON(&ie.OutputSchema); err != nil {
			return models.DAppInterface{}, fmt.Errorf("interface %q outputSchema: %w", action, err)
		}
	}
	var contract json.RawMessage
	if ie.ContractInterface.Kind != 0 {
		if contract, err = nodeToJSON(&ie.ContractInterface); err != nil {
			return models.DAppInterface{}, fmt.Errorf("interface %q contractInterface: %w", action, err)
		}
	}
	return models.DAppInterface{
		DAppID:            dappID,
		ActionType:        action,
		InputSchema:       input,
		OutputSchema:      output,
		ContractInterface: contract,
		ExampleUsage:      ie.ExampleUsage,
	}, nil
}

// nodeToJSON renders a YAML node as JSON, emitting mapping keys in document
// order.
func nodeToJSON(n *yaml.Node) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeNode(buf, n.Content[0])
	case yaml.AliasNode:
		return writeNode(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeNode(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		buf.Write(b)
		return nil
	default:
		return fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// Apply upserts every dApp, interface and pool in data. It is idempotent.
func Apply(ctx context.Context, store Store, data *Data, logger *logrus.Logger) (Summary, error) {
	if logger == nil {
		logger = logrus.New()
	}
	var sum Summary
	now := time.Now().UTC()

	for _, d := range data.DApps {
		if err := store.UpsertDApp(ctx, d); err != nil {
			return sum, fmt.Errorf("upsert dapp %s: %w", d.ID, err)
		}
		sum.DApps++
	}
	for _, iface := range data.Interfaces {
		if err := store.UpsertInterface(ctx, iface); err != nil {
			return sum, fmt.Errorf("upsert interface %s/%s: %w", iface.DAppID, iface.ActionType, err)
		}
		sum.Interfaces++
	}
	for _, p := range data.Pools {
		p.LastUpdated = now
		if err := store.UpsertPool(ctx, p); err != nil {
			return sum, fmt.Errorf("upsert pool %s: %w", p.PoolAddress, err)
		}
		sum.Pools++
	}

	logger.WithFields(logrus.Fields{
		"dapps":      sum.DApps,
		"interfaces": sum.Interfaces,
		"pools":      sum.Pools,
	}).Info("Registry seeded")
	return sum, nil
}
