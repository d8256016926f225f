package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

const dappColumns = `d.id, d.name, d.category, d.description, d.contract_addresses, d.website_url,
	d.api_endpoint, d.tvl, d.volume_24h, d.is_active, d.last_indexed`

const interfaceColumns = `i.id, i.dapp_id, i.action_type, i.input_schema, i.output_schema,
	i.contract_interface, i.example_usage`

// RegistryStore implements storage.RegistryStore over database/sql.
type RegistryStore struct {
	db      *sql.DB
	dialect dialect
	logger  *logrus.Logger
	now     func() time.Time
}

var _ storage.RegistryStore = (*RegistryStore)(nil)

// NewRegistryStore wraps an open database. It does not migrate.
func NewRegistryStore(db *sql.DB, driver string, logger *logrus.Logger) (*RegistryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("registry db is nil")
	}
	d, err := newDialect(driver)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RegistryStore{db: db, dialect: d, logger: logger, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *RegistryStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *RegistryStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *RegistryStore) FindByActionType(ctx context.Context, actionType models.ActionType, limit int, tokens ...string) ([]models.Candidate, error) {
	if limit <= 0 {
		limit = 5
	}
	q := s.dialect.rebind(`SELECT ` + dappColumns + `, ` + interfaceColumns + `
		FROM dapps d JOIN dapp_interfaces i ON i.dapp_id = d.id
		WHERE d.is_active = ? AND i.action_type = ?
		ORDER BY d.id
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, q, true, string(actionType), limit)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		var dr dappRow
		var ir interfaceRow
		if err := rows.Scan(append(dr.dest(), ir.dest()...)...); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		d, err := dr.finish()
		if err != nil {
			return nil, err
		}
		out = append(out, models.Candidate{DApp: d, Interfaces: []models.DAppInterface{ir.finish()}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	if err := s.attachPools(ctx, out, tokens); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RegistryStore) attachPools(ctx context.Context, cands []models.Candidate, tokens []string) error {
	ids := make([]any, 0, len(cands))
	for _, c := range cands {
		ids = append(ids, c.DApp.ID)
	}
	args := append([]any{}, ids...)
	q := `SELECT id, dapp_id, pool_address, token0, token1, reserve0, reserve1, fee, liquidity, last_updated
		FROM pools WHERE dapp_id IN (` + placeholders(len(ids)) + `)`

	var toks []any
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			toks = append(toks, strings.ToUpper(t))
		}
	}
	if len(toks) > 0 {
		q += ` AND (UPPER(token0) IN (` + placeholders(len(toks)) + `) OR UPPER(token1) IN (` + placeholders(len(toks)) + `))`
		args = append(args, toks...)
		args = append(args, toks...)
	}
	q += ` ORDER BY dapp_id, pool_address`

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(q), args...)
	if err != nil {
		return fmt.Errorf("query pools: %w", err)
	}
	defer rows.Close()

	byDApp := make(map[string][]models.Pool)
	for rows.Next() {
		var p models.Pool
		var updated int64
		if err := rows.Scan(&p.ID, &p.DAppID, &p.PoolAddress, &p.Token0, &p.Token1, &p.Reserve0, &p.Reserve1, &p.Fee, &p.Liquidity, &updated); err != nil {
			return fmt.Errorf("scan pool: %w", err)
		}
		p.LastUpdated = time.Unix(updated, 0).UTC()
		byDApp[p.DAppID] = append(byDApp[p.DAppID], p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate pools: %w", err)
	}
	for i := range cands {
		cands[i].Pools = byDApp[cands[i].DApp.ID]
	}
	return nil
}

func (s *RegistryStore) GetDApp(ctx context.Context, id string) (*models.DApp, error) {
	q := s.dialect.rebind(`SELECT ` + dappColumns + ` FROM dapps d WHERE d.id = ?`)
	var dr dappRow
	if err := s.db.QueryRowContext(ctx, q, id).Scan(dr.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get dapp: %w", err)
	}
	d, err := dr.finish()
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *RegistryStore) GetInterface(ctx context.Context, dappID string, actionType models.ActionType) (*models.DAppInterface, error) {
	q := s.dialect.rebind(`SELECT ` + interfaceColumns + ` FROM dapp_interfaces i WHERE i.dapp_id = ? AND i.action_type = ?`)
	var ir interfaceRow
	if err := s.db.QueryRowContext(ctx, q, dappID, string(actionType)).Scan(ir.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get interface: %w", err)
	}
	iface := ir.finish()
	return &iface, nil
}

func (s *RegistryStore) ListDApps(ctx context.Context, filter storage.DAppFilter) ([]models.DApp, error) {
	q := `SELECT ` + dappColumns + ` FROM dapps d WHERE 1 = 1`
	var args []any
	if filter.Category != "" {
		q += ` AND d.category = ?`
		args = append(args, string(filter.Category))
	}
	if filter.ActiveOnly {
		q += ` AND d.is_active = ?`
		args = append(args, true)
	}
	q += ` ORDER BY d.id`

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list dapps: %w", err)
	}
	defer rows.Close()

	out := []models.DApp{}
	for rows.Next() {
		var dr dappRow
		if err := rows.Scan(dr.dest()...); err != nil {
			return nil, fmt.Errorf("scan dapp: %w", err)
		}
		d, err := dr.finish()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dapps: %w", err)
	}
	return out, nil
}

func (s *RegistryStore) Stats(ctx context.Context) (*models.RegistryStats, error) {
	q := s.dialect.rebind(`SELECT category, COUNT(*),
		SUM(CASE WHEN is_active = ? THEN 1 ELSE 0 END),
		COALESCE(SUM(tvl), 0), COALESCE(SUM(volume_24h), 0)
		FROM dapps GROUP BY category ORDER BY category`)
	rows, err := s.db.QueryContext(ctx, q, true)
	if err != nil {
		return nil, fmt.Errorf("dapp stats: %w", err)
	}
	defer rows.Close()

	st := &models.RegistryStats{ByCategory: make(map[models.Category]int)}
	for rows.Next() {
		var (
			cat           string
			total, active int
			tvl, vol      float64
		)
		if err := rows.Scan(&cat, &total, &active, &tvl, &vol); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		st.ByCategory[models.Category(cat)] = total
		st.TotalDApps += total
		st.ActiveDApps += active
		st.TotalTVL += tvl
		st.TotalVolume24h += vol
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pools`).Scan(&st.TotalPools); err != nil {
		return nil, fmt.Errorf("count pools: %w", err)
	}
	return st, nil
}

func (s *RegistryStore) UpsertDApp(ctx context.Context, d models.DApp) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("upsert dapp: missing id")
	}
	addrs := d.ContractAddresses
	if addrs == nil {
		addrs = []string{}
	}
	addrJSON, err := json.Marshal(addrs)
	if err != nil {
		return fmt.Errorf("marshal contract addresses: %w", err)
	}
	now := s.now().Unix()

	q := s.dialect.upsert("dapps", "id",
		[]string{"id", "name", "category", "description", "contract_addresses", "website_url", "api_endpoint", "tvl", "volume_24h", "is_active", "created_at", "updated_at"},
		[]string{"name", "category", "description", "contract_addresses", "website_url", "api_endpoint", "tvl", "volume_24h", "is_active", "updated_at"},
	)
	_, err = s.db.ExecContext(ctx, s.dialect.rebind(q),
		d.ID, d.Name, string(d.Category), d.Description, string(addrJSON), d.WebsiteURL, d.APIEndpoint,
		nullFloat(d.TVL), nullFloat(d.Volume24h), d.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert dapp %s: %w", d.ID, err)
	}
	return nil
}

func (s *RegistryStore) UpsertInterface(ctx context.Context, iface models.DAppInterface) error {
	if iface.DAppID == "" || iface.ActionType == "" {
		return fmt.Errorf("upsert interface: dapp id and action type are required")
	}
	if iface.ID == "" {
		iface.ID = iface.DAppID + ":" + string(iface.ActionType)
	}
	q := s.dialect.upsert("dapp_interfaces", "dapp_id, action_type",
		[]string{"id", "dapp_id", "action_type", "input_schema", "output_schema", "contract_interface", "example_usage"},
		[]string{"input_schema", "output_schema", "contract_interface", "example_usage"},
	)
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(q),
		iface.ID, iface.DAppID, string(iface.ActionType),
		rawOrEmpty(iface.InputSchema), rawOrEmpty(iface.OutputSchema), rawOrEmpty(iface.ContractInterface),
		iface.ExampleUsage,
	)
	if err != nil {
		return fmt.Errorf("upsert interface %s: %w", iface.ID, err)
	}
	return nil
}

func (s *RegistryStore) UpsertPool(ctx context.Context, p models.Pool) error {
	if p.PoolAddress == "" || p.DAppID == "" {
		return fmt.Errorf("upsert pool: dapp id and pool address are required")
	}
	if p.ID == "" {
		p.ID = p.PoolAddress
	}
	if p.LastUpdated.IsZero() {
		p.LastUpdated = s.now()
	}
	q := s.dialect.upsert("pools", "pool_address",
		[]string{"id", "dapp_id", "pool_address", "token0", "token1", "reserve0", "reserve1", "fee", "liquidity", "last_updated"},
		[]string{"token0", "token1", "reserve0", "reserve1", "fee", "liquidity", "last_updated"},
	)
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(q),
		p.ID, p.DAppID, p.PoolAddress, p.Token0, p.Token1, p.Reserve0, p.Reserve1, p.Fee, p.Liquidity, p.LastUpdated.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert pool %s: %w", p.PoolAddress, err)
	}
	return nil
}

func (s *RegistryStore) UpdateMetrics(ctx context.Context, dappID string, tvl, volume *float64, indexedAt time.Time) error {
	q := s.dialect.rebind(`UPDATE dapps SET tvl = COALESCE(?, tvl), volume_24h = COALESCE(?, volume_24h),
		last_indexed = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, nullFloat(tvl), nullFloat(volume), indexedAt.Unix(), s.now().Unix(), dappID)
	if err != nil {
		return fmt.Errorf("update metrics %s: %w", dappID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type dappRow struct {
	d           models.DApp
	addrs       string
	tvl, volume sql.NullFloat64
	lastIndexed sql.NullInt64
}

func (r *dappRow) dest() []any {
	return []any{&r.d.ID, &r.d.Name, &r.d.Category, &r.d.Description, &r.addrs, &r.d.WebsiteURL,
		&r.d.APIEndpoint, &r.tvl, &r.volume, &r.d.IsActive, &r.lastIndexed}
}

func (r *dappRow) finish() (models.DApp, error) {
	d := r.d
	if r.addrs != "" {
		if err := json.Unmarshal([]byte(r.addrs), &d.ContractAddresses); err != nil {
			return d, fmt.Errorf("decode contract addresses of %s: %w", d.ID, err)
		}
	}
	if r.tvl.Valid {
		v := r.tvl.Float64
		d.TVL = &v
	}
	if r.volume.Valid {
		v := r.volume.Float64
		d.Volume24h = &v
	}
	if r.lastIndexed.Valid {
		t := time.Unix(r.lastIndexed.Int64, 0).UTC()
		d.LastIndexed = &t
	}
	return d, nil
}

type interfaceRow struct {
	i                       models.DAppInterface
	input, output, contract string
}

func (r *interfaceRow) dest() []any {
	return []any{&r.i.ID, &r.i.DAppID, &r.i.ActionType, &r.input, &r.output, &r.contract, &r.i.ExampleUsage}
}

func (r *interfaceRow) finish() models.DAppInterface {
	i := r.i
	i.InputSchema = json.RawMessage(r.input)
	i.OutputSchema = json.RawMessage(r.output)
	if r.contract != "" && r.contract != "{}" {
		i.ContractInterface = json.RawMessage(r.contract)
	}
	return i
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func rawOrEmpty(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
