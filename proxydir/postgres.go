package proxydir

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pricelens/stparts-scraper/models"
)

// Postgres reads proxies from the shared proxy_list table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the proxy database.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect proxy database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// ListAvailable fetches proxies currently marked available, optionally
// restricted to one proxy type.
func (p *Postgres) ListAvailable(ctx context.Context, typeFilter models.ProxyType) ([]models.Proxy, error) {
	query := "SELECT ip, port, username, password, proxy_type FROM proxy_list WHERE availability = TRUE"
	args := []any{}
	if typeFilter != "" {
		query += " AND proxy_type = $1"
		args = append(args, string(typeFilter))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query proxy_list: %w", err)
	}
	defer rows.Close()

	var proxies []models.Proxy
	for rows.Next() {
		var proxy models.Proxy
		var proxyType string
		if err := rows.Scan(&proxy.Address, &proxy.Port, &proxy.Username, &proxy.Password, &proxyType); err != nil {
			return nil, fmt.Errorf("scan proxy_list row: %w", err)
		}
		proxy.Type = models.ProxyType(proxyType)
		proxies = append(proxies, proxy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read proxy_list rows: %w", err)
	}
	return proxies, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
