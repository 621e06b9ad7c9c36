package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

var (
	_ repository.StockRepository        = (*FabricRepo)(nil)
	_ repository.StockRepository        = (*AccessoryRepo)(nil)
	_ repository.StockRepository        = (*PrintedBatchRepo)(nil)
	_ repository.PrintedBatchRepository = (*PrintedBatchRepo)(nil)
)

// NewStockRegistry arma el registro kind -> repositorio sobre q (pool o tx).
func NewStockRegistry(q Querier) repository.StockRegistry {
	return repository.StockRegistry{
		entity.KindFabric:    NewFabricRepository(q),
		entity.KindAccessory: NewAccessoryRepository(q),
		entity.KindPrinted:   NewPrintedBatchRepository(q),
	}
}

// stockUnavailable: la columna de stock es NULL (filas legadas); no hay cantidad canónica que leer.
func stockUnavailable(kind entity.EntityKind, id int64) error {
	return fmt.Errorf("%w: %s #%d", domain.ErrStockFieldUnavailable, kind, id)
}

// collect recorre rows aplicando scan y cierra el cursor.
func collect(rows pgx.Rows, scan func(pgx.Row) (entity.StockBearing, error)) ([]entity.StockBearing, error) {
	defer rows.Close()
	var out []entity.StockBearing
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func byID(items []entity.StockBearing) map[int64]entity.StockBearing {
	m := make(map[int64]entity.StockBearing, len(items))
	for _, it := range items {
		m[it.Ref().ID] = it
	}
	return m
}

// ── Fabric ──────────────────────────────────────────────────────────────────

// FabricRepo implementación de StockRepository para telas (stock en metros).
type FabricRepo struct {
	q Querier
}

// NewFabricRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFabricRepository(q Querier) *FabricRepo {
	return &FabricRepo{q: q}
}

const fabricColumns = `
	id, item_name, COALESCE(quality, ''), COALESCE(base_color, ''), COALESCE(type, ''),
	COALESCE(width, 0), COALESCE(use_in, ''), stock_in_mtrs, cost_per_unit,
	COALESCE(vendor_id, 0), created_at, updated_at`

func (r *FabricRepo) Kind() entity.EntityKind { return entity.KindFabric }

func scanFabric(row pgx.Row) (entity.StockBearing, error) {
	var f entity.Fabric
	var qty decimal.NullDecimal
	if err := row.Scan(
		&f.ID, &f.ItemName, &f.Quality, &f.BaseColor, &f.Type,
		&f.Width, &f.UseIn, &qty, &f.CostPerUnit,
		&f.VendorID, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if !qty.Valid {
		return nil, stockUnavailable(entity.KindFabric, f.ID)
	}
	return entity.NewFabric(f, qty.Decimal)
}

// LockForUpdate bloquea las telas pedidas (SELECT ... ORDER BY id FOR UPDATE).
func (r *FabricRepo) LockForUpdate(ctx context.Context, ids []int64) (map[int64]entity.StockBearing, error) {
	query := `SELECT ` + fabricColumns + ` FROM fabrics WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, wrapErr("lock fabrics", err)
	}
	items, err := collect(rows, scanFabric)
	if err != nil {
		return nil, wrapErr("lock fabrics", err)
	}
	return byID(items), nil
}

// SaveQuantity persiste el stock en metros.
func (r *FabricRepo) SaveQuantity(ctx context.Context, item entity.StockBearing) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE fabrics SET stock_in_mtrs = $2, updated_at = now() WHERE id = $1`,
		item.Ref().ID, item.Quantity())
	if err != nil {
		return wrapErr("save fabric stock", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.EntityNotFoundError{Kind: string(entity.KindFabric), ID: item.Ref().ID}
	}
	return nil
}

// GetByID obtiene una tela sin bloquearla.
func (r *FabricRepo) GetByID(ctx context.Context, id int64) (entity.StockBearing, error) {
	item, err := scanFabric(r.q.QueryRow(ctx, `SELECT `+fabricColumns+` FROM fabrics WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.EntityNotFoundError{Kind: string(entity.KindFabric), ID: id}
		}
		return nil, wrapErr("get fabric", err)
	}
	return item, nil
}

// ListBelow telas con stock menor al umbral.
func (r *FabricRepo) ListBelow(ctx context.Context, threshold decimal.Decimal) ([]entity.StockBearing, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+fabricColumns+` FROM fabrics WHERE stock_in_mtrs < $1 ORDER BY stock_in_mtrs, id`, threshold)
	if err != nil {
		return nil, wrapErr("list low fabrics", err)
	}
	items, err := collect(rows, scanFabric)
	if err != nil {
		return nil, wrapErr("list low fabrics", err)
	}
	return items, nil
}

// ── Accessory ───────────────────────────────────────────────────────────────

// AccessoryRepo implementación de StockRepository para accesorios (stock en unidades).
type AccessoryRepo struct {
	q Querier
}

// NewAccessoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAccessoryRepository(q Querier) *AccessoryRepo {
	return &AccessoryRepo{q: q}
}

const accessoryColumns = `
	id, item_name, COALESCE(quality, ''), COALESCE(quality_text, ''), COALESCE(base_color, ''),
	COALESCE(item_type, ''), COALESCE(use_in, ''), stock, cost_per_unit,
	COALESCE(vendor_id, 0), created_at, updated_at`

func (r *AccessoryRepo) Kind() entity.EntityKind { return entity.KindAccessory }

func scanAccessory(row pgx.Row) (entity.StockBearing, error) {
	var a entity.Accessory
	var qty decimal.NullDecimal
	if err := row.Scan(
		&a.ID, &a.ItemName, &a.Quality, &a.QualityText, &a.BaseColor,
		&a.ItemType, &a.UseIn, &qty, &a.CostPerUnit,
		&a.VendorID, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if !qty.Valid {
		return nil, stockUnavailable(entity.KindAccessory, a.ID)
	}
	return entity.NewAccessory(a, qty.Decimal)
}

// LockForUpdate bloquea los accesorios pedidos.
func (r *AccessoryRepo) LockForUpdate(ctx context.Context, ids []int64) (map[int64]entity.StockBearing, error) {
	query := `SELECT ` + accessoryColumns + ` FROM accessories WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, wrapErr("lock accessories", err)
	}
	items, err := collect(rows, scanAccessory)
	if err != nil {
		return nil, wrapErr("lock accessories", err)
	}
	return byID(items), nil
}

// SaveQuantity persiste el stock en unidades.
func (r *AccessoryRepo) SaveQuantity(ctx context.Context, item entity.StockBearing) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE accessories SET stock = $2, updated_at = now() WHERE id = $1`,
		item.Ref().ID, item.Quantity())
	if err != nil {
		return wrapErr("save accessory stock", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.EntityNotFoundError{Kind: string(entity.KindAccessory), ID: item.Ref().ID}
	}
	return nil
}

// GetByID obtiene un accesorio sin bloquearlo.
func (r *AccessoryRepo) GetByID(ctx context.Context, id int64) (entity.StockBearing, error) {
	item, err := scanAccessory(r.q.QueryRow(ctx, `SELECT `+accessoryColumns+` FROM accessories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.EntityNotFoundError{Kind: string(entity.KindAccessory), ID: id}
		}
		return nil, wrapErr("get accessory", err)
	}
	return item, nil
}

// ListBelow accesorios con stock menor al umbral.
func (r *AccessoryRepo) ListBelow(ctx context.Context, threshold decimal.Decimal) ([]entity.StockBearing, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+accessoryColumns+` FROM accessories WHERE stock < $1 ORDER BY stock, id`, threshold)
	if err != nil {
		return nil, wrapErr("list low accessories", err)
	}
	items, err := collect(rows, scanAccessory)
	if err != nil {
		return nil, wrapErr("list low accessories", err)
	}
	return items, nil
}

// ── PrintedBatch ────────────────────────────────────────────────────────────

// PrintedBatchRepo implementación de StockRepository y PrintedBatchRepository para tela estampada.
type PrintedBatchRepo struct {
	q Querier
}

// NewPrintedBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPrintedBatchRepository(q Querier) *PrintedBatchRepo {
	return &PrintedBatchRepo{q: q}
}

// FabricCost sale de la tela origen (solo lectura); FOR UPDATE OF p bloquea únicamente el lote.
const printedColumns = `
	p.id, p.product, p.fabric_id, COALESCE(p.base_color, ''), COALESCE(p.product_type, ''),
	COALESCE(p.width, 0), COALESCE(p.use_in, ''), COALESCE(p.quality, ''), p.unit,
	p.quantity_used, p.stock, p.cost_per_unit, p.rate, COALESCE(f.cost_per_unit, 0),
	COALESCE(p.vendor_id, 0), COALESCE(p.transaction_id::text, ''), p.created_at, p.updated_at`

const printedFrom = ` FROM printed_batches p LEFT JOIN fabrics f ON f.id = p.fabric_id`

func (r *PrintedBatchRepo) Kind() entity.EntityKind { return entity.KindPrinted }

func scanPrinted(row pgx.Row) (entity.StockBearing, error) {
	var p entity.PrintedBatch
	var qty decimal.NullDecimal
	if err := row.Scan(
		&p.ID, &p.Product, &p.FabricID, &p.BaseColor, &p.ProductType,
		&p.Width, &p.UseIn, &p.Quality, &p.Unit,
		&p.QuantityUsed, &qty, &p.CostPerUnit, &p.Rate, &p.FabricCost,
		&p.VendorID, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if !qty.Valid {
		return nil, stockUnavailable(entity.KindPrinted, p.ID)
	}
	return entity.NewPrintedBatch(p, qty.Decimal)
}

// LockForUpdate bloquea los lotes pedidos (no la tela origen).
func (r *PrintedBatchRepo) LockForUpdate(ctx context.Context, ids []int64) (map[int64]entity.StockBearing, error) {
	query := `SELECT ` + printedColumns + printedFrom + ` WHERE p.id = ANY($1) ORDER BY p.id FOR UPDATE OF p`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, wrapErr("lock printed batches", err)
	}
	items, err := collect(rows, scanPrinted)
	if err != nil {
		return nil, wrapErr("lock printed batches", err)
	}
	return byID(items), nil
}

// SaveQuantity persiste el stock del lote.
func (r *PrintedBatchRepo) SaveQuantity(ctx context.Context, item entity.StockBearing) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE printed_batches SET stock = $2, updated_at = now() WHERE id = $1`,
		item.Ref().ID, item.Quantity())
	if err != nil {
		return wrapErr("save printed stock", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.EntityNotFoundError{Kind: string(entity.KindPrinted), ID: item.Ref().ID}
	}
	return nil
}

// GetByID obtiene un lote sin bloquearlo.
func (r *PrintedBatchRepo) GetByID(ctx context.Context, id int64) (entity.StockBearing, error) {
	item, err := scanPrinted(r.q.QueryRow(ctx, `SELECT `+printedColumns+printedFrom+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.EntityNotFoundError{Kind: string(entity.KindPrinted), ID: id}
		}
		return nil, wrapErr("get printed batch", err)
	}
	return item, nil
}

// ListBelow lotes con stock menor al umbral.
func (r *PrintedBatchRepo) ListBelow(ctx context.Context, threshold decimal.Decimal) ([]entity.StockBearing, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+printedColumns+printedFrom+` WHERE p.stock < $1 ORDER BY p.stock, p.id`, threshold)
	if err != nil {
		return nil, wrapErr("list low printed batches", err)
	}
	items, err := collect(rows, scanPrinted)
	if err != nil {
		return nil, wrapErr("list low printed batches", err)
	}
	return items, nil
}

// Create inserta un lote estampado nuevo y asigna su ID.
func (r *PrintedBatchRepo) Create(ctx context.Context, b *entity.PrintedBatch) error {
	query := `
		INSERT INTO printed_batches (product, fabric_id, base_color, product_type, width, use_in, quality, unit,
			quantity_used, stock, cost_per_unit, rate, vendor_id, transaction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13::bigint, 0), NULLIF($14::text, '')::uuid, $15, $16)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		b.Product, b.FabricID, b.BaseColor, b.ProductType, b.Width, b.UseIn, b.Quality, b.Unit,
		b.QuantityUsed, b.Quantity(), b.CostPerUnit, b.Rate, b.VendorID, b.TransactionID, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		return wrapErr("create printed batch", err)
	}
	return nil
}

// Delete elimina el lote.
func (r *PrintedBatchRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM printed_batches WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete printed batch", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.EntityNotFoundError{Kind: string(entity.KindPrinted), ID: id}
	}
	return nil
}
