package txn

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dbmanager"
	"github.com/tansive/polycatalog/pkg/types"
)

// LocalHandler runs a single-phase transaction. It is used for work that is
// not bound to a global transaction, such as bootstrap and registry lookups.
type LocalHandler struct {
	handler
	conn dbmanager.Conn
	pool *LocalPool
}

// Xid is always the zero Xid: local transactions are not part of a global transaction.
func (h *LocalHandler) Xid() types.Xid {
	return types.Xid{}
}

// Prepare always votes no. Local transactions cannot take part in two-phase commit.
func (h *LocalHandler) Prepare(ctx context.Context) (bool, error) {
	return false, dberror.ErrNotTwoPhase
}

func (h *LocalHandler) Commit(ctx context.Context) error {
	return h.end(ctx, h.conn.Commit)
}

func (h *LocalHandler) Rollback(ctx context.Context) error {
	return h.end(ctx, h.conn.Rollback)
}

func (h *LocalHandler) end(ctx context.Context, op func(context.Context) error) error {
	if err := h.checkActive(); err != nil {
		return err
	}
	defer h.pool.release(ctx, h)
	if err := op(ctx); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to end local transaction")
		// leave the connection outside of any transaction before it is reused
		if rbErr := h.conn.Rollback(ctx); rbErr != nil {
			log.Ctx(ctx).Debug().Err(rbErr).Msg("rollback after failed end")
		}
		return err
	}
	return nil
}

// LocalPool recycles local handlers and their connections.
type LocalPool struct {
	connector   dbmanager.Connector
	free        freeList[*LocalHandler]
	active      atomic.Int64
	opened      atomic.Uint64
	closedConns atomic.Uint64
	closed      atomic.Bool
}

func NewLocalPool(connector dbmanager.Connector, maxIdle int) *LocalPool {
	p := &LocalPool{
		connector: connector,
	}
	p.free.max = maxIdle
	return p
}

// Get returns a handler with a started local transaction.
func (p *LocalPool) Get(ctx context.Context) (*LocalHandler, error) {
	if p.closed.Load() {
		return nil, dberror.ErrPoolClosed
	}
	h, ok := p.free.pop()
	if !ok {
		conn, err := p.connector.Conn(ctx)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("unable to open connection for local transaction")
			return nil, err
		}
		p.opened.Add(1)
		h = &LocalHandler{
			handler: handler{
				dialect: p.connector.Dialect(),
				sqlConn: conn.Conn(),
			},
			conn: conn,
			pool: p,
		}
	}
	if err := h.conn.Begin(ctx); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to begin local transaction")
		p.discard(ctx, h)
		return nil, err
	}
	h.state = StateActive
	p.active.Add(1)
	return h, nil
}

func (p *LocalPool) release(ctx context.Context, h *LocalHandler) {
	h.closeCursors(ctx)
	h.state = StatePooled
	p.active.Add(-1)
	if p.closed.Load() || !p.free.push(h) {
		p.discard(ctx, h)
	}
}

func (p *LocalPool) discard(ctx context.Context, h *LocalHandler) {
	h.conn.Close(ctx)
	p.closedConns.Add(1)
}

// Close closes the idle handlers. Handlers still in use are closed when released.
func (p *LocalPool) Close(ctx context.Context) {
	p.closed.Store(true)
	for _, h := range p.free.drain() {
		p.discard(ctx, h)
	}
}

func (p *LocalPool) Stats() PoolStats {
	return PoolStats{
		Active: int(p.active.Load()),
		Idle:   p.free.len(),
		Opened: p.opened.Load(),
		Closed: p.closedConns.Load(),
	}
}
