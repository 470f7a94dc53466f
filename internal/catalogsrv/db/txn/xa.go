package txn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dbmanager"
	"github.com/tansive/polycatalog/pkg/types"
)

// XaHandler is the participant of one global transaction branch.
type XaHandler struct {
	handler
	conn dbmanager.XAConn
	pool *XaPool
	xid  types.Xid
}

func (h *XaHandler) Xid() types.Xid {
	return h.xid
}

// Prepare ends the branch association and asks the resource manager to
// prepare. It reports whether the resource manager voted OK.
func (h *XaHandler) Prepare(ctx context.Context) (bool, error) {
	if err := h.checkActive(); err != nil {
		return false, err
	}
	if err := h.conn.End(ctx, h.xid); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("xid", h.xid.String()).Msg("failed to end branch")
		return false, err
	}
	ok, err := h.conn.Prepare(ctx, h.xid)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("xid", h.xid.String()).Msg("failed to prepare branch")
		return false, err
	}
	if !ok {
		log.Ctx(ctx).Warn().Str("xid", h.xid.String()).Msg("resource manager voted to roll back")
		return false, nil
	}
	h.state = StatePrepared
	return true, nil
}

// Commit commits the branch, in one phase if it was never prepared. The
// handler goes back to the pool whether or not the commit succeeds.
func (h *XaHandler) Commit(ctx context.Context) error {
	if h.state != StateActive && h.state != StatePrepared {
		return dberror.ErrHandlerState.Msg("commit on a " + h.state.String() + " transaction handler")
	}
	defer h.pool.finish(ctx, h)
	onePhase := h.state != StatePrepared
	if err := h.conn.CommitXA(ctx, h.xid, onePhase); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("xid", h.xid.String()).Bool("one_phase", onePhase).Msg("failed to commit branch")
		h.abandon(ctx)
		return err
	}
	return nil
}

// Rollback rolls back the branch. The handler goes back to the pool whether or
// not the rollback succeeds.
func (h *XaHandler) Rollback(ctx context.Context) error {
	if h.state != StateActive && h.state != StatePrepared {
		return dberror.ErrHandlerState.Msg("rollback on a " + h.state.String() + " transaction handler")
	}
	defer h.pool.finish(ctx, h)
	if err := h.conn.RollbackXA(ctx, h.xid); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("xid", h.xid.String()).Msg("failed to roll back branch")
		h.abandon(ctx)
		return err
	}
	return nil
}

// abandon makes sure a connection whose branch failed to end is not left
// inside a transaction when it is reused.
func (h *XaHandler) abandon(ctx context.Context) {
	if err := h.conn.Rollback(ctx); err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("rollback after failed branch end")
	}
}

type activeEntry struct {
	ready chan struct{}
	h     *XaHandler
	err   error
}

// XaPool keeps the handlers bound to active transactions, keyed by Xid, and a
// free list of idle handlers whose connections are reused for new branches.
type XaPool struct {
	connector   dbmanager.Connector
	active      sync.Map
	free        freeList[*XaHandler]
	opened      atomic.Uint64
	closedConns atomic.Uint64
	closed      atomic.Bool
}

func NewXaPool(connector dbmanager.Connector, maxIdle int) *XaPool {
	p := &XaPool{
		connector: connector,
	}
	p.free.max = maxIdle
	return p
}

// GetOrCreate returns the handler bound to xid, starting a new branch on a
// pooled handler if there is none. Concurrent first calls for the same xid
// start a single branch and all receive the same handler.
func (p *XaPool) GetOrCreate(ctx context.Context, xid types.Xid) (*XaHandler, error) {
	for {
		if h, ok, err := p.lookup(xid); ok {
			return h, err
		}
		h, err := p.Begin(ctx, xid)
		if errors.Is(err, dberror.ErrBranchExists) {
			// another caller registered the xid first
			continue
		}
		return h, err
	}
}

// Get returns the handler bound to xid, if any.
func (p *XaPool) Get(xid types.Xid) (*XaHandler, bool) {
	h, ok, err := p.lookup(xid)
	if !ok || err != nil {
		return nil, false
	}
	return h, true
}

func (p *XaPool) lookup(xid types.Xid) (*XaHandler, bool, error) {
	v, ok := p.active.Load(xid)
	if !ok {
		return nil, false, nil
	}
	e := v.(*activeEntry)
	<-e.ready
	if e.err != nil {
		return nil, true, e.err
	}
	return e.h, true, nil
}

// Begin starts a new branch for xid. It fails if xid already has a handler.
func (p *XaPool) Begin(ctx context.Context, xid types.Xid) (*XaHandler, error) {
	if p.closed.Load() {
		return nil, dberror.ErrPoolClosed
	}
	e := &activeEntry{ready: make(chan struct{})}
	if _, loaded := p.active.LoadOrStore(xid, e); loaded {
		log.Ctx(ctx).Debug().Str("xid", xid.String()).Msg("xid already has a transaction handler")
		return nil, dberror.ErrBranchExists
	}
	h, err := p.borrow(ctx)
	if err == nil {
		if err = h.conn.Start(ctx, xid); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("xid", xid.String()).Msg("failed to start branch")
			p.discard(ctx, h)
		}
	}
	if err != nil {
		e.err = err
		p.active.Delete(xid)
		close(e.ready)
		return nil, err
	}
	h.xid = xid
	h.state = StateActive
	e.h = h
	close(e.ready)
	return h, nil
}

func (p *XaPool) borrow(ctx context.Context) (*XaHandler, error) {
	if h, ok := p.free.pop(); ok {
		return h, nil
	}
	conn, err := p.connector.XAConn(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to open connection for transaction branch")
		return nil, err
	}
	p.opened.Add(1)
	return &XaHandler{
		handler: handler{
			dialect: p.connector.Dialect(),
			sqlConn: conn.Conn(),
		},
		conn: conn,
		pool: p,
	}, nil
}

// finish runs on every exit of commit and rollback.
func (p *XaPool) finish(ctx context.Context, h *XaHandler) {
	h.closeCursors(ctx)
	p.active.Delete(h.xid)
	h.xid = types.Xid{}
	h.state = StatePooled
	if p.closed.Load() || !p.free.push(h) {
		p.discard(ctx, h)
	}
}

func (p *XaPool) discard(ctx context.Context, h *XaHandler) {
	h.conn.Close(ctx)
	p.closedConns.Add(1)
}

// IsIdle reports whether h is in the free list.
func (p *XaPool) IsIdle(h *XaHandler) bool {
	return p.free.contains(func(v *XaHandler) bool { return v == h })
}

// Close rolls back every active branch and closes all connections.
func (p *XaPool) Close(ctx context.Context) {
	p.closed.Store(true)
	p.active.Range(func(k, v any) bool {
		e := v.(*activeEntry)
		<-e.ready
		if e.err == nil {
			log.Ctx(ctx).Warn().Str("xid", e.h.xid.String()).Msg("rolling back active branch at shutdown")
			if err := e.h.Rollback(ctx); err != nil {
				log.Ctx(ctx).Error().Err(err).Msg("failed to roll back branch at shutdown")
			}
		}
		return true
	})
	for _, h := range p.free.drain() {
		p.discard(ctx, h)
	}
}

func (p *XaPool) Stats() PoolStats {
	active := 0
	p.active.Range(func(k, v any) bool {
		active++
		return true
	})
	return PoolStats{
		Active: active,
		Idle:   p.free.len(),
		Opened: p.opened.Load(),
		Closed: p.closedConns.Load(),
	}
}
