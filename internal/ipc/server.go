package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"resonate/internal/daemon"
	"resonate/internal/identity"
	"resonate/internal/logging"
	"resonate/internal/market"
)

// Server exposes ledger operations via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Resonate", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

// rpcError flattens a settlement failure into an RPC-transportable error
// whose message leads with the stable taxonomy code.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	if code := market.Code(err); code != "" {
		return fmt.Errorf("%s: %s", code, err.Error())
	}
	return err
}

// authorize validates the caller and returns a request context carrying the
// actor and a fresh request id for downstream logging.
func (s *service) authorize(auth Auth) (context.Context, error) {
	if s.daemon.Stopping() {
		return nil, errors.New("daemon is stopping")
	}
	if err := s.daemon.Authorize(auth.Token); err != nil {
		return nil, err
	}
	if auth.Actor == "" {
		return nil, errors.New("caller identity is required")
	}
	ctx := identity.WithActor(s.ctx, market.Identity(auth.Actor))
	ctx = identity.WithRequestID(ctx, identity.NewRequestID())
	return ctx, nil
}

func (s *service) TrackCreate(req TrackCreateRequest, resp *TrackCreateResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	listing, err := s.daemon.Service().CreateTrack(ctx, market.Identity(req.Actor), market.TrackSpec{
		Name:        req.Name,
		Description: req.Description,
		Genre:       req.Genre,
		StatusNote:  req.StatusNote,
		Price:       req.Price,
	})
	if err != nil {
		return rpcError(err)
	}
	resp.Listing = *listing
	return nil
}

func (s *service) TrackList(req TrackListRequest, resp *TrackListResponse) error {
	tracks, err := s.daemon.Service().ListTracks(s.ctx, req.States...)
	if err != nil {
		return rpcError(err)
	}
	resp.Tracks = tracks
	return nil
}

func (s *service) TrackDescribe(req TrackDescribeRequest, resp *TrackDescribeResponse) error {
	detail, err := s.daemon.Service().DescribeTrack(s.ctx, req.TrackID)
	if err != nil {
		return rpcError(err)
	}
	resp.Detail = *detail
	return nil
}

func (s *service) TrackUpdate(req TrackUpdateRequest, resp *TrackUpdateResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	svc := s.daemon.Service()
	actor := market.Identity(req.Actor)

	if req.Name != nil {
		var description string
		if req.Description != nil {
			description = *req.Description
		} else {
			// A name-only update must not touch the stored description.
			detail, err := svc.DescribeTrack(ctx, req.TrackID)
			if err != nil {
				return rpcError(err)
			}
			description = detail.Track.Description
		}
		track, err := svc.UpdateProfile(ctx, actor, req.TrackID, req.CapabilityID, *req.Name, description)
		if err != nil {
			return rpcError(err)
		}
		resp.Track = *track
	} else if req.Description != nil {
		track, err := svc.UpdateDescription(ctx, actor, req.TrackID, req.CapabilityID, *req.Description)
		if err != nil {
			return rpcError(err)
		}
		resp.Track = *track
	}
	if req.Genre != nil {
		track, err := svc.UpdateGenre(ctx, actor, req.TrackID, req.CapabilityID, *req.Genre)
		if err != nil {
			return rpcError(err)
		}
		resp.Track = *track
	}
	if req.StatusNote != nil {
		track, err := svc.UpdateStatusNote(ctx, actor, req.TrackID, req.CapabilityID, *req.StatusNote)
		if err != nil {
			return rpcError(err)
		}
		resp.Track = *track
	}
	if req.Price != nil {
		track, err := svc.UpdatePrice(ctx, actor, req.TrackID, req.CapabilityID, *req.Price)
		if err != nil {
			return rpcError(err)
		}
		resp.Track = *track
	}
	if resp.Track.ID == "" {
		return errors.New("no fields to update")
	}
	return nil
}

func (s *service) Transfer(req TransferRequest, resp *TransferResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	track, err := s.daemon.Service().TransferOwnership(ctx,
		market.Identity(req.Actor), req.TrackID, req.CapabilityID, market.Identity(req.NewOwner))
	if err != nil {
		return rpcError(err)
	}
	resp.Track = *track
	return nil
}

func (s *service) Bid(req BidRequest, resp *BidResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	claim, err := s.daemon.Service().FileBid(ctx, market.Identity(req.Actor), req.TrackID)
	if err != nil {
		return rpcError(err)
	}
	resp.Claim = *claim
	return nil
}

func (s *service) Accept(req ConfirmRequest, resp *ConfirmResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	track, err := s.daemon.Service().AcceptBid(ctx, market.Identity(req.Actor), req.TrackID, req.ClaimID)
	if err != nil {
		return rpcError(err)
	}
	resp.Track = *track
	return nil
}

func (s *service) MarkSold(req ConfirmRequest, resp *ConfirmResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	track, err := s.daemon.Service().MarkSold(ctx, market.Identity(req.Actor), req.TrackID, req.ClaimID)
	if err != nil {
		return rpcError(err)
	}
	resp.Track = *track
	return nil
}

func (s *service) Dispute(req DisputeRequest, resp *DisputeResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	track, err := s.daemon.Service().Dispute(ctx, market.Identity(req.Actor), req.TrackID)
	if err != nil {
		return rpcError(err)
	}
	resp.Track = *track
	return nil
}

func (s *service) Resolve(req ResolveRequest, resp *SettlementResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	settlement, err := s.daemon.Service().Resolve(ctx,
		market.Identity(req.Actor), req.TrackID, req.ClaimID, req.InFavorOfClient)
	if err != nil {
		return rpcError(err)
	}
	resp.Settlement = *settlement
	return nil
}

func (s *service) Refund(req RefundRequest, resp *SettlementResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	settlement, err := s.daemon.Service().PartialRefund(ctx,
		market.Identity(req.Actor), req.TrackID, req.ClaimID, req.Refund)
	if err != nil {
		return rpcError(err)
	}
	resp.Settlement = *settlement
	return nil
}

func (s *service) Release(req ReleaseRequest, resp *SettlementResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	settlement, err := s.daemon.Service().Release(ctx, market.Identity(req.Actor), req.TrackID, req.ClaimID)
	if err != nil {
		return rpcError(err)
	}
	resp.Settlement = *settlement
	return nil
}

func (s *service) Deposit(req DepositRequest, resp *DepositResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	track, err := s.daemon.Service().Deposit(ctx, market.Identity(req.Actor), req.TrackID, req.Amount)
	if err != nil {
		return rpcError(err)
	}
	resp.Track = *track
	return nil
}

func (s *service) Withdraw(req WithdrawRequest, resp *SettlementResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	settlement, err := s.daemon.Service().Withdraw(ctx,
		market.Identity(req.Actor), req.TrackID, req.CapabilityID, req.Amount)
	if err != nil {
		return rpcError(err)
	}
	resp.Settlement = *settlement
	return nil
}

func (s *service) Rate(req RateRequest, resp *RateResponse) error {
	ctx, err := s.authorize(req.Auth)
	if err != nil {
		return err
	}
	track, err := s.daemon.Service().Rate(ctx, market.Identity(req.Actor), req.TrackID, req.ClaimID, req.Rating)
	if err != nil {
		return rpcError(err)
	}
	resp.Track = *track
	return nil
}

func (s *service) Account(req AccountRequest, resp *AccountResponse) error {
	balance, err := s.daemon.Service().AccountBalance(s.ctx, market.Identity(req.Identity))
	if err != nil {
		return rpcError(err)
	}
	resp.Identity = req.Identity
	resp.Balance = balance
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.DatabasePath = status.DatabasePath
	resp.LockPath = status.LockFilePath
	resp.SocketPath = status.SocketPath
	resp.Total = status.Ledger.Total
	resp.Open = status.Ledger.Open
	resp.Sold = status.Ledger.Sold
	resp.Disputed = status.Ledger.Disputed
	resp.Balanced = status.Balanced
	return nil
}

func (s *service) Health(_ HealthRequest, resp *HealthResponse) error {
	health, err := s.daemon.Service().Health(s.ctx)
	if err != nil {
		return rpcError(err)
	}
	resp.Health = *health
	return nil
}

func (s *service) Stop(req StopRequest, resp *StopResponse) error {
	if err := s.daemon.Authorize(req.Token); err != nil {
		return err
	}
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}
