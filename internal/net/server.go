package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"gungnir/internal/common"
	"gungnir/internal/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	MAX_RECV_SIZE      = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession contains relevant information pertaining to an individual
// connected TCP session.
type ClientSession struct {
	token string
	conn  net.Conn
}

// ClientMessage links a message to the client sending it.
type ClientMessage struct {
	clientAddress string
	message       Message
}

// Engine is the interface that provides access to order handling. All calls
// are made from the single session-handler goroutine, which is what keeps
// the matching core single-threaded.
type Engine interface {
	Submit(order common.Order) common.Outcome
	Cancel(id common.OrderID) bool
	Modify(id common.OrderID, newPrice common.Price, newVolume common.Volume) bool
	LogBook()
}

type Server struct {
	address            string
	port               int
	connTimeout        time.Duration
	engine             Engine
	pool               utils.WorkerPool
	cancel             context.CancelFunc
	clientSessions     map[string]ClientSession
	owners             map[string]string // owner username -> client address
	clientSessionsLock sync.Mutex
	clientMessages     chan (ClientMessage)
}

func New(address string, port int, engine Engine) *Server {
	return &Server{
		address:        address,
		port:           port,
		connTimeout:    defaultConnTimeout,
		engine:         engine,
		pool:           utils.NewWorkerPool(defaultNWorkers),
		clientSessions: make(map[string]ClientSession),
		owners:         make(map[string]string),
		clientMessages: make(chan ClientMessage, 1),
	}
}

// SetWorkers overrides the connection worker count before Run.
func (s *Server) SetWorkers(n int) {
	if n > 0 {
		s.pool = utils.NewWorkerPool(n)
	}
}

// SetConnTimeout overrides the per-read connection deadline before Run.
func (s *Server) SetConnTimeout(d time.Duration) {
	if d > 0 {
		s.connTimeout = d
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	s.cancel()
}

func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	// Setup a cancel on the context for future shutdown.
	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	// Start a tcp listener.
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	// Start the worker pool.
	s.pool.Setup(t, s.handleConnection)

	// Start the session handler.
	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", s.address).Int("port", s.port).Msg("server running")

	// Start accepting connections.
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}

			// Add the client to client sessions we are tracking.
			// We expect to potentially maintain a long TCP session.
			token := s.addClientSession(conn)
			log.Info().
				Str("address", conn.RemoteAddr().String()).
				Str("session", token).
				Msg("new client added")

			// Pass over the connection to be read from.
			s.pool.AddTask(conn)
		}
	}
}

// ReportTrade implements engine.Reporter. Both parties get an execution
// report; a party that is no longer connected is skipped.
func (s *Server) ReportTrade(trade common.Trade, err error) error {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	takerReport, makerReport := generateWireTradeReports(trade, err)
	s.sendToOwner(trade.Taker.Owner, takerReport)
	s.sendToOwner(trade.Maker.Owner, makerReport)
	return nil
}

// sendToOwner writes a report to the session bound to an owner username.
// Callers hold clientSessionsLock.
func (s *Server) sendToOwner(owner string, report []byte) {
	address, ok := s.owners[owner]
	if !ok {
		log.Debug().Str("owner", owner).Msg("no session bound for owner")
		return
	}
	client, ok := s.clientSessions[address]
	if !ok {
		delete(s.owners, owner)
		return
	}
	if _, err := client.conn.Write(report); err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("unable to send report")
		delete(s.clientSessions, address)
		delete(s.owners, owner)
	}
}

func (s *Server) reportToClient(clientAddress string, report []byte) error {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	client, ok := s.clientSessions[clientAddress]
	if !ok {
		return ErrClientDoesNotExist
	}

	if _, err := client.conn.Write(report); err != nil {
		delete(s.clientSessions, clientAddress)
		return fmt.Errorf("unable to send report: %w", err)
	}
	return nil
}

func (s *Server) ReportError(clientAddress string, err error) error {
	return s.reportToClient(clientAddress, generateWireErrorReport(err))
}

// sessionHandler reads off incoming messages from clients and handles
// high-level session logic. Messages are received from the pool of workers.
// This is the only goroutine that touches the engine.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case message := <-s.clientMessages:
			if err := s.handleMessage(message); err != nil {
				log.Error().
					Err(err).
					Str("clientAddress", message.clientAddress).
					Msg("error handling message")
				// Log the error back to the client.
				s.ReportError(message.clientAddress, err)
			}
		}
	}
}

func (s *Server) handleMessage(message ClientMessage) error {
	switch message.message.GetType() {
	case NewOrder:
		order, ok := message.message.(NewOrderMessage)
		if !ok {
			return ErrImproperConversion
		}
		s.bindOwner(order.Username, message.clientAddress)
		incoming := order.Order()
		outcome := s.engine.Submit(incoming)
		return s.reportToClient(
			message.clientAddress,
			generateWireOutcomeReport(incoming, outcome),
		)

	case CancelOrder:
		cancel, ok := message.message.(CancelOrderMessage)
		if !ok {
			return ErrImproperConversion
		}
		cancelled := s.engine.Cancel(cancel.OrderID)
		return s.reportToClient(
			message.clientAddress,
			generateWireAckReport(CancelReport, cancel.OrderID, cancelled),
		)

	case ModifyOrder:
		modify, ok := message.message.(ModifyOrderMessage)
		if !ok {
			return ErrImproperConversion
		}
		modified := s.engine.Modify(modify.OrderID, modify.NewPrice, modify.NewVolume)
		return s.reportToClient(
			message.clientAddress,
			generateWireAckReport(ModifyReport, modify.OrderID, modified),
		)

	case LogBook:
		s.engine.LogBook()
		return nil

	case Heartbeat:
		return nil

	default:
		log.Error().
			Int("messageType", int(message.message.GetType())).
			Msg("invalid message type")
		return ErrInvalidMessageType
	}
}

// handleConnection is a short-lived worker method which reads the next
// message off the connection, parses it and passes it forward to
// sessionHandler. If the connection dies, the client session is cleaned up.
// Note, any error returned from here is fatal.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(s.connTimeout)); err != nil {
		log.Error().
			Str("address", conn.RemoteAddr().String()).
			Err(err).
			Msg("failed setting deadline for connection")
		return nil
	}

	buffer := make([]byte, MAX_RECV_SIZE)
	select {
	case <-t.Dying():
		conn.Close()
		return nil
	default:
		n, err := conn.Read(buffer)
		if err != nil {
			// If a read from a client fails, it is likely that the
			// client has exited. Clean up the client session.
			log.Debug().
				Err(err).
				Str("address", conn.RemoteAddr().String()).
				Msg("dropping connection")
			s.deleteClientSession(conn.RemoteAddr().String())
			conn.Close()
			return nil
		}

		message, err := parseMessage(buffer[:n])
		if err != nil {
			log.Error().
				Err(err).
				Str("address", conn.RemoteAddr().String()).
				Msg("error parsing message")
			s.ReportError(conn.RemoteAddr().String(), err)
		} else {
			// Pass over to the message handling buffer.
			s.clientMessages <- ClientMessage{
				message:       message,
				clientAddress: conn.RemoteAddr().String(),
			}
		}

		// Push the client connection back to handle the next message.
		s.pool.AddTask(conn)
	}
	return nil
}

// bindOwner remembers which session an owner username submits from, so
// execution reports can be routed back later.
func (s *Server) bindOwner(owner, clientAddress string) {
	if owner == "" {
		return
	}
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()
	s.owners[owner] = clientAddress
}

// addClientSession is an atomic map add. Returns the session token.
func (s *Server) addClientSession(conn net.Conn) string {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	token := uuid.New().String()
	s.clientSessions[conn.RemoteAddr().String()] = ClientSession{
		token: token,
		conn:  conn,
	}
	return token
}

// deleteClientSession is an atomic map remove.
func (s *Server) deleteClientSession(address string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	delete(s.clientSessions, address)
}
