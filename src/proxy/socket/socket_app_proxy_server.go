package socket

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"

	"github.com/mosaicnetworks/sourcechain/src/proxy"
	"github.com/mosaicnetworks/sourcechain/src/validation"
	"github.com/sirupsen/logrus"
)

// SocketAppProxyServer is the engine side of the socket proxy. It serves the
// validation rules of a ValidationHandler to SocketAppProxyClients.
type SocketAppProxyServer struct {
	netListener net.Listener
	rpcServer   *rpc.Server
	handler     proxy.ValidationHandler
	logger      *logrus.Entry
}

// NewSocketAppProxyServer creates a new SocketAppProxyServer and starts
// accepting connections.
func NewSocketAppProxyServer(bindAddress string, handler proxy.ValidationHandler, logger *logrus.Entry) (*SocketAppProxyServer, error) {
	server := &SocketAppProxyServer{
		handler: handler,
		logger:  logger,
	}

	if err := server.register(bindAddress); err != nil {
		return nil, err
	}

	go server.listen()

	return server, nil
}

func (p *SocketAppProxyServer) register(bindAddress string) error {
	rpcServer := rpc.NewServer()

	if err := rpcServer.RegisterName("Validator", p); err != nil {
		return err
	}

	p.rpcServer = rpcServer

	l, err := net.Listen("tcp", bindAddress)
	if err != nil {
		p.logger.WithField("error", err).Error("Failed to listen")
		return err
	}

	p.netListener = l

	return nil
}

func (p *SocketAppProxyServer) listen() {
	for {
		conn, err := p.netListener.Accept()
		if err != nil {
			p.logger.WithField("error", err).Debug("Stopped accepting")
			return
		}

		go p.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

// Validate is called over JSON-RPC by SocketAppProxyClient.
func (p *SocketAppProxyServer) Validate(req proxy.ValidateRequest, result *validation.Result) error {
	res, err := p.handler.ValidateHandler(req)
	if err != nil {
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"entry_type": req.Entry.Type,
		"result":     res.Kind,
	}).Debug("Validate")

	*result = res

	return nil
}

// Addr returns the address the server listens on.
func (p *SocketAppProxyServer) Addr() string {
	return p.netListener.Addr().String()
}

// Close stops accepting connections.
func (p *SocketAppProxyServer) Close() error {
	return p.netListener.Close()
}
