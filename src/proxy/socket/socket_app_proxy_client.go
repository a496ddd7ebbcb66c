package socket

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"
	"time"

	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/proxy"
	"github.com/mosaicnetworks/sourcechain/src/validation"
	"github.com/sirupsen/logrus"
)

// SocketAppProxyClient implements the AppProxy interface by calling a
// validation engine over JSON-RPC.
type SocketAppProxyClient struct {
	clientAddr string
	timeout    time.Duration
	logger     *logrus.Entry

	mu  sync.Mutex
	rpc *rpc.Client
}

// NewSocketAppProxyClient ...
func NewSocketAppProxyClient(clientAddr string, timeout time.Duration, logger *logrus.Entry) *SocketAppProxyClient {
	return &SocketAppProxyClient{
		clientAddr: clientAddr,
		timeout:    timeout,
		logger:     logger,
	}
}

func (p *SocketAppProxyClient) getConnection() (*rpc.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rpc == nil {
		conn, err := net.DialTimeout("tcp", p.clientAddr, p.timeout)
		if err != nil {
			return nil, err
		}

		p.rpc = jsonrpc.NewClient(conn)
	}

	return p.rpc, nil
}

func (p *SocketAppProxyClient) reset(client *rpc.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rpc == client {
		p.rpc.Close()
		p.rpc = nil
	}
}

// Validate implements the AppProxy interface.
func (p *SocketAppProxyClient) Validate(req proxy.ValidateRequest) (validation.Result, error) {
	client, err := p.getConnection()
	if err != nil {
		return validation.Result{}, cm.WrapCoreErr(cm.IoError, "", err)
	}

	var result validation.Result

	call := client.Go("Validator.Validate", req, &result, make(chan *rpc.Call, 1))
	select {
	case <-call.Done:
		if call.Error != nil {
			p.reset(client)
			return validation.Result{}, cm.WrapCoreErr(cm.IoError, "", call.Error)
		}
	case <-time.After(p.timeout):
		p.reset(client)
		return validation.Result{}, cm.NewCoreErr(cm.Timeout, "", "validation engine did not answer")
	}

	p.logger.WithFields(logrus.Fields{
		"entry_type": req.Entry.Type,
		"lifecycle":  req.Data.Lifecycle,
		"result":     result.Kind,
	}).Debug("AppProxyClient.Validate")

	return result, nil
}

// Close ...
func (p *SocketAppProxyClient) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rpc == nil {
		return nil
	}
	err := p.rpc.Close()
	p.rpc = nil
	return err
}
