package dummy

import (
	"github.com/mosaicnetworks/sourcechain/src/proxy/socket"
	"github.com/sirupsen/logrus"
)

//DummySocketServer is a socket implementation of the dummy app. The node and
//the app run in separate processes; the node's SocketAppProxyClient calls the
//app's rules over a TCP socket.
type DummySocketServer struct {
	*State
	server *socket.SocketAppProxyServer
	logger *logrus.Entry
}

//NewDummySocketServer starts serving the dummy rules on bindAddr
func NewDummySocketServer(bindAddr string, logger *logrus.Entry) (*DummySocketServer, error) {
	state := NewState(logger)

	server, err := socket.NewSocketAppProxyServer(bindAddr, state, logger)
	if err != nil {
		return nil, err
	}

	return &DummySocketServer{
		State:  state,
		server: server,
		logger: logger,
	}, nil
}

//Addr returns the address the rules are served on
func (d *DummySocketServer) Addr() string {
	return d.server.Addr()
}

//Close stops serving
func (d *DummySocketServer) Close() error {
	return d.server.Close()
}
