package sourcechain

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	"github.com/mosaicnetworks/sourcechain/src/chain"
	"github.com/mosaicnetworks/sourcechain/src/config"
	"github.com/mosaicnetworks/sourcechain/src/crypto/keys"
	"github.com/mosaicnetworks/sourcechain/src/dht"
	"github.com/mosaicnetworks/sourcechain/src/dummy"
	"github.com/mosaicnetworks/sourcechain/src/eav"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/mosaicnetworks/sourcechain/src/net"
	"github.com/mosaicnetworks/sourcechain/src/node"
	"github.com/mosaicnetworks/sourcechain/src/peers"
	"github.com/mosaicnetworks/sourcechain/src/proxy/socket"
	"github.com/mosaicnetworks/sourcechain/src/service"
	"github.com/sirupsen/logrus"
)

// Engine is the top-level object of a sourcechain node. It reads the
// configuration and puts together the stores, the transport, the validation
// proxy, the node and the service.
type Engine struct {
	Config    *config.Config
	Node      *node.Node
	Transport net.Transport
	Chain     *chain.Chain
	DHT       *dht.Store
	DNA       *entry.DNA
	Peers     *peers.PeerSet
	Service   *service.Service

	logger *logrus.Entry
}

// NewEngine ...
func NewEngine(config *config.Config) *Engine {
	engine := &Engine{
		Config: config,
		logger: config.Logger(),
	}

	return engine
}

func (e *Engine) initKey() error {
	if e.Config.Key == nil {
		simpleKeyfile := keys.NewSimpleKeyfile(e.Config.Keyfile())

		privKey, err := simpleKeyfile.ReadKey()
		if err != nil {
			e.logger.Warn("Cannot read private key from file", err)

			privKey, err = Keygen(e.Config.Keyfile())
			if err != nil {
				e.logger.Error("Cannot generate a new private key", err)
				return err
			}

			e.logger.Info("Created a new key: ", keys.PublicKeyHex(&privKey.PublicKey))
		}

		e.Config.Key = privKey
	}
	return nil
}

func (e *Engine) initStores() error {
	if !e.Config.Store {
		e.Chain = chain.NewChain(chain.NewStore(cas.NewInmemStore()))
		e.DHT = dht.NewInmemStore(e.logger)

		e.logger.Debug("created new in-mem stores")
		return nil
	}

	e.logger.WithField("path", e.Config.DatabaseDir).Debug("Attempting to load or create database")

	for _, dir := range []string{e.Config.ChainDir(), e.Config.CASDir(), e.Config.EAVDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	chainCAS, err := cas.NewBadgerStore(e.Config.CacheSize, e.Config.ChainDir(), e.logger)
	if err != nil {
		return err
	}

	top, err := e.readHead()
	if err != nil {
		return err
	}
	e.Chain, err = chain.LoadChain(chain.NewStore(chainCAS), top)
	if err != nil {
		return fmt.Errorf("loading chain from %s: %v", top, err)
	}

	dhtCAS, err := cas.NewBadgerStore(e.Config.CacheSize, e.Config.CASDir(), e.logger)
	if err != nil {
		return err
	}
	meta, err := eav.NewBadgerStore(e.Config.EAVDir(), e.logger)
	if err != nil {
		return err
	}
	e.DHT = dht.NewStore(dhtCAS, meta, e.logger)

	e.logger.WithField("chain_length", e.Chain.Length()).Debug("loaded badger stores")

	return nil
}

func (e *Engine) readHead() (cas.Address, error) {
	buf, err := os.ReadFile(e.Config.HeadFile())
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cas.Address(strings.TrimSpace(string(buf))), nil
}

func (e *Engine) initTransport() error {
	if e.Transport != nil {
		return nil
	}

	transport, err := net.NewTCPTransport(
		e.Config.BindAddr,
		e.Config.AdvertiseAddr,
		e.Config.MaxPool,
		e.Config.TCPTimeout,
		e.logger,
	)
	if err != nil {
		return err
	}

	e.Transport = transport

	return nil
}

func (e *Engine) initProxy() error {
	switch {
	case e.Config.Proxy != nil:
	case e.Config.Inapp:
		e.logger.Debug("Using the sample validator")
		e.Config.Proxy = dummy.NewInmemDummyClient(e.logger)
	case e.Config.EngineAddr != "":
		e.logger.WithField("engine", e.Config.EngineAddr).Debug("Using a socket validation engine")
		e.Config.Proxy = socket.NewSocketAppProxyClient(e.Config.EngineAddr, e.Config.TCPTimeout, e.logger)
	default:
		return fmt.Errorf("no validation engine: set engine-connect or inapp")
	}
	return nil
}

func (e *Engine) initPeers() error {
	if e.Peers != nil {
		return nil
	}

	peerSet, err := peers.NewJSONPeerSet(e.Config.DataDir).PeerSet()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if peerSet == nil {
		peerSet = peers.NewPeerSet([]*peers.Peer{})
	}

	self := peers.NewPeer(
		keys.PublicKeyHex(&e.Config.Key.PublicKey),
		e.Transport.AdvertiseAddr(),
		e.Config.Moniker)
	e.Peers = peerSet.WithNewPeer(self)

	return nil
}

func (e *Engine) initDNA() error {
	if e.DNA != nil {
		return nil
	}

	if _, err := os.Stat(e.Config.DNAFile()); os.IsNotExist(err) {
		e.logger.WithField("file", e.Config.DNAFile()).Debug("No DNA file, using an empty DNA")
		e.DNA = entry.NewDNA("default")
		return nil
	}

	dna, err := entry.LoadDNA(e.Config.DNAFile())
	if err != nil {
		return err
	}
	e.DNA = dna

	return nil
}

func (e *Engine) initNode() error {
	agent := node.NewAgent(e.Config.Key, e.Config.Moniker)

	e.logger.WithFields(logrus.Fields{
		"peers": e.Peers.Len(),
		"id":    agent.ID(),
		"dna":   e.DNA.Name,
	}).Debug("PARTICIPANTS")

	e.Node = node.NewNode(
		e.Config,
		agent,
		e.DNA,
		e.Peers,
		e.Chain,
		e.DHT,
		e.Transport,
		e.Config.Proxy,
	)

	if err := e.Node.Init(); err != nil {
		return fmt.Errorf("failed to initialize node: %s", err)
	}

	return nil
}

func (e *Engine) initService() error {
	if !e.Config.NoService {
		e.Service = service.NewService(e.Config.ServiceAddr, e.Node, e.logger)
	}
	return nil
}

// Init reads the configuration and builds every component.
func (e *Engine) Init() error {
	if err := e.initKey(); err != nil {
		return err
	}

	if err := e.initStores(); err != nil {
		return err
	}

	if err := e.initTransport(); err != nil {
		return err
	}

	if err := e.initProxy(); err != nil {
		return err
	}

	if err := e.initPeers(); err != nil {
		return err
	}

	if err := e.initDNA(); err != nil {
		return err
	}

	if err := e.initNode(); err != nil {
		return err
	}

	if err := e.initService(); err != nil {
		return err
	}

	return nil
}

// Run starts the service and runs the node. This is a blocking call.
func (e *Engine) Run() {
	if e.Service != nil {
		go e.Service.Serve()
	}

	e.Node.Run()
}

// Keygen creates a new key and writes it to keyfile. It refuses to overwrite
// an existing key.
func Keygen(keyfile string) (*ecdsa.PrivateKey, error) {
	simpleKeyfile := keys.NewSimpleKeyfile(keyfile)

	if _, err := simpleKeyfile.ReadKey(); err == nil {
		return nil, fmt.Errorf("another key already lives in %s", keyfile)
	}

	privKey, err := keys.GenerateECDSAKey()
	if err != nil {
		return nil, err
	}

	if err := simpleKeyfile.WriteKey(privKey); err != nil {
		return nil, err
	}

	return privKey, nil
}
